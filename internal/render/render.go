// Package render writes the browsable archive: one self-contained page per
// day plus raw json exports of statistics and graph snapshots.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/jxue140/wxarchive/internal/message"
	"github.com/jxue140/wxarchive/internal/speaker"
	"github.com/jxue140/wxarchive/internal/stats"
)

//go:embed templates/archive.html.tmpl
var templateFS embed.FS

// GraphSet is the named graph collection embedded into each day page. Nil
// entries serialize as null, which the front end treats as "no graph for
// this granularity".
type GraphSet struct {
	Daily   *speaker.Snapshot `json:"daily"`
	Weekly  *speaker.Snapshot `json:"weekly"`
	Monthly *speaker.Snapshot `json:"monthly"`
}

// DayDocument is everything one day's page embeds.
type DayDocument struct {
	Label   string
	Summary stats.Summary
	Records []message.NormalizedRecord
	Graphs  GraphSet
}

// Renderer writes archive output under OutDir.
type Renderer struct {
	OutDir string
	tmpl   *template.Template
}

// New creates a renderer, parsing the embedded page template.
func New(outDir string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/archive.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse archive template: %w", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Renderer{OutDir: outDir, tmpl: tmpl}, nil
}

type recordView struct {
	Timestamp int64
	Time      string
	Speaker   string
	TypeTag   int
	HTML      template.HTML
}

type dayView struct {
	Label     string
	Generated string
	Summary   stats.Summary
	Records   []recordView
	Graphs    GraphSet
}

// WriteDay renders one day page and returns its path. Callers suppress
// zero-message windows before getting here.
func (r *Renderer) WriteDay(doc DayDocument) (string, error) {
	view := dayView{
		Label:     doc.Label,
		Generated: time.Now().Format(time.RFC1123),
		Summary:   doc.Summary,
		Graphs:    doc.Graphs,
		Records:   make([]recordView, 0, len(doc.Records)),
	}
	for _, rec := range doc.Records {
		view.Records = append(view.Records, recordView{
			Timestamp: rec.Timestamp,
			Time:      time.Unix(rec.Timestamp, 0).Format("2006-01-02 15:04:05"),
			Speaker:   rec.Speaker,
			TypeTag:   rec.TypeTag,
			// Content was produced by the message renderer and is already
			// markup-safe.
			HTML: template.HTML(rec.Content),
		})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render day %s: %w", doc.Label, err)
	}

	path := filepath.Join(r.OutDir, doc.Label+".html")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write day %s: %w", doc.Label, err)
	}
	return path, nil
}

// WriteStatJSON writes a window summary snapshot under json/, named by year
// and window number (json/2014_month05.json, json/2014_week22.json).
func (r *Renderer) WriteStatJSON(kind string, year, n int, s stats.Summary) (string, error) {
	path := filepath.Join(r.OutDir, "json", fmt.Sprintf("%04d_%s%02d.json", year, kind, n))
	if err := stats.WriteSnapshot(path, s); err != nil {
		return "", err
	}
	return path, nil
}

// WriteGraphJSON writes a graph collection snapshot under json/.
func (r *Renderer) WriteGraphJSON(name string, gs GraphSet) (string, error) {
	data, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal graph set: %w", err)
	}
	path := filepath.Join(r.OutDir, "json", name+".json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create json directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write graph snapshot: %w", err)
	}
	return path, nil
}
