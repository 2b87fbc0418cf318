// Package stats aggregates per-window summary statistics and persists them
// as json snapshots.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jxue140/wxarchive/internal/message"
	"github.com/jxue140/wxarchive/internal/speaker"
)

// typeNames are the display names for the known type tags.
var typeNames = map[int]string{
	message.TagText:     "texts",
	message.TagImage:    "images",
	message.TagAudio:    "audios",
	message.TagXML:      "xml",
	message.TagVideo:    "videos",
	message.TagEmoji:    "emotions",
	message.TagLocation: "locations",
	message.TagLink:     "links",
	message.TagSystem:   "system notifications",
}

// TypeName returns the display name for a type tag.
func TypeName(tag int) string {
	if name, ok := typeNames[tag]; ok {
		return name
	}
	return fmt.Sprintf("type %d", tag)
}

// TypeCount is one entry of the per-type message distribution.
type TypeCount struct {
	Tag   int    `json:"tag"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SpeakerCount is one entry of the per-speaker message distribution.
type SpeakerCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary holds one window's aggregated statistics.
type Summary struct {
	Label        string            `json:"label"`
	Start        string            `json:"start"`
	Stop         string            `json:"stop"`
	Total        int               `json:"total"`
	Types        []TypeCount       `json:"types"`
	Speakers     []SpeakerCount    `json:"speakers"`
	SpeakerTotal int               `json:"speaker_total"`
	Graph        *speaker.Snapshot `json:"graph,omitempty"`
	ExportID     string            `json:"export_id,omitempty"`
}

// BuildTypeCounts orders raw per-tag counts descending, dropping zero
// entries. Ties break on the tag for a stable order.
func BuildTypeCounts(counts map[int]int) []TypeCount {
	out := make([]TypeCount, 0, len(counts))
	for tag, n := range counts {
		if n == 0 {
			continue
		}
		out = append(out, TypeCount{Tag: tag, Name: TypeName(tag), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// BuildSpeakerCounts orders per-speaker counts descending, ties broken on
// the name.
func BuildSpeakerCounts(counts map[string]int) []SpeakerCount {
	out := make([]SpeakerCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, SpeakerCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Ranking converts speaker counts into the graph seeding order.
func Ranking(counts []SpeakerCount) []speaker.Activity {
	out := make([]speaker.Activity, len(counts))
	for i, c := range counts {
		out[i] = speaker.Activity{Name: c.Name, Count: c.Count}
	}
	return out
}

// WriteSnapshot writes a summary as json, creating parent directories.
func WriteSnapshot(path string, s Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a summary written by WriteSnapshot.
func ReadSnapshot(path string) (Summary, error) {
	var s Summary
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return s, nil
}
