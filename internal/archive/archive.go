// Package archive drives the extraction pipeline across a date range,
// composing daily pages with weekly/monthly summaries at window boundaries.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jxue140/wxarchive/internal/config"
	"github.com/jxue140/wxarchive/internal/message"
	"github.com/jxue140/wxarchive/internal/render"
	"github.com/jxue140/wxarchive/internal/speaker"
	"github.com/jxue140/wxarchive/internal/stats"
	"github.com/jxue140/wxarchive/internal/store"
	"github.com/jxue140/wxarchive/internal/timewin"
)

// Exporter owns one orchestration run: a single read-only store connection,
// reused across every window pass and closed by the caller when the run
// ends. All per-window state lives in windowData, never on the Exporter.
type Exporter struct {
	store *store.Store
	cfg   *config.Config
	out   *render.Renderer
	log   *zap.SugaredLogger
}

// New builds an exporter over an open store.
func New(st *store.Store, cfg *config.Config, out *render.Renderer, log *zap.SugaredLogger) *Exporter {
	return &Exporter{store: st, cfg: cfg, out: out, log: log}
}

// RunResult summarizes one archive run.
type RunResult struct {
	RunID        string
	DaysExported int
	MessagesSeen int
	Duration     time.Duration
}

// windowData is the complete state of one window pass.
type windowData struct {
	summary stats.Summary
	records []message.NormalizedRecord
	graph   *speaker.Graph
}

// loadWindow runs the three pipeline phases for one window: statistics,
// speaker ranking, then the full message scan. Each phase issues a fresh
// query; the previous query's rows are always fully drained first.
func (e *Exporter) loadWindow(ctx context.Context, start, stop time.Time, label string, runID string) (*windowData, error) {
	// Range bounds are calendar epochs in presentation space; the store
	// subtracts the bias before querying.
	rng := store.Range{Start: start.Unix(), Stop: stop.Unix()}

	wrap := func(err error) error {
		return fmt.Errorf("window %s [%s, %s): %w", label, timewin.FormatDate(start), timewin.FormatDate(stop), err)
	}

	// Phase 1: counts.
	total, err := e.store.CountMessages(ctx, rng)
	if err != nil {
		return nil, wrap(err)
	}
	typeCounts, err := e.store.MessageTypeCounts(ctx, rng)
	if err != nil {
		return nil, wrap(err)
	}

	dir := speaker.NewDirectory(e.store)

	// Phase 2: speaker activity. System notices carry no human speaker and
	// stay out of the ranking; unprefixed posts belong to the owner.
	idCounts := make(map[string]int)
	err = e.store.IterateMessages(ctx, rng, func(rec store.RawRecord) error {
		if rec.TypeTag > 1000 {
			return nil
		}
		if id, _, ok := speaker.Split(rec.Payload); ok {
			idCounts[id]++
		} else {
			idCounts[""]++
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}
	nameCounts := make(map[string]int, len(idCounts))
	for id, n := range idCounts {
		if id == "" {
			nameCounts[e.cfg.Owner.Name] += n
			continue
		}
		nameCounts[dir.Resolve(ctx, id)] += n
	}
	speakers := stats.BuildSpeakerCounts(nameCounts)

	// Phase 3: full scan. Classification, resolution, graph updates and
	// coalescing all happen per record; none of them may abort the window.
	resolver := speaker.NewResolver(dir, e.cfg.Owner.Name)
	renderer := message.NewRenderer(e.cfg.OutputDir)
	renderer.Folders = message.Folders(e.cfg.Folders)
	graph := speaker.NewGraph(stats.Ranking(speakers), time.Duration(e.cfg.GraphThresholdMinutes)*time.Minute)
	norm := message.NewNormalizer(time.Duration(e.cfg.MergeWindowMinutes) * time.Minute)

	err = e.store.IterateMessages(ctx, rng, func(rec store.RawRecord) error {
		spk, body := resolver.Resolve(ctx, rec.Payload, rec.TypeTag)
		kind := message.KindOf(rec.TypeTag)
		content := renderer.Render(kind, body, rec.LocalID)
		graph.Observe(spk, rec.CreatedAt)
		norm.Append(message.NormalizedRecord{
			Timestamp: rec.CreatedAt,
			Speaker:   spk,
			TypeTag:   rec.TypeTag,
			Content:   content,
		})
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}

	return &windowData{
		summary: stats.Summary{
			Label:        label,
			Start:        timewin.FormatDate(start),
			Stop:         timewin.FormatDate(stop),
			Total:        total,
			Types:        stats.BuildTypeCounts(typeCounts),
			Speakers:     speakers,
			SpeakerTotal: len(speakers),
			Graph:        graph.Snapshot(label),
			ExportID:     runID,
		},
		records: norm.Records(),
		graph:   graph,
	}, nil
}

func monthLabel(start, next time.Time) string {
	return fmt.Sprintf("month%02d %s to %s", int(start.Month()),
		timewin.FormatDate(start), timewin.FormatDate(next.Add(-time.Second)))
}

func weekLabel(start, next time.Time) string {
	_, week := timewin.ISOWeek(start)
	return fmt.Sprintf("week%02d %s to %s", week,
		timewin.FormatDate(start), timewin.FormatDate(next.Add(-time.Second)))
}

// Run archives every day in [start, stop), embedding weekly and monthly
// summaries from the boundary day onward until their period ends.
func (e *Exporter) Run(ctx context.Context, start, stop time.Time, label string) (RunResult, error) {
	began := time.Now()
	res := RunResult{RunID: uuid.NewString()}
	e.log.Infow("archive run starting", "run_id", res.RunID, "start", timewin.FormatDate(start),
		"stop", timewin.FormatDate(stop), "label", label)

	var (
		monthly      *windowData
		weekly       *windowData
		monthlyUntil time.Time
		weeklyUntil  time.Time
	)

	for day := timewin.DayStart(start); day.Before(stop); day = timewin.NextDay(day) {
		if monthly != nil && !day.Before(monthlyUntil) {
			monthly = nil
		}
		if weekly != nil && !day.Before(weeklyUntil) {
			weekly = nil
		}

		if timewin.IsMonthStart(day) {
			next := timewin.NextMonth(day)
			w, err := e.loadWindow(ctx, day, next, monthLabel(day, next), res.RunID)
			if err != nil {
				return res, err
			}
			monthly, monthlyUntil = w, next
		}
		if timewin.IsWeekStart(day) {
			next := timewin.NextWeek(day)
			w, err := e.loadWindow(ctx, day, next, weekLabel(day, next), res.RunID)
			if err != nil {
				return res, err
			}
			weekly, weeklyUntil = w, next
		}

		dayLabel := timewin.FormatDate(day)
		w, err := e.loadWindow(ctx, day, timewin.NextDay(day), dayLabel, res.RunID)
		if err != nil {
			return res, err
		}
		res.MessagesSeen += w.summary.Total

		if w.summary.Total < 1 {
			e.log.Debugw("empty window skipped", "day", dayLabel)
			continue
		}

		doc := render.DayDocument{
			Label:   dayLabel,
			Summary: w.summary,
			Records: w.records,
			Graphs:  render.GraphSet{Daily: w.summary.Graph},
		}
		if weekly != nil {
			doc.Graphs.Weekly = weekly.summary.Graph
		}
		if monthly != nil {
			doc.Graphs.Monthly = monthly.summary.Graph
		}

		path, err := e.out.WriteDay(doc)
		if err != nil {
			return res, err
		}
		res.DaysExported++
		e.log.Infow("exported day", "day", dayLabel, "messages", w.summary.Total, "file", path)
	}

	res.Duration = time.Since(began)
	e.log.Infow("archive run finished", "run_id", res.RunID, "days", res.DaysExported,
		"messages", res.MessagesSeen, "took", res.Duration.String())
	return res, nil
}

// ExportStats writes standalone summary snapshots for every month or week
// window in [start, stop). Empty windows write nothing.
func (e *Exporter) ExportStats(ctx context.Context, granularity string, start, stop time.Time) (int, error) {
	runID := uuid.NewString()
	exported := 0

	cursor := timewin.DayStart(start)
	for cursor.Before(stop) {
		var (
			next  time.Time
			label string
			n     int
		)
		switch granularity {
		case "month":
			next = timewin.NextMonth(cursor)
			label = monthLabel(cursor, next)
			n = int(cursor.Month())
		case "week":
			next = timewin.NextWeek(cursor)
			label = weekLabel(cursor, next)
			_, n = timewin.ISOWeek(cursor)
		default:
			return exported, fmt.Errorf("unknown stats granularity %q (want month or week)", granularity)
		}

		w, err := e.loadWindow(ctx, cursor, next, label, runID)
		if err != nil {
			return exported, err
		}
		if w.summary.Total > 0 {
			path, err := e.out.WriteStatJSON(granularity, cursor.Year(), n, w.summary)
			if err != nil {
				return exported, err
			}
			exported++
			e.log.Infow("exported stats", "window", label, "messages", w.summary.Total, "file", path)
		}
		cursor = next
	}
	return exported, nil
}

// ExportGraphs writes standalone graph snapshots for every window of the
// given granularity in [start, stop).
func (e *Exporter) ExportGraphs(ctx context.Context, granularity string, start, stop time.Time) (int, error) {
	runID := uuid.NewString()
	exported := 0

	cursor := timewin.DayStart(start)
	for cursor.Before(stop) {
		var (
			next time.Time
			name string
		)
		switch granularity {
		case "day":
			next = timewin.NextDay(cursor)
			name = timewin.FormatDate(cursor) + "_graphs"
		case "week":
			next = timewin.NextWeek(cursor)
			_, wk := timewin.ISOWeek(cursor)
			name = fmt.Sprintf("%04d_week%02d_graphs", cursor.Year(), wk)
		case "month":
			next = timewin.NextMonth(cursor)
			name = fmt.Sprintf("%04d_month%02d_graphs", cursor.Year(), int(cursor.Month()))
		default:
			return exported, fmt.Errorf("unknown graph granularity %q (want day, week or month)", granularity)
		}

		label := timewin.FormatDate(cursor)
		w, err := e.loadWindow(ctx, cursor, next, label, runID)
		if err != nil {
			return exported, err
		}
		if w.summary.Total > 0 {
			gs := render.GraphSet{}
			switch granularity {
			case "day":
				gs.Daily = w.summary.Graph
			case "week":
				gs.Weekly = w.summary.Graph
			case "month":
				gs.Monthly = w.summary.Graph
			}
			path, err := e.out.WriteGraphJSON(name, gs)
			if err != nil {
				return exported, err
			}
			exported++
			e.log.Infow("exported graph", "window", label, "file", path)
		}
		cursor = next
	}
	return exported, nil
}
