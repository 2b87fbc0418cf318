package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jxue140/wxarchive/internal/archive"
	"github.com/jxue140/wxarchive/internal/config"
	"github.com/jxue140/wxarchive/internal/logging"
	"github.com/jxue140/wxarchive/internal/render"
	"github.com/jxue140/wxarchive/internal/store"
	"github.com/jxue140/wxarchive/internal/timewin"
)

var (
	version    = "dev"
	commit     = "none"
	buildDate  = "unknown"
	jsonOutput bool
	logMode    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wxarchive",
		Short: "WeChat export archiver",
		Long: `wxarchive reads an exported WeChat sqlite message store and renders a
browsable archive: one page per day with normalized messages, resolved
speakers, summary statistics and speaker-interaction graphs, plus raw
json exports per week and month.`,
	}

	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&logMode, "log", "dev", "Log mode (dev or prod)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				printJSON(map[string]string{
					"version": version,
					"commit":  commit,
					"date":    buildDate,
				})
			} else {
				fmt.Printf("wxarchive %s (%s, %s)\n", version, commit, buildDate)
			}
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			printJSON(cfg)
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "archive [start] [end] [label]",
		Short: "Render daily archive pages over a date range",
		Long: `Renders one page per day in [start, end). Dates are yyyy-mm-dd and
default to January 1st of the current year through today. Days that
start a month or an ISO week additionally run the wider window pass and
embed its summary into each covered day.`,
		Args: cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, stop, label, err := dateRange(args)
			if err != nil {
				return err
			}
			return withExporter(func(ctx context.Context, e *archive.Exporter, log *zap.SugaredLogger) error {
				res, err := e.Run(ctx, start, stop, label)
				if err != nil {
					return err
				}
				if jsonOutput {
					printJSON(res)
				} else {
					fmt.Printf("exported %d days (%d messages) in %s\n",
						res.DaysExported, res.MessagesSeen, res.Duration)
				}
				return nil
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "stats <month|week> [start] [end]",
		Short: "Export raw statistics snapshots per month or week",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			granularity := args[0]
			start, stop, _, err := dateRange(args[1:])
			if err != nil {
				return err
			}
			return withExporter(func(ctx context.Context, e *archive.Exporter, log *zap.SugaredLogger) error {
				n, err := e.ExportStats(ctx, granularity, start, stop)
				if err != nil {
					return err
				}
				fmt.Printf("exported %d %s snapshots\n", n, granularity)
				return nil
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "graph <day|week|month> [start] [end]",
		Short: "Export raw speaker-graph snapshots",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			granularity := args[0]
			start, stop, _, err := dateRange(args[1:])
			if err != nil {
				return err
			}
			return withExporter(func(ctx context.Context, e *archive.Exporter, log *zap.SugaredLogger) error {
				n, err := e.ExportGraphs(ctx, granularity, start, stop)
				if err != nil {
					return err
				}
				fmt.Printf("exported %d %s graph snapshots\n", n, granularity)
				return nil
			})
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// dateRange resolves positional [start] [end] [label] arguments, defaulting
// to year-to-date.
func dateRange(args []string) (start, stop time.Time, label string, err error) {
	now := time.Now()
	start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.Local)
	stop = timewin.DayStart(now)
	label = "this year till now"

	if len(args) >= 1 {
		if start, err = timewin.ParseDate(args[0]); err != nil {
			return
		}
	}
	if len(args) >= 2 {
		if stop, err = timewin.ParseDate(args[1]); err != nil {
			return
		}
	}
	if len(args) >= 3 {
		label = args[2]
	}
	if !start.Before(stop) {
		err = fmt.Errorf("start date %s is not before end date %s",
			timewin.FormatDate(start), timewin.FormatDate(stop))
	}
	return
}

// withExporter opens the store once, runs fn, and closes everything.
func withExporter(fn func(context.Context, *archive.Exporter, *zap.SugaredLogger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.ChatTable == "" {
		return fmt.Errorf("chat_table is not configured (run 'wxarchive config' to see the config path)")
	}

	log, err := logging.New(logMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := store.Open(cfg.StorePath(), cfg.ChatTable, cfg.TimeBiasSeconds)
	if err != nil {
		return err
	}
	defer st.Close()

	out, err := render.New(cfg.OutputDir)
	if err != nil {
		return err
	}

	return fn(context.Background(), archive.New(st, cfg, out, log), log)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
