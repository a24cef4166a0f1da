package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/rate-intel/internal/config"
	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/pkg/logger"
	"github.com/ignite/rate-intel/internal/service/pricing"
)

type rootFlags struct {
	config      string
	logLevel    string
	metricsFile string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "rateintel",
		Short: "Competitive rate intelligence and recommendations for hotel properties",
		Long: `rateintel collects competitor rates for a property, analyzes the
market position of the property's own rates and generates rate
recommendations that a revenue manager can review and apply.

Configuration is read from --config (YAML), a .env file and the
environment (DATABASE_URL, RATE_PROVIDER_URL, REDIS_ADDR, ...).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.config, "config", "", "Config file path")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	root.AddCommand(
		newMigrateCmd(flags),
		newRatesCmd(flags),
		newGenerateCmd(flags),
		newAnalyzeCmd(flags),
		newSuggestionsCmd(flags),
		newApplyCmd(flags),
		newRefreshCmd(flags),
		newPruneCmd(flags),
	)
	return root
}

// run loads configuration, wires the pipeline and calls fn with a context
// bounded by the analysis timeout and cancelled on SIGINT or SIGTERM.
func run(cmd *cobra.Command, flags *rootFlags, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.LoadFromEnv(flags.config)
	if err != nil {
		return err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	logCfg := cfg.Log
	logCfg.Output = cmd.ErrOrStderr()
	log := logger.New(logCfg).With("command", cmd.Name())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Pipeline.AnalysisTimeout())
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	runErr := fn(ctx, a)
	if err := a.writeMetrics(flags.metricsFile); err != nil {
		log.Warn("failed to write metrics", "path", flags.metricsFile, "error", err)
	}
	return runErr
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseDay(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("--%s is required", flag)
	}
	t, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", flag, value)
	}
	return t, nil
}

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, flags, func(ctx context.Context, a *app) error {
				v, err := a.store.SchemaVersion(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{"driver": a.store.Dialect(), "schema_version": v})
			})
		},
	}
}

func newRatesCmd(flags *rootFlags) *cobra.Command {
	rates := &cobra.Command{
		Use:   "rates",
		Short: "Manage the property's own rate records",
	}
	rates.AddCommand(&cobra.Command{
		Use:   "import <file.json>",
		Short: "Insert or update rate records from a JSON array",
		Long: `Reads a JSON array of rate records and upserts them by property,
room type, rate plan and date. Example record:

  {"property_id": "p1", "room_type_id": "rt-std", "room_type_code": "STD",
   "rate_plan_id": "bar", "date": "2026-07-04", "rate": "129.00",
   "currency": "USD", "rooms_available": 40, "rooms_sold": 31}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRatesFile(args[0])
			if err != nil {
				return err
			}
			return run(cmd, flags, func(ctx context.Context, a *app) error {
				n, err := a.store.UpsertRates(ctx, records)
				if err != nil {
					return err
				}
				a.log.Info("rates imported", "file", args[0], "records", n)
				return printJSON(cmd, map[string]int{"imported": n})
			})
		},
	})
	return rates
}

func newGenerateCmd(flags *rootFlags) *cobra.Command {
	var (
		propertyID string
		start, end string
		roomTypes  []string
		ratePlans  []string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate rate recommendations for a date range",
		Long: `Prices every rate record of the property in the date range against
the competitive set and stores one unapplied suggestion per
recommendation. Records that fail are listed in the report.

Examples:
  rateintel generate --property p1 --start 2026-07-01 --end 2026-07-07
  rateintel generate --property p1 --start 2026-07-04 --end 2026-07-04 --room-type rt-std`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseDay("start", start)
			if err != nil {
				return err
			}
			to, err := parseDay("end", end)
			if err != nil {
				return err
			}
			return run(cmd, flags, func(ctx context.Context, a *app) error {
				report, err := a.svc.GenerateRecommendations(ctx, pricing.GenerateRequest{
					PropertyID:  propertyID,
					Start:       from,
					End:         to,
					RoomTypeIDs: roomTypes,
					RatePlanIDs: ratePlans,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			})
		},
	}
	cmd.Flags().StringVar(&propertyID, "property", "", "Property id")
	cmd.Flags().StringVar(&start, "start", "", "First stay date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last stay date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&roomTypes, "room-type", nil, "Restrict to room type ids (repeatable)")
	cmd.Flags().StringSliceVar(&ratePlans, "rate-plan", nil, "Restrict to rate plan ids (repeatable)")
	cmd.MarkFlagRequired("property")
	return cmd
}

func newAnalyzeCmd(flags *rootFlags) *cobra.Command {
	var propertyID, date, roomType string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize the competitive market for one room type and date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDay("date", date)
			if err != nil {
				return err
			}
			return run(cmd, flags, func(ctx context.Context, a *app) error {
				summary, err := a.svc.PerformMarketAnalysis(ctx, propertyID, day, roomType)
				if err != nil {
					return err
				}
				return printJSON(cmd, summary)
			})
		},
	}
	cmd.Flags().StringVar(&propertyID, "property", "", "Property id")
	cmd.Flags().StringVar(&date, "date", "", "Stay date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&roomType, "room-type", "", "Room type code, e.g. STD")
	cmd.MarkFlagRequired("property")
	cmd.MarkFlagRequired("room-type")
	return cmd
}

func newSuggestionsCmd(flags *rootFlags) *cobra.Command {
	var (
		propertyID string
		start, end string
		pending    bool
		applied    bool
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "suggestions [suggestion-id]",
		Short: "List a property's suggestions, or show one by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pending && applied {
				return errors.New("--pending and --applied are mutually exclusive")
			}
			f := pricing.SuggestionFilter{PropertyID: propertyID, Limit: limit}
			var err error
			if start != "" {
				if f.Start, err = parseDay("start", start); err != nil {
					return err
				}
			}
			if end != "" {
				if f.End, err = parseDay("end", end); err != nil {
					return err
				}
			}
			if pending || applied {
				f.Applied = &applied
			}
			return run(cmd, flags, func(ctx context.Context, a *app) error {
				if len(args) == 1 {
					sg, err := a.svc.GetSuggestion(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd, sg)
				}
				list, err := a.svc.ListSuggestions(ctx, f)
				if err != nil {
					return err
				}
				if list == nil {
					list = []domain.Suggestion{}
				}
				return printJSON(cmd, list)
			})
		},
	}
	cmd.Flags().StringVar(&propertyID, "property", "", "Property id")
	cmd.Flags().StringVar(&start, "start", "", "First stay date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last stay date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only unapplied suggestions")
	cmd.Flags().BoolVar(&applied, "applied", false, "Only applied suggestions")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum suggestions to list")
	return cmd
}

func newApplyCmd(flags *rootFlags) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "apply <suggestion-id>",
		Short: "Apply a suggestion to its rate record",
		Long: `Marks the suggestion applied by --actor and writes the suggested rate
to the rate record it targets. A suggestion can be applied once; a second
attempt fails with "suggestion already applied".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, func(ctx context.Context, a *app) error {
				sg, err := a.svc.ApplySuggestion(ctx, args[0], actor)
				if err != nil {
					return err
				}
				return printJSON(cmd, sg)
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "User applying the suggestion")
	cmd.MarkFlagRequired("actor")
	return cmd
}

func newRefreshCmd(flags *rootFlags) *cobra.Command {
	var properties []string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Collect and store the forward competitor rate window",
		Long: `Collects competitor rates for each property from today through the
configured refresh window, stores them for later analysis and archives the
snapshot to S3 when enabled. A property whose refresh is already running
elsewhere is skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, flags, func(ctx context.Context, a *app) error {
				reports := make([]*domain.RefreshReport, 0, len(properties))
				failed := 0
				for _, p := range properties {
					r := a.svc.RefreshCompetitorData(ctx, p)
					if len(r.Errors) > 0 {
						failed++
					}
					reports = append(reports, r)
				}
				if err := printJSON(cmd, reports); err != nil {
					return err
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d refreshes reported errors", failed, len(properties))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&properties, "property", nil, "Property ids (repeatable)")
	cmd.MarkFlagRequired("property")
	return cmd
}

func newPruneCmd(flags *rootFlags) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete stored competitor snapshots past the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, flags, func(ctx context.Context, a *app) error {
				retention := a.cfg.Pipeline.Retention()
				if days > 0 {
					retention = time.Duration(days) * 24 * time.Hour
				}
				cutoff := time.Now().UTC().Add(-retention)
				n, err := a.store.PruneObservations(ctx, cutoff)
				if err != nil {
					return err
				}
				a.log.Info("competitor snapshots pruned", "deleted", n, "cutoff", cutoff)
				return printJSON(cmd, map[string]any{"deleted": n, "cutoff": cutoff})
			})
		},
	}
	cmd.Flags().IntVar(&days, "older-than-days", 0, "Override pipeline.retention_days")
	return cmd
}
