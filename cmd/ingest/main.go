// Command ingest is the Scoracle game log ingestion CLI.
//
// Usage:
//
//	scoracle-ingest run --start 2018 --end 2024 --workers 4
//	scoracle-ingest run --resume
//	scoracle-ingest player --id McCaCh01 --name "Christian McCaffrey" --url https://.../players/M/McCaCh01.htm
//	scoracle-ingest schema
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-gamelogs/internal/config"
	"github.com/albapepper/scoracle-gamelogs/internal/db"
	"github.com/albapepper/scoracle-gamelogs/internal/ingest"
	"github.com/albapepper/scoracle-gamelogs/internal/provider"
	"github.com/albapepper/scoracle-gamelogs/internal/provider/pfr"
	"github.com/albapepper/scoracle-gamelogs/internal/schema"
	"github.com/albapepper/scoracle-gamelogs/internal/scoring"
	"github.com/albapepper/scoracle-gamelogs/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "scoracle-ingest",
		Short: "Scoracle game log ingestion CLI",
	}

	root.AddCommand(runCmd())
	root.AddCommand(playerCmd())
	root.AddCommand(schemaCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var (
		start, end, workers int
		delay               time.Duration
		positions           []string
		resume              bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest game logs for every ranked player in the year range",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(func(ctx context.Context, cfg *config.Config) error {
				flags := cmd.Flags()
				if flags.Changed("start") {
					cfg.StartYear = start
				}
				if flags.Changed("end") {
					cfg.EndYear = end
				}
				if flags.Changed("delay") {
					cfg.RequestDelay = delay
				}
				if flags.Changed("positions") {
					cfg.SeedPositions = upper(positions)
				}
				if flags.Changed("resume") {
					cfg.ResumeSchema = resume
				}
				if err := cfg.Validate(); err != nil {
					return err
				}

				p, err := buildPipeline(ctx, cfg, cfg.ResumeSchema)
				if err != nil {
					return err
				}
				defer p.Close()

				o := ingest.New(p.deps(), runOptions(cfg, workers), logger)
				result, err := o.Run(ctx)
				logger.Info("Ingestion finished", "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("ingest error", "error", e)
				}
				return err
			})
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "First season (inclusive)")
	cmd.Flags().IntVar(&end, "end", 0, "Last season (inclusive)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker count (0 = min(CPUs, GAMELOG_MAX_WORKERS))")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Pause between fetches within one player")
	cmd.Flags().StringSliceVar(&positions, "positions", nil, "Seed positions, merged in order")
	cmd.Flags().BoolVar(&resume, "resume", false, "Load the schema log instead of re-seeding")
	return cmd
}

// --------------------------------------------------------------------------
// player command
// --------------------------------------------------------------------------

func playerCmd() *cobra.Command {
	var id, name, url string
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Ingest a single player against the saved (or freshly seeded) schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" || url == "" {
				return fmt.Errorf("--id and --url are required")
			}
			if err := store.ValidateID(id); err != nil {
				return err
			}
			return runIngest(func(ctx context.Context, cfg *config.Config) error {
				p, err := buildPipeline(ctx, cfg, true)
				if err != nil {
					return err
				}
				defer p.Close()

				o := ingest.New(p.deps(), runOptions(cfg, 1), logger)
				if err := o.Seed(ctx); err != nil {
					return err
				}
				result := &ingest.Result{}
				ref := provider.PlayerRef{ID: id, Name: name, ProfileURL: url}
				if err := o.Dispatch(ctx, []provider.PlayerRef{ref}, result); err != nil {
					return err
				}
				logger.Info("Player finished", "player", id, "summary", result.Summary())
				if result.UnitsFailed > 0 {
					return fmt.Errorf("player %s failed: %s", id, strings.Join(result.Errors, "; "))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Player id (e.g. McCaCh01)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&url, "url", "", "Player profile URL")
	return cmd
}

// --------------------------------------------------------------------------
// schema command
// --------------------------------------------------------------------------

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the persisted schema registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			entries, err := schema.ReadLog(cfg.SchemaLog)
			if err != nil {
				return fmt.Errorf("read schema log: %w", err)
			}
			if len(entries) == 0 {
				return fmt.Errorf("no schema log at %s; run ingestion first", cfg.SchemaLog)
			}

			reg := schema.NewRegistry(nil, logger)
			reg.Restore(entries)

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"#", "Category", "Column", "Name", "Tip"})
			for i, e := range reg.Entries() {
				t.AppendRow(table.Row{i + 1, e.Category, e.Column, e.Name, e.Tip})
			}
			t.AppendFooter(table.Row{"", "", "", "Total", reg.Len()})
			t.SetStyle(table.StyleRounded)
			t.Render()

			for name, keys := range reg.Collisions() {
				fmt.Fprintf(os.Stdout, "collision: %s <- %v\n", name, keys)
			}
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// pipeline holds the collaborators of a run and what must be closed after it.
type pipeline struct {
	client   *pfr.Client
	registry *schema.Registry
	sink     store.Multi
	closers  []func()
}

func (p *pipeline) deps() ingest.Deps {
	return ingest.Deps{
		Directory: p.client,
		Fetcher:   p.client,
		Sink:      p.sink,
		Registry:  p.registry,
	}
}

func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

// buildPipeline wires the pfr client, the schema registry (file log plus the
// optional Postgres mirror) and every configured sink. With resume, an
// existing schema log is loaded so seeding is skipped.
func buildPipeline(ctx context.Context, cfg *config.Config, resume bool) (*pipeline, error) {
	p := &pipeline{
		client: pfr.NewClient(pfr.Options{
			BaseURL:           cfg.BaseURL,
			UserAgent:         cfg.UserAgent,
			Timeout:           cfg.RequestTimeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
			Retries:           cfg.HTTPRetries,
		}, logger),
		sink: store.Multi{store.NewFileStore(cfg.DataDir)},
	}

	fileLog := schema.NewFileLog(cfg.SchemaLog)
	var schemaLog schema.Log = fileLog
	var dbLog *db.SchemaLog

	if cfg.SQLitePath != "" {
		lite, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		p.closers = append(p.closers, func() { _ = lite.Close() })
		p.sink = append(p.sink, lite)
	}

	if cfg.DatabaseURL != "" {
		pool, err := db.New(ctx, cfg)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		p.closers = append(p.closers, pool.Close)
		p.sink = append(p.sink, db.NewGamelogStore(pool))
		dbLog = db.NewSchemaLog(pool)
		schemaLog = schema.MultiLog{fileLog, dbLog}
	}

	p.registry = schema.NewRegistry(schemaLog, logger)
	if resume {
		entries, err := fileLog.Load(ctx)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("read schema log: %w", err)
		}
		if len(entries) == 0 && dbLog != nil {
			if entries, err = dbLog.Load(ctx); err != nil {
				p.Close()
				return nil, err
			}
		}
		p.registry.Restore(entries)
		logger.Info("Schema resumed", "headers", p.registry.Len(), "path", fileLog.Path())
	}
	return p, nil
}

func runOptions(cfg *config.Config, workers int) ingest.Options {
	return ingest.Options{
		Years:        provider.YearRange{Start: cfg.StartYear, End: cfg.EndYear},
		SeedYear:     cfg.EffectiveSeedYear(),
		Positions:    cfg.SeedPositions,
		MaxWorkers:   cfg.MaxWorkers,
		Workers:      workers,
		RequestDelay: cfg.RequestDelay,
		MaxAttempts:  cfg.MaxAttempts,
		Scoring:      scoring.DefaultKeys().WithOverrides(cfg.ScoringKeys),
	}
}

// runIngest handles config loading and context cancellation.
func runIngest(fn func(ctx context.Context, cfg *config.Config) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return fn(ctx, cfg)
}

func upper(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
