// Package ingest drives a full game log ingestion run:
//
//	Seeding → Discovering → Dispatching → Draining → Done
//
// Seeding builds the schema registry from one representative player per
// position. Discovery walks the season rankings and enqueues every player id
// once. A bounded worker pool then fetches, normalizes and scores each
// player's year logs and hands the finished PlayerRecord to the sink.
//
// Failures are contained per unit: a player whose fetches fail is logged and
// skipped, a player with some failed years is persisted with the years that
// succeeded. Only an empty schema after seeding aborts the run.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/albapepper/scoracle-gamelogs/internal/normalize"
	"github.com/albapepper/scoracle-gamelogs/internal/provider"
	"github.com/albapepper/scoracle-gamelogs/internal/schema"
	"github.com/albapepper/scoracle-gamelogs/internal/scoring"
	"github.com/albapepper/scoracle-gamelogs/internal/store"
)

var tracer = otel.Tracer("scoracle.ingest")

// ErrNoSchema means seeding found no representative document for any
// position, so nothing downstream can be normalized.
var ErrNoSchema = errors.New("seeding produced an empty schema")

// ErrDone is returned when work is submitted after the run finished.
var ErrDone = errors.New("orchestrator is done")

const progressEvery = 50

// Deps are the collaborators of a run.
type Deps struct {
	Directory provider.PlayerDirectory
	Fetcher   provider.DocumentFetcher
	Sink      store.Sink
	Registry  *schema.Registry
}

// Options configures a run. Zero values fall back to the defaults noted.
type Options struct {
	Years        provider.YearRange
	SeedYear     int      // 0 = Years.Start
	Positions    []string // seed positions, merged in this order
	MaxWorkers   int      // pool cap, default 8
	Workers      int      // 0 = min(runtime.NumCPU(), MaxWorkers)
	RequestDelay time.Duration
	MaxAttempts  int // default 1
	Scoring      scoring.Keys
	Fields       normalize.Fields
}

// Orchestrator runs one ingestion. It is single-use: after Run returns it
// is Done and rejects further work.
type Orchestrator struct {
	deps       Deps
	opts       Options
	normalizer *normalize.Normalizer
	seen       *SeenSet
	logger     *slog.Logger

	mu    sync.Mutex
	phase Phase
}

// New creates an orchestrator.
func New(deps Deps, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 8
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.SeedYear == 0 {
		opts.SeedYear = opts.Years.Start
	}
	if opts.Scoring == (scoring.Keys{}) {
		opts.Scoring = scoring.DefaultKeys()
	}
	if opts.Fields.Week == "" {
		opts.Fields = normalize.DefaultFields()
	}
	return &Orchestrator{
		deps:       deps,
		opts:       opts,
		normalizer: normalize.New(deps.Registry, scoring.New(opts.Scoring), opts.Fields, logger),
		seen:       NewSeenSet(),
		logger:     logger,
	}
}

// Phase returns the current run state.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Seen exposes the run's dedup set.
func (o *Orchestrator) Seen() *SeenSet { return o.seen }

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if p <= o.phase {
		return
	}
	o.phase = p
	o.logger.Info("Phase", "phase", p.String())
}

// Workers returns the pool size for n units.
func (o *Orchestrator) Workers(n int) int {
	w := o.opts.Workers
	if w < 1 {
		w = runtime.NumCPU()
	}
	if w > o.opts.MaxWorkers {
		w = o.opts.MaxWorkers
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Run executes every phase. The returned Result is never nil. A cancelled
// context stops discovery and dispatch; units in flight are not persisted.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}
	defer func() {
		res.Duration = time.Since(start)
		o.setPhase(PhaseDone)
	}()

	if err := o.Seed(ctx); err != nil {
		return res, err
	}

	units := o.Discover(ctx, res)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if err := o.Dispatch(ctx, units, res); err != nil {
		return res, err
	}

	o.logger.Info("Ingestion run complete", "summary", res.Summary())
	return res, nil
}

// Discover lists every season's players and returns the ones not seen yet,
// in discovery order. A season whose listing fails is recorded and skipped.
func (o *Orchestrator) Discover(ctx context.Context, res *Result) []provider.PlayerRef {
	o.setPhase(PhaseDiscovering)

	var units []provider.PlayerRef
	for _, year := range o.opts.Years.Years() {
		if ctx.Err() != nil {
			break
		}
		players, err := o.deps.Directory.ListPlayers(ctx, year)
		if err != nil {
			o.logger.Error("Failed to list players", "year", year, "error", err)
			res.AddErrorf("list players %d: %v", year, err)
			continue
		}
		res.YearsScanned++

		fresh := 0
		for _, p := range players {
			if o.seen.MarkSeen(p.ID) {
				res.DuplicatesSkipped++
				continue
			}
			units = append(units, p)
			fresh++
		}
		o.logger.Info("Discovered players", "year", year, "listed", len(players), "new", fresh)
	}
	res.PlayersDiscovered = len(units)
	return units
}

// Dispatch runs units through the worker pool and persists every completed
// record. Per-unit failures are recorded in res, not returned.
func (o *Orchestrator) Dispatch(ctx context.Context, units []provider.PlayerRef, res *Result) error {
	if o.Phase() == PhaseDone {
		return ErrDone
	}
	o.setPhase(PhaseDispatching)
	if len(units) == 0 {
		o.logger.Info("No players to process")
		o.setPhase(PhaseDraining)
		return ctx.Err()
	}

	workers := o.Workers(len(units))
	o.logger.Info("Dispatching", "units", len(units), "workers", workers)

	ch := make(chan provider.PlayerRef)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range ch {
				report, err := o.runUnit(ctx, ref)

				mu.Lock()
				res.addUnit(report, err == nil)
				for _, e := range report.Errors {
					res.AddErrorf("player %s: %s", ref.ID, e)
				}
				if err != nil {
					res.AddErrorf("player %s: %v", ref.ID, err)
				}
				if res.UnitsProcessed%progressEvery == 0 {
					o.logger.Info("Progress", "processed", res.UnitsProcessed, "total", len(units),
						"failed", res.UnitsFailed)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, ref := range units {
		select {
		case ch <- ref:
		case <-ctx.Done():
			break feed
		}
	}
	o.setPhase(PhaseDraining)
	close(ch)
	wg.Wait()

	return ctx.Err()
}

// runUnit processes one player with retries and persists the result.
func (o *Orchestrator) runUnit(ctx context.Context, ref provider.PlayerRef) (UnitReport, error) {
	var (
		rec    *provider.PlayerRecord
		report UnitReport
		err    error
	)
	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		rec, report, err = o.ProcessUnit(ctx, ref)
		if err == nil || ctx.Err() != nil {
			break
		}
		if attempt < o.opts.MaxAttempts {
			o.logger.Warn("Retrying player", "player", ref.ID, "attempt", attempt, "error", err)
		}
	}
	if err != nil {
		o.logger.Error("Skipping player", "player", ref.ID, "name", ref.Name, "error", err)
		return report, err
	}

	if err := o.deps.Sink.Save(ctx, rec); err != nil {
		o.logger.Error("Failed to persist player", "player", ref.ID, "error", err)
		return report, fmt.Errorf("persist: %w", err)
	}
	o.logger.Debug("Player saved", "player", ref.ID, "years", len(rec.Years), "games", report.Games)
	return report, nil
}

// ProcessUnit builds one PlayerRecord: discover the player's year logs within
// the configured range, then fetch and normalize each, pacing successive
// fetches by RequestDelay. Years that fail are skipped; the unit fails only
// when every year failed or the context ends. No record is returned on
// cancellation so partial work is never persisted.
func (o *Orchestrator) ProcessUnit(ctx context.Context, ref provider.PlayerRef) (*provider.PlayerRecord, UnitReport, error) {
	ctx, span := tracer.Start(ctx, "ingest:unit", trace.WithAttributes(
		attribute.String("player.id", ref.ID),
		attribute.String("player.name", ref.Name),
	))
	defer span.End()

	var report UnitReport
	logs, err := o.deps.Directory.ListYearLogs(ctx, ref.ProfileURL, o.opts.Years)
	if err != nil {
		span.SetStatus(codes.Error, "list year logs")
		return nil, report, fmt.Errorf("list year logs: %w", err)
	}

	years := make([]int, 0, len(logs))
	for y := range logs {
		years = append(years, y)
	}
	sort.Ints(years)

	rec := provider.NewPlayerRecord(ref)
	var lastErr error
	for _, year := range years {
		if err := sleepCtx(ctx, o.opts.RequestDelay); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, report, err
		}

		doc, err := o.deps.Fetcher.FetchDocument(ctx, logs[year])
		if err != nil {
			if ctx.Err() != nil {
				span.SetStatus(codes.Error, "cancelled")
				return nil, report, ctx.Err()
			}
			report.YearsFailed++
			report.Errors = append(report.Errors, fmt.Sprintf("year %d: %v", year, err))
			lastErr = err
			o.logger.Warn("Skipping year", "player", ref.ID, "year", year, "error", err)
			continue
		}

		games, nr := o.normalizer.Normalize(doc)
		rec.SetYear(year, games)
		report.YearsFetched++
		report.Games += len(games)
		report.HeadersAdded += len(nr.NewHeaders)
		report.RowsSkipped += nr.RowsSkipped
	}

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}
	if len(years) > 0 && report.YearsFetched == 0 {
		span.SetStatus(codes.Error, "all years failed")
		return nil, report, fmt.Errorf("all %d year logs failed: %w", len(years), lastErr)
	}
	span.SetAttributes(attribute.Int("years", report.YearsFetched), attribute.Int("games", report.Games))
	return rec, report, nil
}

// sleepCtx waits d or until ctx ends.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
