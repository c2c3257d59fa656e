package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/albapepper/scoracle-gamelogs/internal/provider"
	"github.com/albapepper/scoracle-gamelogs/internal/schema"
)

// seedCandidates bounds how many players per position are tried before the
// position is given up.
const seedCandidates = 3

// Seed builds the registry from the seed year's rankings: for every
// configured position, the first ranked player with a usable game log
// contributes that log's headers. Positions are sampled concurrently and
// merged in configured order, later positions overwriting earlier ones.
//
// A registry that already holds entries (resumed from a schema log) is left
// untouched.
func (o *Orchestrator) Seed(ctx context.Context) error {
	o.setPhase(PhaseSeeding)
	if n := o.deps.Registry.Len(); n > 0 {
		o.logger.Info("Schema already loaded, skipping seeding", "headers", n)
		return nil
	}

	players, err := o.deps.Directory.ListPlayers(ctx, o.opts.SeedYear)
	if err != nil {
		return fmt.Errorf("%w: list seed players: %v", ErrNoSchema, err)
	}
	byPos := make(map[string][]provider.PlayerRef)
	for _, p := range players {
		pos := strings.ToUpper(strings.TrimSpace(p.Position))
		byPos[pos] = append(byPos[pos], p)
	}

	sets := make([][]schema.Header, len(o.opts.Positions))
	g, gctx := errgroup.WithContext(ctx)
	for i, pos := range o.opts.Positions {
		i, pos := i, pos
		g.Go(func() error {
			headers, err := o.samplePosition(gctx, pos, byPos[strings.ToUpper(pos)])
			if err != nil {
				return err
			}
			sets[i] = headers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := o.deps.Registry.Seed(sets...); err != nil {
		o.logger.Error("Failed to write schema log", "error", err)
	}
	if o.deps.Registry.Len() == 0 {
		return ErrNoSchema
	}
	o.logger.Info("Schema seeded", "headers", o.deps.Registry.Len(), "names", len(o.deps.Registry.Names()))
	return nil
}

// samplePosition returns the headers of the earliest game log of the first
// usable candidate. Only cancellation is returned as an error; a position
// without a usable candidate yields nil headers.
func (o *Orchestrator) samplePosition(ctx context.Context, pos string, candidates []provider.PlayerRef) ([]schema.Header, error) {
	if len(candidates) == 0 {
		o.logger.Warn("No representative player for position", "position", pos, "year", o.opts.SeedYear)
		return nil, nil
	}
	if len(candidates) > seedCandidates {
		candidates = candidates[:seedCandidates]
	}

	for i, p := range candidates {
		if i > 0 {
			if err := sleepCtx(ctx, o.opts.RequestDelay); err != nil {
				return nil, err
			}
		}
		headers, err := o.sampleHeaders(ctx, p)
		if err == nil && len(headers) > 0 {
			o.logger.Info("Seeded position", "position", pos, "player", p.ID, "headers", len(headers))
			return headers, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		o.logger.Warn("Seed candidate unusable", "position", pos, "player", p.ID, "error", err)
	}
	o.logger.Warn("No usable game log for position", "position", pos)
	return nil, nil
}

func (o *Orchestrator) sampleHeaders(ctx context.Context, p provider.PlayerRef) ([]schema.Header, error) {
	logs, err := o.deps.Directory.ListYearLogs(ctx, p.ProfileURL, provider.YearRange{})
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("no game logs")
	}
	years := make([]int, 0, len(logs))
	for y := range logs {
		years = append(years, y)
	}
	sort.Ints(years)

	if err := sleepCtx(ctx, o.opts.RequestDelay); err != nil {
		return nil, err
	}
	doc, err := o.deps.Fetcher.FetchDocument(ctx, logs[years[0]])
	if err != nil {
		return nil, err
	}
	headers := schema.HeadersFromDocument(doc)
	if len(headers) == 0 {
		return nil, fmt.Errorf("no headers in %s", doc.URL)
	}
	return headers, nil
}
