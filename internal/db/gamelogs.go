package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/scoracle-gamelogs/internal/provider"
	"github.com/albapepper/scoracle-gamelogs/internal/schema"
	"github.com/albapepper/scoracle-gamelogs/internal/store"
)

// --------------------------------------------------------------------------
// Player game logs
// --------------------------------------------------------------------------

// GamelogStore mirrors player records into player_gamelogs.
type GamelogStore struct {
	pool *Pool
}

var (
	_ store.Sink   = (*GamelogStore)(nil)
	_ store.Reader = (*GamelogStore)(nil)
)

// NewGamelogStore creates a store on pool.
func NewGamelogStore(pool *Pool) *GamelogStore {
	return &GamelogStore{pool: pool}
}

// Save upserts rec.
func (s *GamelogStore) Save(ctx context.Context, rec *provider.PlayerRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", rec.ID, err)
	}
	sum := store.Summarize(rec)
	if _, err := s.pool.Exec(ctx, "upsert_player_gamelog", rec.ID, rec.Name, sum.Games, sum.Years, data); err != nil {
		return fmt.Errorf("upsert gamelog %s: %w", rec.ID, err)
	}
	return s.pool.Notify(ctx, Change{Kind: ChangePlayer, ID: rec.ID})
}

// Get loads one record.
func (s *GamelogStore) Get(ctx context.Context, id string) (*provider.PlayerRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, "player_gamelog_by_id", id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get gamelog %s: %w", id, err)
	}
	var rec provider.PlayerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode gamelog %s: %w", id, err)
	}
	return &rec, nil
}

// List returns summaries ordered by id.
func (s *GamelogStore) List(ctx context.Context) ([]store.Summary, error) {
	rows, err := s.pool.Query(ctx, "list_player_gamelogs")
	if err != nil {
		return nil, fmt.Errorf("list gamelogs: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Summary, error) {
		var sum store.Summary
		err := row.Scan(&sum.ID, &sum.Name, &sum.Games, &sum.Years)
		return sum, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan gamelogs: %w", err)
	}
	if out == nil {
		out = []store.Summary{}
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Schema registry
// --------------------------------------------------------------------------

// SchemaLog persists registry entries to schema_entries. It satisfies
// schema.Log, whose methods carry no context, so each write gets its own
// timeout.
type SchemaLog struct {
	pool    *Pool
	timeout time.Duration
}

var _ schema.Log = (*SchemaLog)(nil)

// NewSchemaLog creates a schema log on pool.
func NewSchemaLog(pool *Pool) *SchemaLog {
	return &SchemaLog{pool: pool, timeout: 10 * time.Second}
}

// Rewrite replaces every stored entry in one transaction.
func (l *SchemaLog) Rewrite(entries []schema.Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	return pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "clear_schema_entries"); err != nil {
			return fmt.Errorf("clear schema entries: %w", err)
		}
		batch := &pgx.Batch{}
		for _, e := range entries {
			batch.Queue("upsert_schema_entry", e.Category, e.Column, e.Name, e.Tip)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert schema entries: %w", err)
		}
		// Delivered on commit.
		return notify(ctx, tx, Change{Kind: ChangeSchema})
	})
}

// Append upserts one entry.
func (l *SchemaLog) Append(e schema.Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	if _, err := l.pool.Exec(ctx, "upsert_schema_entry", e.Category, e.Column, e.Name, e.Tip); err != nil {
		return fmt.Errorf("append schema entry %s: %w", e.Name, err)
	}
	return l.pool.Notify(ctx, Change{Kind: ChangeSchema})
}

// Load returns stored entries in insertion order.
func (l *SchemaLog) Load(ctx context.Context) ([]schema.Entry, error) {
	rows, err := l.pool.Query(ctx, "list_schema_entries")
	if err != nil {
		return nil, fmt.Errorf("list schema entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.Entry, error) {
		var e schema.Entry
		err := row.Scan(&e.Category, &e.Column, &e.Name, &e.Tip)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan schema entries: %w", err)
	}
	return entries, nil
}
