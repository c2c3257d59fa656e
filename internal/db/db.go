// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking. Postgres is an optional mirror of the
// file artifacts: player game logs and the schema registry.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-gamelogs/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Tables must exist before statements referencing them can be prepared.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, schemaDDL); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS player_gamelogs (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	games      INTEGER NOT NULL,
	years      TEXT[] NOT NULL,
	record     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS schema_entries (
	category     TEXT NOT NULL,
	column_label TEXT NOT NULL,
	name         TEXT NOT NULL,
	tip          TEXT NOT NULL DEFAULT '',
	seq          BIGSERIAL,
	PRIMARY KEY (category, column_label)
);`

// registerPreparedStatements registers all statements the API and ingestion
// layers use.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Player game logs
		"upsert_player_gamelog": `INSERT INTO player_gamelogs (id, name, games, years, record, updated_at)
			VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, games = EXCLUDED.games, years = EXCLUDED.years,
				record = EXCLUDED.record, updated_at = now()`,
		"player_gamelog_by_id": "SELECT record FROM player_gamelogs WHERE id = $1",
		"list_player_gamelogs": "SELECT id, name, games, years FROM player_gamelogs ORDER BY id",

		// Change notifications
		"notify": "SELECT pg_notify($1, $2)",

		// Schema registry
		"upsert_schema_entry": `INSERT INTO schema_entries (category, column_label, name, tip)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (category, column_label) DO UPDATE SET name = EXCLUDED.name, tip = EXCLUDED.tip`,
		"clear_schema_entries": "DELETE FROM schema_entries",
		"list_schema_entries":  "SELECT category, column_label, name, tip FROM schema_entries ORDER BY seq",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
