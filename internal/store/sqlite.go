package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/albapepper/scoracle-gamelogs/internal/provider"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS players (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	games      INTEGER NOT NULL,
	years      TEXT NOT NULL,
	record     TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps each record as a JSON document in one row per player.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single connection: writes from concurrent workers are serialized.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts rec.
func (s *SQLiteStore) Save(ctx context.Context, rec *provider.PlayerRecord) error {
	if err := ValidateID(rec.ID); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", rec.ID, err)
	}
	sum := Summarize(rec)
	years, err := json.Marshal(sum.Years)
	if err != nil {
		return fmt.Errorf("marshal years: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO players (id, name, games, years, record, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	games = excluded.games,
	years = excluded.years,
	record = excluded.record,
	updated_at = excluded.updated_at
`,
		rec.ID, rec.Name, sum.Games, string(years), string(data), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.ID, err)
	}
	return nil
}

// Get loads one record.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*provider.PlayerRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM players WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	var rec provider.PlayerRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return &rec, nil
}

// List returns summaries ordered by id without decoding full records.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, games, years FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum   Summary
			years string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Games, &years); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		if err := json.Unmarshal([]byte(years), &sum.Years); err != nil {
			return nil, fmt.Errorf("decode years for %s: %w", sum.ID, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
