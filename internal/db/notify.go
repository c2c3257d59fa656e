package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ChangeChannel is the pg_notify channel written after every mirrored write.
const ChangeChannel = "gamelog_changed"

// Change kinds.
const (
	ChangePlayer = "player"
	ChangeSchema = "schema"
)

// Change is the JSON payload sent on ChangeChannel.
type Change struct {
	Kind      string `json:"kind"`
	ID        string `json:"id,omitempty"`
	Timestamp int64  `json:"ts"`
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Notify publishes c on ChangeChannel.
func (p *Pool) Notify(ctx context.Context, c Change) error {
	return notify(ctx, p, c)
}

func notify(ctx context.Context, ex execer, c Change) error {
	if c.Timestamp == 0 {
		c.Timestamp = time.Now().Unix()
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, "notify", ChangeChannel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", c.Kind, err)
	}
	return nil
}
