// Package listener provides a Postgres LISTEN/NOTIFY consumer that keeps the
// API cache coherent with ingestion runs writing to the Postgres mirror. It
// holds a dedicated pgx connection (not from the pool) listening on
// db.ChangeChannel.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/scoracle-gamelogs/internal/cache"
	"github.com/albapepper/scoracle-gamelogs/internal/db"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Start opens a dedicated connection and listens for change events,
// invalidating the affected cache keys. It reconnects automatically on
// connection loss. Blocks until ctx is cancelled. Intended to be called
// with `go`.
func Start(ctx context.Context, dbURL string, c *cache.Cache, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, c, logger)
		if ctx.Err() != nil {
			logger.Info("Change listener stopped (context cancelled)")
			return
		}

		logger.Error("Change listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, c *cache.Cache, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{db.ChangeChannel}.Sanitize()); err != nil {
		return fmt.Errorf("LISTEN %s: %w", db.ChangeChannel, err)
	}
	logger.Info("Change listener connected", "channel", db.ChangeChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		if err := Handle(c, notification.Payload, logger); err != nil {
			logger.Warn("Failed to parse change event",
				"payload", notification.Payload, "error", err)
		}
	}
}

// Handle decodes one change payload and drops the cache keys it affects.
func Handle(c *cache.Cache, payload string, logger *slog.Logger) error {
	var ev db.Change
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return err
	}

	var n int
	switch ev.Kind {
	case db.ChangePlayer:
		if ev.ID == "" {
			return fmt.Errorf("player change without id")
		}
		n = c.Delete("players", "player:"+ev.ID)
		n += c.DeletePrefix("player:" + ev.ID + ":")
	case db.ChangeSchema:
		n = c.Delete("schema")
	default:
		return fmt.Errorf("unknown change kind %q", ev.Kind)
	}

	logger.Debug("Cache invalidated", "kind", ev.Kind, "id", ev.ID, "keys", n)
	return nil
}
