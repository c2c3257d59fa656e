// Package handler provides HTTP handlers for all API endpoints.
// Handlers read persisted game log artifacts through a store.Reader and the
// schema log; responses are cached in memory with weak ETags.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/albapepper/scoracle-gamelogs/internal/api/respond"
	"github.com/albapepper/scoracle-gamelogs/internal/cache"
	"github.com/albapepper/scoracle-gamelogs/internal/schema"
	"github.com/albapepper/scoracle-gamelogs/internal/store"
)

// SchemaSource loads the persisted schema registry.
type SchemaSource interface {
	Load(ctx context.Context) ([]schema.Entry, error)
}

// Pinger reports database health. *db.Pool satisfies it.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	players store.Reader
	schemas SchemaSource
	cache   *cache.Cache
	db      Pinger // nil when no database is configured
	logger  *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(players store.Reader, schemas SchemaSource, c *cache.Cache, db Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		players: players,
		schemas: schemas,
		cache:   c,
		db:      db,
		logger:  logger,
	}
}

// errNotFound lets builders signal a 404 with a message.
type errNotFound struct{ msg string }

func (e errNotFound) Error() string { return e.msg }

// serveCached answers from the cache when possible, otherwise builds the
// response value, caches its JSON encoding and writes it.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration,
	build func(ctx context.Context) (interface{}, error)) {

	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	v, err := build(r.Context())
	if err != nil {
		var nf errNotFound
		switch {
		case errors.As(err, &nf):
			respond.WriteError(w, http.StatusNotFound, respond.CodeNotFound, nf.msg)
		case errors.Is(err, store.ErrNotFound):
			respond.WriteError(w, http.StatusNotFound, respond.CodeNotFound, "Player not found")
		default:
			h.logger.Error("Request failed", "path", r.URL.Path, "error", err)
			respond.WriteError(w, http.StatusServiceUnavailable, respond.CodeStoreFailure, "Failed to read artifacts")
		}
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, respond.CodeInternal, "Failed to encode response")
		return
	}
	etag := h.cache.Set(key, data, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Scoracle Gamelogs API",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": []string{
			"/api/v1/players",
			"/api/v1/players/{id}",
			"/api/v1/players/{id}/years/{year}",
			"/api/v1/schema",
		},
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"database":  "disabled",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	if err := h.db.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
