// Command api is the Scoracle Gamelogs API server. It serves the artifacts
// written by the ingest command.
//
// Usage:
//
//	scoracle-api
//	API_PORT=8080 GAMELOG_SQLITE_PATH=data/gamelogs.db scoracle-api
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/scoracle-gamelogs/internal/api"
	"github.com/albapepper/scoracle-gamelogs/internal/api/handler"
	"github.com/albapepper/scoracle-gamelogs/internal/cache"
	"github.com/albapepper/scoracle-gamelogs/internal/config"
	"github.com/albapepper/scoracle-gamelogs/internal/db"
	"github.com/albapepper/scoracle-gamelogs/internal/listener"
	"github.com/albapepper/scoracle-gamelogs/internal/schema"
	"github.com/albapepper/scoracle-gamelogs/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Pick the artifact source: SQLite, then Postgres, then JSON files.
	var (
		players store.Reader        = store.NewFileStore(cfg.DataDir)
		schemas handler.SchemaSource = schema.NewFileLog(cfg.SchemaLog)
		pinger  handler.Pinger
	)
	if cfg.DatabaseURL != "" {
		logger.Info("Connecting to database...")
		pool, err := db.New(ctx, cfg)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
		players = db.NewGamelogStore(pool)
		schemas = db.NewSchemaLog(pool)
		pinger = pool

		// Drop cached responses when an ingestion run rewrites the mirror
		if cfg.CacheEnabled {
			go listener.Start(ctx, cfg.DatabaseURL, appCache, logger)
		}
	}
	if cfg.SQLitePath != "" {
		lite, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Error("Failed to open sqlite store", "error", err)
			os.Exit(1)
		}
		defer lite.Close()
		players = lite
	}

	// Create router
	h := handler.New(players, schemas, appCache, pinger, logger)
	router := api.NewRouter(h, cfg)

	// Create HTTP server
	addr := cfg.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Scoracle Gamelogs API",
			"addr", addr,
			"environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
