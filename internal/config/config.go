// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Source site
	BaseURL           string        `env:"GAMELOG_BASE_URL" envDefault:"https://www.pro-football-reference.com"`
	UserAgent         string        `env:"GAMELOG_USER_AGENT" envDefault:"scoracle-gamelogs/1.0"`
	RequestTimeout    time.Duration `env:"GAMELOG_REQUEST_TIMEOUT" envDefault:"30s"`
	RequestsPerMinute int           `env:"GAMELOG_REQUESTS_PER_MINUTE" envDefault:"0"`
	HTTPRetries       int           `env:"GAMELOG_HTTP_RETRIES" envDefault:"2"`

	// Ingestion run
	StartYear     int               `env:"GAMELOG_START_YEAR" envDefault:"2010"`
	EndYear       int               `env:"GAMELOG_END_YEAR" envDefault:"2024"`
	SeedYear      int               `env:"GAMELOG_SEED_YEAR" envDefault:"0"` // 0 = StartYear
	SeedPositions []string          `env:"GAMELOG_SEED_POSITIONS" envDefault:"QB,RB,WR,TE" envSeparator:","`
	MaxWorkers    int               `env:"GAMELOG_MAX_WORKERS" envDefault:"8"`
	RequestDelay  time.Duration     `env:"GAMELOG_REQUEST_DELAY" envDefault:"1s"`
	MaxAttempts   int               `env:"GAMELOG_MAX_ATTEMPTS" envDefault:"1"`
	ScoringKeys   map[string]string `env:"GAMELOG_SCORING_KEYS" envKeyValSeparator:"="`

	// Artifacts
	DataDir      string `env:"GAMELOG_DATA_DIR" envDefault:"data"`
	SchemaLog    string `env:"GAMELOG_SCHEMA_LOG" envDefault:"data/table_metadata.txt"`
	ResumeSchema bool   `env:"GAMELOG_RESUME_SCHEMA" envDefault:"false"`
	SQLitePath   string `env:"GAMELOG_SQLITE_PATH"`

	// Database (optional Postgres mirror)
	DatabaseURL    string        `env:"DATABASE_URL"`
	DBPoolMinConns int           `env:"DB_POOL_MIN_CONNS" envDefault:"2"`
	DBPoolMaxConns int           `env:"DB_POOL_MAX_CONNS" envDefault:"10"`
	DBPoolMaxLife  time.Duration `env:"DB_POOL_MAX_LIFE" envDefault:"30m"`

	// API server
	APIHost     string `env:"API_HOST" envDefault:"0.0.0.0"`
	APIPort     int    `env:"API_PORT" envDefault:"8000"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	Debug       bool   `env:"DEBUG" envDefault:"false"`

	// CORS
	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:3000,http://localhost:4321,http://localhost:5173" envSeparator:","`

	// Rate limiting
	RateLimitEnabled  bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`

	// Cache
	CacheEnabled bool `env:"CACHE_ENABLED" envDefault:"true"`
}

// Load reads configuration from environment variables with sensible defaults
// and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	cfg.SeedPositions = normalizePositions(cfg.SeedPositions)
	cfg.CORSAllowOrigins = trimAll(cfg.CORSAllowOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks settings that would make a run meaningless. It is called
// again by the CLI after flag overrides.
func (c *Config) Validate() error {
	var errs []error
	if c.StartYear <= 0 || c.EndYear <= 0 {
		errs = append(errs, fmt.Errorf("year range must be positive, got %d-%d", c.StartYear, c.EndYear))
	}
	if c.StartYear > c.EndYear {
		errs = append(errs, fmt.Errorf("start year %d is after end year %d", c.StartYear, c.EndYear))
	}
	if c.SeedYear < 0 {
		errs = append(errs, fmt.Errorf("seed year must not be negative"))
	}
	if len(c.SeedPositions) == 0 {
		errs = append(errs, errors.New("at least one seed position is required"))
	}
	if c.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("max workers must be at least 1, got %d", c.MaxWorkers))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts))
	}
	if c.RequestDelay < 0 {
		errs = append(errs, errors.New("request delay must not be negative"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data dir is required"))
	}
	return errors.Join(errs...)
}

// EffectiveSeedYear is the season seeding samples from.
func (c *Config) EffectiveSeedYear() int {
	if c.SeedYear > 0 {
		return c.SeedYear
	}
	return c.StartYear
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Addr is the API listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

func normalizePositions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range trimAll(in) {
		out = append(out, strings.ToUpper(p))
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
