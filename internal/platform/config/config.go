// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Once loaded, configuration is read-only and passed to components via constructors.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Kometa API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath overrides the embedded migrations with a directory on disk.
	MigrationPath string `env:"MIGRATION_PATH"`

	// Connection pool sizing and the per-statement server-side timeout.
	DatabaseMaxConns         int32         `env:"DATABASE_MAX_CONNS"         envDefault:"10"`
	DatabaseStatementTimeout time.Duration `env:"DATABASE_STATEMENT_TIMEOUT" envDefault:"30s"`

	// RedisURL enables the shared archive index cache. Empty keeps the cache in-process.
	RedisURL string `env:"REDIS_URL"`

	// JWTSecret verifies the HS256 session tokens issued by the login flow.
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// LibraryRoot anchors relative archive paths stored on issues.
	LibraryRoot string `env:"LIBRARY_ROOT" envDefault:"."`

	// Archive index memoisation
	IndexCacheTTL  time.Duration `env:"INDEX_CACHE_TTL"  envDefault:"24h"`
	IndexCacheSize int           `env:"INDEX_CACHE_SIZE" envDefault:"256"`

	// MaxPageBytes caps the uncompressed size of a single served page.
	MaxPageBytes int64 `env:"MAX_PAGE_BYTES" envDefault:"67108864"`

	// Cross-Origin Resource Sharing (comma-separated)
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	// Optional rotating log file
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB"  envDefault:"50"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS"  envDefault:"3"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.DatabaseMaxConns < 1 {
		return nil, fmt.Errorf("config: DATABASE_MAX_CONNS must be positive, got %d", cfg.DatabaseMaxConns)
	}

	if cfg.IndexCacheSize < 1 {
		return nil, fmt.Errorf("config: INDEX_CACHE_SIZE must be positive, got %d", cfg.IndexCacheSize)
	}

	if cfg.MaxPageBytes < 1 {
		return nil, fmt.Errorf("config: MAX_PAGE_BYTES must be positive, got %d", cfg.MaxPageBytes)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the trimmed, non-empty entries of EXTRA_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
