// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Kometa HTTP API server.
//
// # Startup Sequence
//
//  1. Load configuration from environment variables.
//  2. Initialize structured logger (stdout, optional rotating file).
//  3. Run database migrations (idempotent).
//  4. Connect to PostgreSQL (pgxpool).
//  5. Connect to Redis when REDIS_URL is set.
//  6. Wire the archive reader, stores, services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/daviddhdev/kometa/internal/api"
	"github.com/daviddhdev/kometa/internal/archive"
	"github.com/daviddhdev/kometa/internal/core/issue"
	"github.com/daviddhdev/kometa/internal/core/progress"
	"github.com/daviddhdev/kometa/internal/platform/config"
	"github.com/daviddhdev/kometa/internal/platform/constants"
	"github.com/daviddhdev/kometa/internal/platform/logging"
	"github.com/daviddhdev/kometa/internal/platform/migration"
	pgstore "github.com/daviddhdev/kometa/internal/platform/postgres"
	redisstore "github.com/daviddhdev/kometa/internal/platform/redis"
	"github.com/daviddhdev/kometa/internal/platform/sec"
)

func main() {
	// ── 1. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		// The logger depends on configuration, so fall back to the default handler.
		slog.Error("startup failure", slog.String("context", "load configuration"), slog.Any("error", err))
		os.Exit(1)
	}

	// ── 2. Logger ─────────────────────────────────────────────────────────
	log, logCloser := logging.New(logging.Options{
		Debug:      cfg.Debug,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer logCloser.Close()
	slog.SetDefault(log)

	log.Info("service_initializing",
		slog.String("version", constants.AppVersion),
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for background workers (rate limiter sweep, index cache sweep).
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup deadline so misconfiguration is caught quickly.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 4. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, pgstore.Options{
		MaxConns:         cfg.DatabaseMaxConns,
		StatementTimeout: cfg.DatabaseStatementTimeout,
	}, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 5. Redis (optional) ───────────────────────────────────────────────
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
	}

	// ── 6. Archive reader ─────────────────────────────────────────────────
	var indexCache archive.IndexCache
	if rdb != nil {
		indexCache = archive.NewRedisIndexCache(rdb, cfg.IndexCacheTTL, log)
	} else {
		indexCache = archive.NewMemoryIndexCache(rootCtx, cfg.IndexCacheSize, cfg.IndexCacheTTL)
	}
	pages := archive.NewReader(indexCache, log, archive.WithMaxPageBytes(cfg.MaxPageBytes))

	// ── 7. Token verification ─────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTSecret)
	must(log, err, "initialize jwt service")

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	deps := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
	}
	if rdb != nil {
		deps.CheckCache = func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		}
	}
	liveness, readiness := api.NewHealthHandlers(deps, log)

	// ── 9. Domain wiring ──────────────────────────────────────────────────
	issueService := issue.NewService(issue.NewPostgresStore(pool), pages, cfg.LibraryRoot, log)
	progressService := progress.NewService(progress.NewPostgresStore(pool), log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Issue:     issue.NewHandler(issueService),
		Progress:  progress.NewHandler(progressService),
	}

	server := api.NewServer(rootCtx, cfg, log, tokens, handlers)

	// ── 10. Graceful shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	log.Info("shutting down server", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
