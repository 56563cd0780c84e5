// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres opens the PostgreSQL pool shared by the issue and
// progress stores.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daviddhdev/kometa/internal/platform/constants"
)

const (
	maxConnLifetime   = 60 * time.Minute
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = 1 * time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second
)

// Options sizes the pool. Zero values fall back to defaults suited to a
// personal library: few readers, many small queries.
type Options struct {
	MaxConns int32

	// StatementTimeout is enforced by the server on every statement.
	StatementTimeout time.Duration
}

func (options Options) withDefaults() Options {
	if options.MaxConns <= 0 {
		options.MaxConns = 10
	}
	if options.StatementTimeout <= 0 {
		options.StatementTimeout = constants.GlobalRequestTimeout
	}
	return options
}

/*
NewPool creates a pool and verifies it with a ping.

Description: The statement timeout travels as a startup parameter, so it is
set on every connection without an extra round trip.
*/
func NewPool(ctx context.Context, dsn string, options Options, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	options = options.withDefaults()
	poolConfig.MaxConns = options.MaxConns
	poolConfig.MinConns = min(2, options.MaxConns)
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout
	poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(options.StatementTimeout.Milliseconds(), 10)
	poolConfig.ConnConfig.RuntimeParams["application_name"] = constants.AppName

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres_pool_connected",
		slog.String("host", poolConfig.ConnConfig.Host),
		slog.String("database", poolConfig.ConnConfig.Database),
		slog.Int("max_conns", int(options.MaxConns)),
		slog.Duration("statement_timeout", options.StatementTimeout),
	)
	return pool, nil
}

// Ping verifies that the pool can reach the server.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}
	return nil
}
