// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pgtest provides a migrated PostgreSQL pool for store tests.
//
// Tests using it are skipped unless KOMETA_TEST_DATABASE_URL points at a
// disposable database.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daviddhdev/kometa/internal/platform/logging"
	"github.com/daviddhdev/kometa/internal/platform/migration"
	"github.com/daviddhdev/kometa/internal/platform/postgres"
)

// EnvDatabaseURL names the variable holding the test database DSN.
const EnvDatabaseURL = "KOMETA_TEST_DATABASE_URL"

// Pool returns a pool on a freshly migrated and emptied schema.
func Pool(t testing.TB) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(EnvDatabaseURL)
	if dsn == "" {
		t.Skipf("%s not set", EnvDatabaseURL)
	}

	if err := migration.RunUp(dsn, "", logging.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := postgres.NewPool(context.Background(), dsn, postgres.Options{
		MaxConns:         4,
		StatementTimeout: 15 * time.Second,
	}, logging.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(context.Background(), `TRUNCATE issues RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

// InsertIssue creates an issue row and returns its id.
func InsertIssue(t testing.TB, pool *pgxpool.Pool, number int, title, filePath string) int {
	t.Helper()

	var id int
	err := pool.QueryRow(context.Background(),
		`INSERT INTO issues (issue_number, title, file_path) VALUES ($1, $2, $3) RETURNING id`,
		number, title, filePath,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert issue: %v", err)
	}
	return id
}
