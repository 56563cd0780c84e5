// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration applies the database schema with golang-migrate.
//
// # Sources
//
// The server carries its migrations embedded (see package data). A directory
// on disk can replace them through MIGRATION_PATH, which is how a schema fix
// is tried without a rebuild. Both go through the io/fs source driver.
package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/daviddhdev/kometa/data"
)

// Source opens the migration files in dir, or the embedded set when dir is empty.
func Source(dir string) (source.Driver, error) {
	var (
		fsys fs.FS = data.Migrations
		root       = "migrations"
	)
	if dir != "" {
		fsys, root = os.DirFS(dir), "."
	}

	driver, err := iofs.New(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("migration: open source %q: %w", dir, err)
	}
	return driver, nil
}

/*
RunUp applies all pending UP migrations.

Description: A database left dirty by an interrupted run is reported and
nothing is applied; fixing it needs an operator.
*/
func RunUp(dsn string, migrationsPath string, logger *slog.Logger) error {
	sourceDriver, err := Source(migrationsPath)
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", sourceDriver, ToPgx5DSN(dsn))
	if err != nil {
		return fmt.Errorf("migration: failed to initialize: %w", err)
	}
	defer func() {
		sourceError, dbError := migrator.Close()
		if err := errors.Join(sourceError, dbError); err != nil {
			logger.Error("migration_close_failed", slog.Any("error", err))
		}
	}()

	migrator.Log = &migrateLogger{logger: logger}

	fromVersion, isDirty, err := migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fromVersion = 0
	case err != nil:
		return fmt.Errorf("migration: failed to get current version: %w", err)
	case isDirty:
		return fmt.Errorf("migration: database is dirty at version %d", fromVersion)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("migration_up_to_date", slog.Uint64("version", uint64(fromVersion)))
			return nil
		}
		return fmt.Errorf("migration: up failed: %w", err)
	}

	toVersion, _, _ := migrator.Version()
	logger.Info("migration_applied",
		slog.Uint64("from_version", uint64(fromVersion)),
		slog.Uint64("to_version", uint64(toVersion)),
		slog.Bool("embedded", migrationsPath == ""),
	)
	return nil
}

// ToPgx5DSN rewrites postgres:// and postgresql:// URLs to the pgx5:// scheme
// the golang-migrate pgx/v5 driver registers. Other inputs are returned as is.
func ToPgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, found := strings.CutPrefix(dsn, prefix); found {
			return "pgx5://" + rest
		}
	}
	return dsn
}

// migrateLogger forwards golang-migrate's progress lines to slog at debug level.
type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *migrateLogger) Verbose() bool { return false }
