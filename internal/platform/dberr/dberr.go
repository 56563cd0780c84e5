// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/daviddhdev/kometa/internal/platform/apperr"
)

// codeForeignKeyViolation is the SQLSTATE of a reference to a missing parent row.
const codeForeignKeyViolation = "23503"

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// resource names the missing entity in not-found responses (e.g. "Issue").
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	// 1. Missing row
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	// 2. A child row referenced a parent that does not exist
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation {
		return apperr.NotFound(resource)
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}
