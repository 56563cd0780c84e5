// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package progress

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daviddhdev/kometa/internal/platform/database/schema"
	"github.com/daviddhdev/kometa/internal/platform/dberr"
)

const resourceIssue = "Issue"

// postgresStore implements [Store] using pgx.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

// returningColumns matches the scan order of scanProgress.
var returningColumns = strings.Join(schema.ReadingProgress.Columns(), ", ")

func scanProgress(row pgx.Row) (*Progress, error) {
	var progress Progress
	err := row.Scan(
		&progress.IssueID,
		&progress.CurrentPage,
		&progress.TotalPages,
		&progress.IsCompleted,
		&progress.LastReadAt,
	)
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// FindByIssue retrieves the progress row of an issue.
func (store *postgresStore) FindByIssue(context context.Context, issueID int) (*Progress, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		returningColumns,
		schema.ReadingProgress.Table,
		schema.ReadingProgress.IssueID,
	)

	progress, err := scanProgress(store.pool.QueryRow(context, query, issueID))
	if err != nil {
		return nil, dberr.Wrap(err, "Reading progress")
	}
	return progress, nil
}

/*
Upsert writes the position with a single INSERT ... ON CONFLICT statement.

Description: The unique index on issue_id makes concurrent writers for one
issue serialize on the row lock; the triple (current, total, completed) is
always written together.
*/
func (store *postgresStore) Upsert(context context.Context, issueID, currentPage, totalPages int) (*Progress, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, %[3]s, %[4]s, %[5]s, %[6]s)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (%[2]s) DO UPDATE SET
			%[3]s = EXCLUDED.%[3]s,
			%[4]s = EXCLUDED.%[4]s,
			%[5]s = EXCLUDED.%[5]s,
			%[6]s = EXCLUDED.%[6]s
		RETURNING %[7]s
	`,
		schema.ReadingProgress.Table,
		schema.ReadingProgress.IssueID,
		schema.ReadingProgress.CurrentPage,
		schema.ReadingProgress.TotalPages,
		schema.ReadingProgress.IsCompleted,
		schema.ReadingProgress.LastReadAt,
		returningColumns,
	)

	isCompleted := currentPage == totalPages
	progress, err := scanProgress(store.pool.QueryRow(context, query, issueID, currentPage, totalPages, isCompleted))
	if err != nil {
		return nil, dberr.Wrap(err, resourceIssue)
	}
	return progress, nil
}
