// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package issue

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daviddhdev/kometa/internal/platform/apperr"
	"github.com/daviddhdev/kometa/internal/platform/database/schema"
	"github.com/daviddhdev/kometa/internal/platform/dberr"
)

const resourceIssue = "Issue"

// postgresStore implements [Store] using pgx.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL backed issue store.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

// FindByID retrieves an issue record by its primary key.
func (store *postgresStore) FindByID(context context.Context, id int) (*Issue, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, COALESCE(%s, ''), COALESCE(%s, ''), %s
		FROM %s
		WHERE %s = $1
	`,
		schema.Issue.ID,
		schema.Issue.IssueNumber,
		schema.Issue.Title,
		schema.Issue.FilePath,
		schema.Issue.IsRead,
		schema.Issue.Table,
		schema.Issue.ID,
	)

	var issue Issue
	err := store.pool.QueryRow(context, query, id).Scan(
		&issue.ID,
		&issue.IssueNumber,
		&issue.Title,
		&issue.FilePath,
		&issue.IsRead,
	)
	if err != nil {
		return nil, dberr.Wrap(err, resourceIssue)
	}
	return &issue, nil
}

// SetRead updates the read flag; an unknown id affects no rows.
func (store *postgresStore) SetRead(context context.Context, id int, isRead bool) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		schema.Issue.Table,
		schema.Issue.IsRead,
		schema.Issue.ID,
	)

	tag, err := store.pool.Exec(context, query, id, isRead)
	if err != nil {
		return dberr.Wrap(err, resourceIssue)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resourceIssue)
	}
	return nil
}
