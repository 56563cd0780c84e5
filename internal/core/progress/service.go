// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package progress

import (
	"context"
	"log/slog"

	"github.com/daviddhdev/kometa/internal/platform/apperr"
	"github.com/daviddhdev/kometa/internal/platform/validate"
)

const (
	FieldCurrentPage = "current_page"
	FieldTotalPages  = "total_pages"
)

// # Service Layer

// Service applies the reading progress rules on top of a [Store].
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService constructs a new [Service].
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

/*
Get returns the stored position, or [Default] when the issue has none.

Description: Reading never creates a row.
*/
func (service *Service) Get(context context.Context, issueID int) (*Progress, error) {
	progress, err := service.store.FindByIssue(context, issueID)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return Default(issueID), nil
	}
	if err != nil {
		return nil, err
	}
	return progress, nil
}

/*
Save records the current position of an issue.

Description: Both numbers must be at least 1. A current page beyond the total
is accepted as-is; positions are not monotonic, so moving back overwrites a
later page and clears completion.

Returns:
  - *Progress: The row as stored
  - error: VALIDATION_ERROR, or NOT_FOUND when the issue does not exist
*/
func (service *Service) Save(context context.Context, issueID, currentPage, totalPages int) (*Progress, error) {
	validator := &validate.Validator{}
	validator.
		Min(FieldCurrentPage, currentPage, 1).
		Min(FieldTotalPages, totalPages, 1)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	progress, err := service.store.Upsert(context, issueID, currentPage, totalPages)
	if err != nil {
		return nil, err
	}

	service.logger.DebugContext(context, "progress_upserted",
		slog.Int("issue_id", issueID),
		slog.Int("current_page", progress.CurrentPage),
		slog.Int("total_pages", progress.TotalPages),
		slog.Bool("is_completed", progress.IsCompleted),
	)
	return progress, nil
}
