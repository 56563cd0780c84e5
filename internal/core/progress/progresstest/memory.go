// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package progresstest provides an in-memory progress store for tests.
package progresstest

import (
	"context"
	"sync"
	"time"

	"github.com/daviddhdev/kometa/internal/core/progress"
	"github.com/daviddhdev/kometa/internal/platform/apperr"
)

// MemoryStore implements [progress.Store] over a map guarded by a mutex.
type MemoryStore struct {
	mu     sync.Mutex
	known  map[int]bool
	rows   map[int]progress.Progress
	writes int
	Now    func() time.Time
}

// NewMemoryStore creates a store that accepts writes only for the given issues.
func NewMemoryStore(issueIDs ...int) *MemoryStore {
	known := make(map[int]bool, len(issueIDs))
	for _, id := range issueIDs {
		known[id] = true
	}
	return &MemoryStore{known: known, rows: make(map[int]progress.Progress), Now: time.Now}
}

// FindByIssue implements [progress.Store].
func (store *MemoryStore) FindByIssue(_ context.Context, issueID int) (*progress.Progress, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	row, found := store.rows[issueID]
	if !found {
		return nil, apperr.NotFound("Reading progress")
	}
	return &row, nil
}

// Upsert implements [progress.Store].
func (store *MemoryStore) Upsert(_ context.Context, issueID, currentPage, totalPages int) (*progress.Progress, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if !store.known[issueID] {
		return nil, apperr.NotFound("Issue")
	}

	now := store.Now()
	row := progress.Progress{
		IssueID:     issueID,
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		IsCompleted: currentPage == totalPages,
		LastReadAt:  &now,
	}
	store.rows[issueID] = row
	store.writes++
	return &row, nil
}

// Rows returns the number of stored rows.
func (store *MemoryStore) Rows() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.rows)
}

// Writes returns the number of successful upserts.
func (store *MemoryStore) Writes() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.writes
}
