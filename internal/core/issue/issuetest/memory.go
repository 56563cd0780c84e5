// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package issuetest provides an in-memory issue store for tests.
package issuetest

import (
	"context"
	"errors"
	"sync"

	"github.com/daviddhdev/kometa/internal/core/issue"
	"github.com/daviddhdev/kometa/internal/platform/apperr"
)

// MemoryStore implements [issue.Store] over a map guarded by a mutex.
type MemoryStore struct {
	mu       sync.Mutex
	issues   map[int]issue.Issue
	setCalls int

	// FailSetRead makes the next n SetRead calls fail.
	FailSetRead int
}

// NewMemoryStore creates a store holding the given issues.
func NewMemoryStore(issues ...issue.Issue) *MemoryStore {
	store := &MemoryStore{issues: make(map[int]issue.Issue, len(issues))}
	for _, record := range issues {
		store.issues[record.ID] = record
	}
	return store
}

// FindByID implements [issue.Store].
func (store *MemoryStore) FindByID(_ context.Context, id int) (*issue.Issue, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	record, found := store.issues[id]
	if !found {
		return nil, apperr.NotFound("Issue")
	}
	return &record, nil
}

// SetRead implements [issue.Store].
func (store *MemoryStore) SetRead(_ context.Context, id int, isRead bool) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.setCalls++
	if store.FailSetRead > 0 {
		store.FailSetRead--
		return apperr.Internal(errors.New("issuetest: injected failure"))
	}

	record, found := store.issues[id]
	if !found {
		return apperr.NotFound("Issue")
	}
	record.IsRead = isRead
	store.issues[id] = record
	return nil
}

// SetReadCalls returns how many times SetRead was invoked.
func (store *MemoryStore) SetReadCalls() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.setCalls
}
