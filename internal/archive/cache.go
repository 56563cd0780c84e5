// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package archive

import (
	"context"
	"sync"
	"time"
)

// CacheKey identifies one version of an archive on disk.
type CacheKey struct {
	Path    string
	ModTime time.Time
	Size    int64
}

func (key CacheKey) matches(index *Index) bool {
	return index.ModTime.Equal(key.ModTime) && index.Size == key.Size
}

// IndexCache memoises derived indexes. Implementations must treat a version
// mismatch as a miss, and cache failures must never fail a read.
type IndexCache interface {
	Get(ctx context.Context, key CacheKey) (*Index, bool)
	Put(ctx context.Context, key CacheKey, index *Index)
}

type noCache struct{}

func (noCache) Get(context.Context, CacheKey) (*Index, bool) { return nil, false }
func (noCache) Put(context.Context, CacheKey, *Index)        {}

// # In-Process Cache

type memoryEntry struct {
	index     *Index
	expiresAt time.Time
}

// MemoryIndexCache is a bounded, TTL-limited in-process [IndexCache].
type MemoryIndexCache struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryIndexCache creates the cache and starts its expiry sweeper, which
// stops when ctx is cancelled.
func NewMemoryIndexCache(ctx context.Context, capacity int, ttl time.Duration) *MemoryIndexCache {
	cache := &MemoryIndexCache{
		entries:  make(map[string]memoryEntry, capacity),
		capacity: max(capacity, 1),
		ttl:      ttl,
		now:      time.Now,
	}

	go func() {
		ticker := time.NewTicker(max(ttl/4, time.Minute))
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cache.sweep()
			case <-ctx.Done():
				return
			}
		}
	}()

	return cache
}

// Get returns the index when the stored version matches key and has not expired.
func (cache *MemoryIndexCache) Get(_ context.Context, key CacheKey) (*Index, bool) {
	cache.mu.RLock()
	entry, found := cache.entries[key.Path]
	cache.mu.RUnlock()

	if !found || !key.matches(entry.index) || cache.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.index, true
}

// Put stores index, evicting the entry closest to expiry when full.
func (cache *MemoryIndexCache) Put(_ context.Context, key CacheKey, index *Index) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if _, exists := cache.entries[key.Path]; !exists && len(cache.entries) >= cache.capacity {
		cache.evictOldestLocked()
	}

	cache.entries[key.Path] = memoryEntry{index: index, expiresAt: cache.now().Add(cache.ttl)}
}

// Len returns the number of stored indexes.
func (cache *MemoryIndexCache) Len() int {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	return len(cache.entries)
}

func (cache *MemoryIndexCache) evictOldestLocked() {
	var (
		oldestPath string
		oldestAt   time.Time
	)
	for path, entry := range cache.entries {
		if oldestPath == "" || entry.expiresAt.Before(oldestAt) {
			oldestPath, oldestAt = path, entry.expiresAt
		}
	}
	delete(cache.entries, oldestPath)
}

func (cache *MemoryIndexCache) sweep() {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	now := cache.now()
	for path, entry := range cache.entries {
		if now.After(entry.expiresAt) {
			delete(cache.entries, path)
		}
	}
}
