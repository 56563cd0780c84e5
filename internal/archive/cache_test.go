// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package archive_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddhdev/kometa/internal/archive"
	"github.com/daviddhdev/kometa/internal/archive/archivetest"
	"github.com/daviddhdev/kometa/internal/platform/logging"
)

// countingCache records how often the reader had to index from disk.
type countingCache struct {
	archive.IndexCache
	puts int
}

func (cache *countingCache) Put(ctx context.Context, key archive.CacheKey, index *archive.Index) {
	cache.puts++
	cache.IndexCache.Put(ctx, key, index)
}

func newCaches(t *testing.T) map[string]archive.IndexCache {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]archive.IndexCache{
		"memory": archive.NewMemoryIndexCache(ctx, 8, time.Hour),
		"redis":  archive.NewRedisIndexCache(client, time.Hour, logging.Nop()),
	}
}

func TestIndexCache_HitAndInvalidateOnModTime(t *testing.T) {
	for name, backing := range newCaches(t) {
		t.Run(name, func(t *testing.T) {
			archivePath := archivetest.WriteCBZ(t, t.TempDir(), "issue.cbz", archivetest.Files("p1.jpg", "p2.jpg")...)
			cache := &countingCache{IndexCache: backing}
			reader := archive.NewReader(cache, logging.Nop())
			ctx := context.Background()

			first, err := reader.Index(ctx, archivePath)
			require.NoError(t, err)
			second, err := reader.Index(ctx, archivePath)
			require.NoError(t, err)

			assert.Equal(t, 1, cache.puts)
			assert.Equal(t, first.Pages, second.Pages)

			// Rewriting the archive with a new modification time re-indexes it.
			dir := t.TempDir()
			rewritten := archivetest.WriteCBZ(t, dir, "issue.cbz", archivetest.Files("p1.jpg", "p2.jpg", "p3.jpg")...)
			data, err := os.ReadFile(rewritten)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(archivePath, data, 0o600))
			later := time.Now().Add(time.Hour)
			require.NoError(t, os.Chtimes(archivePath, later, later))

			third, err := reader.Index(ctx, archivePath)
			require.NoError(t, err)

			assert.Equal(t, 2, cache.puts)
			assert.Equal(t, 3, third.Len())
		})
	}
}

func TestMemoryIndexCache_BoundedSize(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := archive.NewMemoryIndexCache(ctx, 2, time.Hour)
	for _, path := range []string{"a.cbz", "b.cbz", "c.cbz"} {
		key := archive.CacheKey{Path: path}
		cache.Put(ctx, key, &archive.Index{Path: path})
	}

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get(ctx, archive.CacheKey{Path: "c.cbz"})
	assert.True(t, ok)
}

func TestRedisIndexCache_MissOnForeignDocument(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	cache := archive.NewRedisIndexCache(client, time.Hour, logging.Nop())
	ctx := context.Background()
	key := archive.CacheKey{Path: "/library/a.cbz", ModTime: time.Unix(100, 0), Size: 10}

	require.NoError(t, server.Set(archive.RedisKey(key.Path), "{not json"))
	_, ok := cache.Get(ctx, key)
	assert.False(t, ok)

	cache.Put(ctx, key, &archive.Index{Path: key.Path, ModTime: key.ModTime, Size: key.Size})
	_, ok = cache.Get(ctx, key)
	assert.True(t, ok)
	assert.True(t, server.TTL(archive.RedisKey(key.Path)) > 0)

	stale := key
	stale.Size = 11
	_, ok = cache.Get(ctx, stale)
	assert.False(t, ok)
}

func TestIndexCache_NonUTF8EntryNamesSurviveWarmReads(t *testing.T) {
	const legacyName = "p\x82\xa01.jpg"

	for name, backing := range newCaches(t) {
		t.Run(name, func(t *testing.T) {
			archivePath := archivetest.WriteCBZ(t, t.TempDir(), "legacy.cbz",
				archivetest.Entry{Name: legacyName, Data: []byte("legacy"), NonUTF8: true},
				archivetest.File("p2.jpg"),
			)
			cache := &countingCache{IndexCache: backing}
			reader := archive.NewReader(cache, logging.Nop())
			ctx := context.Background()

			cold, err := reader.ReadPage(ctx, archivePath, archive.ByName(legacyName))
			require.NoError(t, err)
			assert.Equal(t, "legacy", string(cold.Data))

			warmByName, err := reader.ReadPage(ctx, archivePath, archive.ByName(legacyName))
			require.NoError(t, err)
			assert.Equal(t, "legacy", string(warmByName.Data))

			warmByNumber, err := reader.ReadPage(ctx, archivePath, archive.ByNumber(1))
			require.NoError(t, err)
			assert.Equal(t, legacyName, warmByNumber.Entry.EntryName)
			assert.Equal(t, "legacy", string(warmByNumber.Data))
			assert.Equal(t, cold.ETag, warmByNumber.ETag)

			assert.Equal(t, 1, cache.puts)
		})
	}
}

func TestRedisIndexCache_MissOnOlderDocumentLayout(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	cache := archive.NewRedisIndexCache(client, time.Hour, logging.Nop())
	key := archive.CacheKey{Path: "/library/a.cbz", ModTime: time.Unix(100, 0), Size: 10}

	legacy := fmt.Sprintf(`{"path":%q,"mod_time":%q,"size":10,"pages":[]}`,
		key.Path, key.ModTime.UTC().Format(time.RFC3339Nano))
	require.NoError(t, server.Set(archive.RedisKey(key.Path), legacy))

	_, ok := cache.Get(context.Background(), key)
	assert.False(t, ok)
}

func TestRedisIndexCache_UnavailableIsMiss(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()
	server.Close()

	archivePath := archivetest.WriteCBZ(t, t.TempDir(), "issue.cbz", archivetest.Files("p1.jpg")...)
	reader := archive.NewReader(archive.NewRedisIndexCache(client, time.Hour, logging.Nop()), logging.Nop())

	index, err := reader.Index(context.Background(), archivePath)
	require.NoError(t, err)
	assert.Equal(t, 1, index.Len())
}
