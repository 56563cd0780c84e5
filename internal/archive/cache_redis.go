// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package archive

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/daviddhdev/kometa/internal/platform/constants"
)

// RedisIndexCache shares derived indexes between server instances.
//
// Values are JSON encoded [redisDocument]s. The stored modification time and
// size are compared against the key on read, so stale documents are misses.
type RedisIndexCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// redisDocumentVersion changes whenever the stored layout does. Documents of
// any other version are misses.
const redisDocumentVersion = 2

// redisDocument is the stored form of an [Index]. Paths and entry names are
// raw bytes because zip names are not always UTF-8, and JSON strings would
// replace the invalid bytes.
type redisDocument struct {
	Version int         `json:"v"`
	Path    []byte      `json:"path"`
	ModTime time.Time   `json:"mod_time"`
	Size    int64       `json:"size"`
	Pages   []redisPage `json:"pages"`
}

type redisPage struct {
	Name     []byte `json:"name"`
	Position int    `json:"position"`
	Size     uint64 `json:"size"`
	CRC32    uint32 `json:"crc32"`
}

func newRedisDocument(index *Index) redisDocument {
	pages := make([]redisPage, len(index.Pages))
	for i, entry := range index.Pages {
		pages[i] = redisPage{
			Name:     []byte(entry.EntryName),
			Position: entry.Position,
			Size:     entry.Size,
			CRC32:    entry.CRC32,
		}
	}
	return redisDocument{
		Version: redisDocumentVersion,
		Path:    []byte(index.Path),
		ModTime: index.ModTime,
		Size:    index.Size,
		Pages:   pages,
	}
}

func (document redisDocument) index() *Index {
	pages := make([]PageEntry, len(document.Pages))
	for i, page := range document.Pages {
		pages[i] = PageEntry{
			EntryName:     string(page.Name),
			SequenceIndex: i,
			Position:      page.Position,
			Size:          page.Size,
			CRC32:         page.CRC32,
		}
	}
	return &Index{
		Path:    string(document.Path),
		ModTime: document.ModTime,
		Size:    document.Size,
		Pages:   pages,
	}
}

// NewRedisIndexCache creates a cache backed by client.
func NewRedisIndexCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisIndexCache {
	return &RedisIndexCache{client: client, ttl: ttl, logger: logger}
}

// RedisKey returns the Redis key an archive path is stored under.
func RedisKey(archivePath string) string {
	sum := sha1.Sum([]byte(archivePath))
	return constants.RedisPrefixArchiveIndex + hex.EncodeToString(sum[:])
}

// Get loads and version-checks the stored index.
func (cache *RedisIndexCache) Get(ctx context.Context, key CacheKey) (*Index, bool) {
	payload, err := cache.client.Get(ctx, RedisKey(key.Path)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cache.logger.WarnContext(ctx, "archive_index_cache_get_failed",
				slog.String("path", key.Path), slog.Any("error", err))
		}
		return nil, false
	}

	var document redisDocument
	if err := json.Unmarshal(payload, &document); err != nil {
		cache.logger.WarnContext(ctx, "archive_index_cache_corrupt",
			slog.String("path", key.Path), slog.Any("error", err))
		return nil, false
	}
	if document.Version != redisDocumentVersion {
		return nil, false
	}

	index := document.index()
	if index.Path != key.Path || !key.matches(index) {
		return nil, false
	}
	return index, true
}

// Put stores the index with the configured TTL.
func (cache *RedisIndexCache) Put(ctx context.Context, key CacheKey, index *Index) {
	payload, err := json.Marshal(newRedisDocument(index))
	if err != nil {
		cache.logger.WarnContext(ctx, "archive_index_cache_encode_failed",
			slog.String("path", key.Path), slog.Any("error", err))
		return
	}

	if err := cache.client.Set(ctx, RedisKey(key.Path), payload, cache.ttl).Err(); err != nil {
		cache.logger.WarnContext(ctx, "archive_index_cache_put_failed",
			slog.String("path", key.Path), slog.Any("error", err))
	}
}
