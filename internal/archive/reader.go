// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/daviddhdev/kometa/internal/platform/constants"
)

// Selector addresses a page either by 1-based number or by raw entry name.
type Selector struct {
	Number    int
	EntryName string
}

// ByNumber selects a page by its 1-based position.
func ByNumber(number int) Selector {
	return Selector{Number: number}
}

// ByName selects a page by its entry name inside the archive.
func ByName(entryName string) Selector {
	return Selector{EntryName: entryName}
}

// Page is a resolved page and its bytes.
type Page struct {
	Entry   PageEntry
	Data    []byte
	ModTime time.Time
	ETag    string
}

// ContentType reports the MIME type of the page.
func (page *Page) ContentType() string {
	return page.Entry.ContentType()
}

// Reader derives page indexes and reads page bytes. It is safe for concurrent use.
type Reader struct {
	cache        IndexCache
	logger       *slog.Logger
	maxPageBytes int64
}

// Option configures a [Reader].
type Option func(*Reader)

// WithMaxPageBytes caps the uncompressed size of a single page. Values below
// one keep the default.
func WithMaxPageBytes(limit int64) Option {
	return func(reader *Reader) {
		if limit > 0 {
			reader.maxPageBytes = limit
		}
	}
}

// NewReader creates a Reader. A nil cache disables memoisation.
func NewReader(cache IndexCache, logger *slog.Logger, options ...Option) *Reader {
	if cache == nil {
		cache = noCache{}
	}
	reader := &Reader{cache: cache, logger: logger, maxPageBytes: constants.DefaultMaxPageBytes}
	for _, option := range options {
		option(reader)
	}
	return reader
}

/*
Index returns the ordered pages of the archive at archivePath.

Description: The archive is stat'ed first; the (path, modification time, size)
triple is the cache key, so a rewritten archive is indexed again.

Errors:
  - [ErrArchiveUnreadable] when the file is missing, a directory or not a zip.
*/
func (reader *Reader) Index(ctx context.Context, archivePath string) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := stat(archivePath)
	if err != nil {
		return nil, err
	}

	key := CacheKey{Path: archivePath, ModTime: info.ModTime(), Size: info.Size()}
	if cached, ok := reader.cache.Get(ctx, key); ok {
		reader.logger.DebugContext(ctx, "archive_index_cache_hit", slog.String("path", archivePath))
		return cached, nil
	}

	startTime := time.Now()
	index, err := readIndex(archivePath, info)
	if err != nil {
		return nil, err
	}

	reader.cache.Put(ctx, key, index)
	reader.logger.DebugContext(ctx, "archive_indexed",
		slog.String("path", archivePath),
		slog.Int("pages", index.Len()),
		slog.Duration("took", time.Since(startTime)),
	)

	return index, nil
}

/*
ReadPage resolves a selector against the current index and reads the entry.

Entry names are always re-validated against the index, so a name that is not
an image page of this archive yields [ErrPageNotFound] even if such an entry
physically exists. The bytes are read from the entry's recorded position.

Errors:
  - [ErrPageNotFound] when the selector matches no page.
  - [ErrArchiveUnreadable] when the entry cannot be read or exceeds the page size limit.
*/
func (reader *Reader) ReadPage(ctx context.Context, archivePath string, selector Selector) (*Page, error) {
	index, err := reader.Index(ctx, archivePath)
	if err != nil {
		return nil, err
	}

	var entry PageEntry
	if selector.EntryName != "" {
		entry, err = index.Lookup(selector.EntryName)
	} else {
		entry, err = index.Page(selector.Number)
	}
	if err != nil {
		return nil, err
	}

	data, err := readEntry(archivePath, entry, reader.maxPageBytes)
	if err != nil {
		return nil, err
	}

	return &Page{
		Entry:   entry,
		Data:    data,
		ModTime: index.ModTime,
		ETag:    index.ETag(entry),
	}, nil
}

func readEntry(archivePath string, entry PageEntry, limit int64) ([]byte, error) {
	zipReader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveUnreadable, err)
	}
	defer zipReader.Close()

	if entry.Position < 0 || entry.Position >= len(zipReader.File) || zipReader.File[entry.Position].Name != entry.EntryName {
		return nil, fmt.Errorf("%w: %q", ErrPageNotFound, entry.EntryName)
	}

	file := zipReader.File[entry.Position]
	if file.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%w: entry %q is %d bytes, limit is %d", ErrArchiveUnreadable, entry.EntryName, file.UncompressedSize64, limit)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open entry %q: %w", ErrArchiveUnreadable, entry.EntryName, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read entry %q: %w", ErrArchiveUnreadable, entry.EntryName, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: entry %q exceeds %d bytes", ErrArchiveUnreadable, entry.EntryName, limit)
	}
	return data, nil
}
