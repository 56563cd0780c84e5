// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package archive reads zip-based comic archives (CBZ).

# Architecture

An archive is never modified here. Its page order is derived on demand from the
entry names and is never persisted: only image entries are kept, ordered by the
integer value of the first run of digits in the entry name, with ties kept in
archive order. The derived [Index] may be memoised by an [IndexCache] keyed by
path and modification time.
*/
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"math"
	"os"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// # Errors

var (
	// ErrArchiveUnreadable is returned when the archive is missing, corrupt or not a zip.
	ErrArchiveUnreadable = errors.New("archive unreadable")

	// ErrPageNotFound is returned when a page selector matches no image entry.
	ErrPageNotFound = errors.New("page not found")
)

var (
	imagePattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif)$`)
	digitRun     = regexp.MustCompile(`\d+`)
)

// # Page Entries

// PageEntry is one image inside an archive.
//
// EntryName holds the raw name bytes from the zip directory, which need not be
// valid UTF-8. Position is the entry's place in that directory, so archives
// holding the same name twice still read the bytes the entry describes.
type PageEntry struct {
	EntryName     string
	SequenceIndex int
	Position      int
	Size          uint64
	CRC32         uint32
}

// PageNumber is the 1-based position of the entry in reading order.
func (entry PageEntry) PageNumber() int {
	return entry.SequenceIndex + 1
}

// ContentType reports the MIME type served for the entry.
func (entry PageEntry) ContentType() string {
	return ContentType(entry.EntryName)
}

// ContentType maps an entry name to the MIME type pages are served with.
func ContentType(entryName string) string {
	switch strings.ToLower(path.Ext(entryName)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// IsImage reports whether an entry name is a page image.
func IsImage(entryName string) bool {
	return imagePattern.MatchString(entryName)
}

// SortKey is the integer value of the first digit run in name, or 0 when there
// is none. Values too large for uint64 saturate.
func SortKey(name string) uint64 {
	run := digitRun.FindString(name)
	if run == "" {
		return 0
	}

	value, err := strconv.ParseUint(run, 10, 64)
	if err != nil {
		return math.MaxUint64
	}
	return value
}

// # Index

// Index is the ordered page list of one archive at one modification time.
type Index struct {
	Path    string
	ModTime time.Time
	Size    int64
	Pages   []PageEntry
}

// Len returns the number of pages.
func (index *Index) Len() int {
	return len(index.Pages)
}

// Page returns the entry for a 1-based page number.
func (index *Index) Page(number int) (PageEntry, error) {
	if number < 1 || number > len(index.Pages) {
		return PageEntry{}, fmt.Errorf("%w: page %d of %d", ErrPageNotFound, number, len(index.Pages))
	}
	return index.Pages[number-1], nil
}

// Lookup returns the entry with the given name. Names that are not image
// entries of this archive never resolve.
func (index *Index) Lookup(entryName string) (PageEntry, error) {
	for _, entry := range index.Pages {
		if entry.EntryName == entryName {
			return entry, nil
		}
	}
	return PageEntry{}, fmt.Errorf("%w: %q", ErrPageNotFound, entryName)
}

// ETag identifies the bytes of one page for conditional requests.
func (index *Index) ETag(entry PageEntry) string {
	return fmt.Sprintf(`"%x-%x-%08x"`, index.ModTime.UnixNano(), entry.Size, entry.CRC32)
}

// BuildIndex filters and orders the entries of an opened zip.
func BuildIndex(files []*zip.File) []PageEntry {
	type candidate struct {
		file     *zip.File
		position int
		key      uint64
	}

	candidates := make([]candidate, 0, len(files))
	for position, file := range files {
		if file.FileInfo().IsDir() || !IsImage(file.Name) {
			continue
		}
		candidates = append(candidates, candidate{file: file, position: position, key: SortKey(file.Name)})
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		default:
			return 0
		}
	})

	pages := make([]PageEntry, len(candidates))
	for i, c := range candidates {
		pages[i] = PageEntry{
			EntryName:     c.file.Name,
			SequenceIndex: i,
			Position:      c.position,
			Size:          c.file.UncompressedSize64,
			CRC32:         c.file.CRC32,
		}
	}
	return pages
}

// stat identifies the archive version on disk.
func stat(archivePath string) (os.FileInfo, error) {
	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveUnreadable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrArchiveUnreadable, archivePath)
	}
	return info, nil
}

// readIndex opens the archive and derives its index without any caching.
func readIndex(archivePath string, info os.FileInfo) (*Index, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveUnreadable, err)
	}
	defer reader.Close()

	return &Index{
		Path:    archivePath,
		ModTime: info.ModTime(),
		Size:    info.Size(),
		Pages:   BuildIndex(reader.File),
	}, nil
}
