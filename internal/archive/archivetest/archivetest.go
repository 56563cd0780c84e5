// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package archivetest builds comic archive fixtures for tests.
package archivetest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

// Entry is one file written into a fixture archive, in order. NonUTF8 stores
// the name bytes as written, without the UTF-8 flag, like legacy archivers do.
type Entry struct {
	Name    string
	Data    []byte
	NonUTF8 bool
}

// File returns an entry with the name as its content, which keeps fixture pages
// distinguishable.
func File(name string) Entry {
	return Entry{Name: name, Data: []byte("content:" + name)}
}

// Files returns one [File] per name.
func Files(names ...string) []Entry {
	entries := make([]Entry, len(names))
	for i, name := range names {
		entries[i] = File(name)
	}
	return entries
}

// WriteCBZ writes a zip archive under dir and returns its path.
func WriteCBZ(t testing.TB, dir, name string, entries ...Entry) string {
	t.Helper()

	archivePath := filepath.Join(dir, name)
	file, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer file.Close()

	writer := zip.NewWriter(file)
	for _, entry := range entries {
		entryWriter, err := writer.CreateHeader(&zip.FileHeader{
			Name:    entry.Name,
			Method:  zip.Deflate,
			NonUTF8: entry.NonUTF8,
		})
		if err != nil {
			t.Fatalf("create entry %q: %v", entry.Name, err)
		}
		if _, err := entryWriter.Write(entry.Data); err != nil {
			t.Fatalf("write entry %q: %v", entry.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	return archivePath
}
