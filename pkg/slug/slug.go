// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug turns arbitrary Unicode titles into ASCII slugs.
//
// Issue titles become download file names ("Saga #1: Été" becomes "saga-1-ete.cbz"),
// which must survive every browser's Content-Disposition handling.
package slug

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches any run of characters outside [a-z0-9].
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// From converts an arbitrary Unicode string into a lowercase, hyphenated ASCII slug.
//
// Accents are removed first (é → e); every other non-ASCII letter is dropped.
func From(s string) string {
	result, _, err := transform.String(stripMarks, s)
	if err != nil {
		result = s
	}

	result = nonAlphanumeric.ReplaceAllString(strings.ToLower(result), "-")
	return strings.Trim(result, "-")
}

// FileName builds "<slug><ext>" for a title, using fallback when the title has
// no usable characters. ext is taken from sourcePath.
func FileName(title, fallback, sourcePath string) string {
	base := From(title)
	if base == "" {
		base = From(fallback)
	}
	if base == "" {
		base = "download"
	}
	return base + strings.ToLower(filepath.Ext(sourcePath))
}
