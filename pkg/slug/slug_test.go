// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daviddhdev/kometa/pkg/slug"
)

func TestFrom(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Saga #1", "saga-1"},
		{"Été à Paris", "ete-a-paris"},
		{"  --Spaced   Out--  ", "spaced-out"},
		{"進撃の巨人", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.From(tt.input))
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "saga-1.cbz", slug.FileName("Saga #1", "issue-3", "/library/Saga 001.CBZ"))
	assert.Equal(t, "issue-3.cbz", slug.FileName("進撃", "Issue 3", "/library/x.cbz"))
	assert.Equal(t, "download", slug.FileName("", "", "/library/noext"))
}
