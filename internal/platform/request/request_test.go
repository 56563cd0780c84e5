// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	requestutil "github.com/daviddhdev/kometa/internal/platform/request"
	"github.com/daviddhdev/kometa/internal/platform/validate"
)

// serve routes a single request through chi so URL parameters are populated.
func serve(pattern, target string, handler http.HandlerFunc) {
	router := chi.NewRouter()
	router.Get(pattern, handler)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
}

func TestIntID(t *testing.T) {
	tests := []struct {
		target  string
		want    int
		isValid bool
	}{
		{"/issues/42", 42, true},
		{"/issues/0", 0, false},
		{"/issues/-3", 0, false},
		{"/issues/abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			var (
				got int
				err error
			)
			serve("/issues/{id}", tt.target, func(_ http.ResponseWriter, request *http.Request) {
				got, err = requestutil.IntID(request, "id")
			})

			if !tt.isValid {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWildcard_Unescapes(t *testing.T) {
	var got string
	serve("/page/*", "/page/vol%201%2Fpage%2011.gif", func(_ http.ResponseWriter, request *http.Request) {
		var err error
		got, err = requestutil.Wildcard(request)
		require.NoError(t, err)
	})

	assert.Equal(t, "vol 1/page 11.gif", got)
}

func TestDecodeJSON(t *testing.T) {
	var target struct {
		CurrentPage int `json:"current_page"`
	}

	request := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"current_page": 3}`))
	require.NoError(t, requestutil.DecodeJSON(httptest.NewRecorder(), request, &target))
	assert.Equal(t, 3, target.CurrentPage)

	request = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"current_page":`))
	assert.ErrorIs(t, requestutil.DecodeJSON(httptest.NewRecorder(), request, &target), validate.ErrInvalidJSON)

	oversized := `{"pad":"` + strings.Repeat("x", 128<<10) + `"}`
	request = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(oversized))
	assert.Error(t, requestutil.DecodeJSON(httptest.NewRecorder(), request, &target))
}
