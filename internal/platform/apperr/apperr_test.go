// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddhdev/kometa/internal/platform/apperr"
)

func TestAppError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperr.AppError
		status int
		code   string
	}{
		{"not_found", apperr.NotFound("Issue"), http.StatusNotFound, apperr.CodeNotFound},
		{"page_not_found", apperr.PageNotFound("x.jpg"), http.StatusNotFound, apperr.CodePageNotFound},
		{"archive", apperr.ArchiveUnreadable(errors.New("zip: not a valid zip file")), http.StatusUnprocessableEntity, apperr.CodeArchiveUnreadable},
		{"validation", apperr.ValidationError("bad"), http.StatusBadRequest, apperr.CodeValidation},
		{"internal", apperr.Internal(errors.New("boom")), http.StatusInternalServerError, apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestAs_TraversesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", apperr.NotFound("Issue"))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, "Issue not found", ae.Message)
	assert.True(t, apperr.HasCode(wrapped, apperr.CodeNotFound))
	assert.False(t, apperr.HasCode(errors.New("plain"), apperr.CodeNotFound))
	assert.Nil(t, apperr.As(errors.New("plain")))
}

func TestAppError_UnwrapsCause(t *testing.T) {
	cause := errors.New("disk gone")
	err := apperr.ArchiveUnreadable(cause)

	assert.ErrorIs(t, err, cause)
}
