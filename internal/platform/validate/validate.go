// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// Services validate every mutating input with this package; handlers only
// decode. The page-number helpers are shared with the reader session so that
// a jump typed by the user is judged by the same rules the server applies.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/daviddhdev/kometa/internal/platform/apperr"
)

var (
	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []apperr.FieldError
}

// Min fails if the value is below min.
func (v *Validator) Min(field string, value, min int) *Validator {
	if value < min {
		v.add(field, fmt.Sprintf("Must be at least %d", min))
	}
	return v
}

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// add appends a [apperr.FieldError] to the internal slice.
func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// RequiredError is a shortcut to create a single-field validation error.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   field,
		Message: message,
	})
}

// # Page Numbers

// PageNumber parses user input as a 1-based page number within [1, total].
//
// The messages are written for direct display next to the page-jump input.
func PageNumber(field, raw string, total int) (int, error) {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, RequiredError(field, "Please enter a valid page number")
	}
	if page < 1 || page > total {
		return 0, RequiredError(field, fmt.Sprintf("Page number must be between 1 and %d", total))
	}
	return page, nil
}
