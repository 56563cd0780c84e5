// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the router's parameter extraction and body decoding so that
handlers report malformed input the same way.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/daviddhdev/kometa/internal/platform/validate"
)

// maxBodyBytes caps JSON request bodies; progress and read-status payloads are tiny.
const maxBodyBytes = 64 << 10

/*
DecodeJSON reads the request body and decodes it into the target structure.

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target interface{}) error {
	request.Body = http.MaxBytesReader(writer, request.Body, maxBodyBytes)
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
IntID parses a positive integer URL parameter such as an issue ID.

Returns:
  - int: the parsed identifier
  - error: apperr.ValidationError when the value is not a positive integer
*/
func IntID(request *http.Request, name string) (int, error) {
	raw := chi.URLParam(request, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, validate.RequiredError(name, "Must be a positive integer")
	}
	return id, nil
}

/*
Wildcard returns the unescaped remainder captured by a trailing "*" route pattern.

chi matches against the escaped path when one exists, so entry names that
contain reserved characters (spaces, slashes, '#') arrive escaped.
*/
func Wildcard(request *http.Request) (string, error) {
	raw := chi.URLParam(request, "*")
	value, err := url.PathUnescape(raw)
	if err != nil {
		return "", validate.RequiredError("*", "Malformed path escape")
	}
	return value, nil
}
