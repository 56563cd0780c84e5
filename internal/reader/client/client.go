// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package client talks to the Kometa HTTP API.

It implements the collaborators of a reader session ([session.PageSource],
[session.ProgressAPI], [session.ReadStatusAPI]) so a session can run against
a remote server, and exposes the richer responses for tooling.
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daviddhdev/kometa/internal/core/issue"
	"github.com/daviddhdev/kometa/internal/core/progress"
	"github.com/daviddhdev/kometa/internal/platform/apperr"
	"github.com/daviddhdev/kometa/internal/platform/constants"
	"github.com/daviddhdev/kometa/internal/platform/respond"
	"github.com/daviddhdev/kometa/internal/reader/session"
)

var (
	_ session.PageSource    = (*Client)(nil)
	_ session.ProgressAPI   = (*Client)(nil)
	_ session.ReadStatusAPI = (*Client)(nil)
)

// DefaultTimeout bounds every request made with the default HTTP client.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is read for diagnostics.
const maxErrorBody = 64 << 10

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s (%d): %s", e.Code, e.Status, e.Message)
}

// Is lets callers match server error codes against the session error taxonomy.
func (e *APIError) Is(target error) bool {
	switch e.Code {
	case apperr.CodeArchiveUnreadable:
		return target == session.ErrArchiveUnreadable
	case apperr.CodePageNotFound:
		return target == session.ErrPageNotFound
	default:
		return false
	}
}

// Client is an authenticated API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080").
// A nil httpClient uses one with [DefaultTimeout].
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// # Pages

// ListPages returns the ordered page list of an issue.
func (c *Client) ListPages(ctx context.Context, issueID int) (*issue.PageList, error) {
	var pages issue.PageList
	if err := c.do(ctx, http.MethodGet, issuePath(issueID, "pages"), nil, &pages); err != nil {
		return nil, err
	}
	return &pages, nil
}

// PageURLs implements [session.PageSource].
func (c *Client) PageURLs(ctx context.Context, issueID int) ([]string, error) {
	pages, err := c.ListPages(ctx, issueID)
	if err != nil {
		return nil, err
	}

	urls := make([]string, len(pages.Pages))
	for i, ref := range pages.Pages {
		urls[i] = ref.URL
	}
	return urls, nil
}

// Page is fetched page content.
type Page struct {
	URL         string
	ContentType string
	ETag        string
	Data        []byte
}

// FetchPage downloads the page at a URL taken from the page list.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	response, err := c.send(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, decodeError(response)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read page: %w", err)
	}

	return &Page{
		URL:         pageURL,
		ContentType: response.Header.Get(constants.HeaderContentType),
		ETag:        response.Header.Get(constants.HeaderETag),
		Data:        data,
	}, nil
}

// # Progress

// Progress returns the stored position of an issue.
func (c *Client) Progress(ctx context.Context, issueID int) (*progress.Progress, error) {
	var stored progress.Progress
	if err := c.do(ctx, http.MethodGet, issuePath(issueID, "progress"), nil, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// PutProgress writes a position and returns the stored row.
func (c *Client) PutProgress(ctx context.Context, issueID, currentPage, totalPages int) (*progress.Progress, error) {
	body := map[string]int{
		progress.FieldCurrentPage: currentPage,
		progress.FieldTotalPages:  totalPages,
	}

	var stored progress.Progress
	if err := c.do(ctx, http.MethodPut, issuePath(issueID, "progress"), body, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetProgress implements [session.ProgressAPI].
func (c *Client) GetProgress(ctx context.Context, issueID int) (session.Position, error) {
	stored, err := c.Progress(ctx, issueID)
	if err != nil {
		return session.Position{}, err
	}
	return session.Position{CurrentPage: stored.CurrentPage, TotalPages: stored.TotalPages}, nil
}

// SaveProgress implements [session.ProgressAPI].
func (c *Client) SaveProgress(ctx context.Context, issueID, currentPage, totalPages int) error {
	_, err := c.PutProgress(ctx, issueID, currentPage, totalPages)
	return err
}

// # Read Status

// GetIsRead implements [session.ReadStatusAPI].
func (c *Client) GetIsRead(ctx context.Context, issueID int) (bool, error) {
	var status issue.ReadStatus
	if err := c.do(ctx, http.MethodGet, issuePath(issueID, "read"), nil, &status); err != nil {
		return false, err
	}
	return status.IsRead, nil
}

// SetIsRead implements [session.ReadStatusAPI].
func (c *Client) SetIsRead(ctx context.Context, issueID int, isRead bool) error {
	body := map[string]bool{issue.FieldIsRead: isRead}
	return c.do(ctx, http.MethodPut, issuePath(issueID, "read"), body, nil)
}

// # Transport

func issuePath(issueID int, resource string) string {
	return fmt.Sprintf("%s/issues/%d/%s", constants.APIPrefix, issueID, resource)
}

// do sends a JSON request and decodes the data envelope into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	response, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return decodeError(response)
	}
	if out == nil {
		return nil
	}

	envelope := respond.SuccessEnvelope{Data: out}
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}

	if body != nil {
		request.Header.Set(constants.HeaderContentType, "application/json")
	}
	if c.token != "" {
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+c.token)
	}

	response, err := c.http.Do(request)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	return response, nil
}

func decodeError(response *http.Response) error {
	apiErr := &APIError{Status: response.StatusCode, Message: http.StatusText(response.StatusCode)}

	var envelope respond.ErrorEnvelope
	raw, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Code != "" {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Error
	}
	return apiErr
}
