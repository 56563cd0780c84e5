// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddhdev/kometa/internal/api"
	"github.com/daviddhdev/kometa/internal/archive"
	"github.com/daviddhdev/kometa/internal/archive/archivetest"
	"github.com/daviddhdev/kometa/internal/core/issue"
	"github.com/daviddhdev/kometa/internal/core/issue/issuetest"
	"github.com/daviddhdev/kometa/internal/core/progress"
	"github.com/daviddhdev/kometa/internal/core/progress/progresstest"
	"github.com/daviddhdev/kometa/internal/platform/config"
	"github.com/daviddhdev/kometa/internal/platform/logging"
	"github.com/daviddhdev/kometa/internal/platform/sec"
	"github.com/daviddhdev/kometa/internal/reader/client"
	"github.com/daviddhdev/kometa/internal/reader/session"
)

type testServer struct {
	url        string
	token      string
	issues     *issuetest.MemoryStore
	progresses *progresstest.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	root := t.TempDir()
	archivetest.WriteCBZ(t, root, "five.cbz",
		archivetest.Files("page5.jpg", "page3.png", "page1.jpg", "page4.gif", "page2.jpg", "credits.txt")...)
	archivetest.WriteCBZ(t, root, "blank.cbz", archivetest.Files("credits.txt")...)

	logger := logging.Nop()
	issues := issuetest.NewMemoryStore(
		issue.Issue{ID: 1, IssueNumber: 1, Title: "Five Pages", FilePath: "five.cbz"},
		issue.Issue{ID: 2, IssueNumber: 2, FilePath: "blank.cbz"},
	)
	progresses := progresstest.NewMemoryStore(1, 2)

	tokens, err := sec.NewTokenService("test-secret")
	require.NoError(t, err)
	token, err := tokens.GenerateToken(1, "reader", false, time.Hour)
	require.NoError(t, err)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{}, logger)
	router := api.NewRouter(ctx, &config.Config{Environment: "development"}, logger, tokens, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Issue:     issue.NewHandler(issue.NewService(issues, archive.NewReader(nil, logger), root, logger)),
		Progress:  progress.NewHandler(progress.NewService(progresses, logger)),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{url: server.URL, token: token, issues: issues, progresses: progresses}
}

func (ts *testServer) client() *client.Client {
	return client.New(ts.url, ts.token, nil)
}

func flush(t *testing.T, controller *session.Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, controller.Flush(ctx))
}

func TestSession_FivePageReadThroughAndReopen(t *testing.T) {
	ts := newTestServer(t)
	remote := ts.client()
	ctx := context.Background()
	cfg := session.Config{AutoPlayInterval: 30 * time.Second, Logger: logging.Nop()}

	// First session: read every page.
	reader := session.New(1, remote, remote, remote, cfg)
	require.NoError(t, reader.Open(ctx))

	snapshot := reader.Snapshot()
	require.Equal(t, 5, snapshot.TotalPages)
	assert.Equal(t, 1, snapshot.CurrentPage)

	for page := 2; page <= 5; page++ {
		require.True(t, reader.Next())
		flush(t, reader)

		fetched, err := remote.FetchPage(ctx, reader.Snapshot().ImageURL)
		require.NoError(t, err)
		assert.True(t, reader.IsCurrent(fetched.URL))
	}
	require.NoError(t, reader.Close(ctx))

	stored, err := remote.Progress(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.CurrentPage)
	assert.Equal(t, 5, stored.TotalPages)
	assert.True(t, stored.IsCompleted)

	isRead, err := remote.GetIsRead(ctx, 1)
	require.NoError(t, err)
	assert.True(t, isRead)
	assert.Equal(t, 1, ts.issues.SetReadCalls())

	// Second session resumes on the last page; going back clears completion only.
	reopened := session.New(1, remote, remote, remote, cfg)
	require.NoError(t, reopened.Open(ctx))
	assert.Equal(t, 5, reopened.Snapshot().CurrentPage)
	assert.True(t, reopened.Snapshot().IsRead)

	require.True(t, reopened.GoToPage(3))
	require.True(t, reopened.GoToPage(5))
	require.True(t, reopened.GoToPage(3))
	require.NoError(t, reopened.Close(ctx))

	stored, err = remote.Progress(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.CurrentPage)
	assert.False(t, stored.IsCompleted)
	assert.Equal(t, 1, ts.issues.SetReadCalls())
}

func TestClient_PageOrderAndContent(t *testing.T) {
	ts := newTestServer(t)
	remote := ts.client()
	ctx := context.Background()

	pages, err := remote.ListPages(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pages.Pages, 5)

	want := []string{"page1.jpg", "page2.jpg", "page3.png", "page4.gif", "page5.jpg"}
	for i, ref := range pages.Pages {
		assert.Equal(t, want[i], ref.EntryName)

		page, err := remote.FetchPage(ctx, ref.URL)
		require.NoError(t, err)
		assert.Equal(t, ref.ContentType, page.ContentType)
		assert.Equal(t, "content:"+ref.EntryName, string(page.Data))
	}
}

func TestClient_Errors(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.client().FetchPage(ctx, "/api/v1/issues/1/page/credits.txt")
	assert.ErrorIs(t, err, session.ErrPageNotFound)

	var apiErr *client.APIError
	_, err = ts.client().ListPages(ctx, 42)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	_, err = client.New(ts.url, "", nil).ListPages(ctx, 1)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestSession_EmptyArchiveFailsOpen(t *testing.T) {
	ts := newTestServer(t)
	remote := ts.client()

	reader := session.New(2, remote, remote, remote, session.Config{Logger: logging.Nop()})
	defer reader.Close(context.Background())

	err := reader.Open(context.Background())
	assert.ErrorIs(t, err, session.ErrArchiveUnreadable)
	assert.Equal(t, session.StateLoading, reader.Snapshot().State)
	assert.Equal(t, 0, ts.progresses.Rows())
}
