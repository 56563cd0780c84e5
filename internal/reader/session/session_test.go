// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddhdev/kometa/internal/platform/logging"
	"github.com/daviddhdev/kometa/internal/reader/session"
)

// # Fakes

type fakePages struct {
	urls []string
	err  error
}

func (pages *fakePages) PageURLs(context.Context, int) ([]string, error) {
	return pages.urls, pages.err
}

type fakeProgress struct {
	mu         sync.Mutex
	position   session.Position
	getErr     error
	failWrites bool
	writes     []int
	started    chan struct{}
	gate       chan struct{}
}

func (progress *fakeProgress) GetProgress(context.Context, int) (session.Position, error) {
	return progress.position, progress.getErr
}

func (progress *fakeProgress) SaveProgress(ctx context.Context, _ int, currentPage, _ int) error {
	if progress.started != nil {
		progress.started <- struct{}{}
	}
	if progress.gate != nil {
		select {
		case <-progress.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	progress.mu.Lock()
	defer progress.mu.Unlock()

	if progress.failWrites {
		return errors.New("store unavailable")
	}
	progress.writes = append(progress.writes, currentPage)
	return nil
}

func (progress *fakeProgress) Writes() []int {
	progress.mu.Lock()
	defer progress.mu.Unlock()
	return append([]int(nil), progress.writes...)
}

type fakeReadStatus struct {
	mu       sync.Mutex
	isRead   bool
	failures int
	calls    int
}

func (status *fakeReadStatus) GetIsRead(context.Context, int) (bool, error) {
	status.mu.Lock()
	defer status.mu.Unlock()
	return status.isRead, nil
}

func (status *fakeReadStatus) SetIsRead(_ context.Context, _ int, isRead bool) error {
	status.mu.Lock()
	defer status.mu.Unlock()

	status.calls++
	if status.failures > 0 {
		status.failures--
		return errors.New("store unavailable")
	}
	status.isRead = isRead
	return nil
}

func (status *fakeReadStatus) Calls() int {
	status.mu.Lock()
	defer status.mu.Unlock()
	return status.calls
}

// # Helpers

func pageURLs(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("/api/v1/issues/1/page/p%d.jpg", i+1)
	}
	return urls
}

type harness struct {
	pages      *fakePages
	progress   *fakeProgress
	readStatus *fakeReadStatus
	controller *session.Controller
}

func newHarness(t *testing.T, totalPages int) *harness {
	t.Helper()

	h := &harness{
		pages:      &fakePages{urls: pageURLs(totalPages)},
		progress:   &fakeProgress{},
		readStatus: &fakeReadStatus{},
	}
	h.controller = session.New(1, h.pages, h.progress, h.readStatus, session.Config{
		AutoPlayInterval: 30 * time.Second,
		RequestTimeout:   time.Second,
		Logger:           logging.Nop(),
	})
	t.Cleanup(func() { _ = h.controller.Close(context.Background()) })
	return h
}

func (h *harness) open(t *testing.T) {
	t.Helper()
	require.NoError(t, h.controller.Open(context.Background()))
}

func (h *harness) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.controller.Flush(ctx))
}

func noticeKinds(notices []session.Notice) []error {
	kinds := make([]error, 0, len(notices))
	for _, notice := range notices {
		kinds = append(kinds, notice.Kind)
	}
	return kinds
}

// # Open

func TestOpen_SeedsFromStoredProgress(t *testing.T) {
	tests := []struct {
		name     string
		position session.Position
		getErr   error
		want     int
	}{
		{"no_row_defaults_to_first", session.Position{CurrentPage: 1, TotalPages: 0}, nil, 1},
		{"resumes", session.Position{CurrentPage: 3, TotalPages: 5}, nil, 3},
		{"clamped_to_archive", session.Position{CurrentPage: 9, TotalPages: 9}, nil, 5},
		{"load_failure_starts_at_first", session.Position{}, errors.New("timeout"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 5)
			h.progress.position = tt.position
			h.progress.getErr = tt.getErr

			h.open(t)

			snapshot := h.controller.Snapshot()
			assert.Equal(t, session.StateReady, snapshot.State)
			assert.Equal(t, tt.want, snapshot.CurrentPage)
			assert.Equal(t, 5, snapshot.TotalPages)
			assert.Equal(t, fmt.Sprintf("/api/v1/issues/1/page/p%d.jpg", tt.want), snapshot.ImageURL)
			assert.Empty(t, h.progress.Writes())
		})
	}
}

func TestOpen_UnreadableArchiveStaysLoading(t *testing.T) {
	for name, pages := range map[string]*fakePages{
		"fetch_error":   {err: errors.New("422 ARCHIVE_UNREADABLE")},
		"empty_archive": {urls: nil},
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, 0)
			h.pages.urls, h.pages.err = pages.urls, pages.err

			err := h.controller.Open(context.Background())
			assert.ErrorIs(t, err, session.ErrArchiveUnreadable)

			snapshot := h.controller.Snapshot()
			assert.Equal(t, session.StateLoading, snapshot.State)
			assert.ErrorIs(t, snapshot.LoadErr, session.ErrArchiveUnreadable)
			assert.Equal(t, []error{session.ErrArchiveUnreadable}, noticeKinds(h.controller.Notices()))
			assert.False(t, h.controller.GoToPage(1))
		})
	}
}

// # Navigation

func TestGoToPage_BoundsAndWrites(t *testing.T) {
	h := newHarness(t, 5)
	h.open(t)

	assert.False(t, h.controller.GoToPage(0))
	assert.False(t, h.controller.GoToPage(6))
	assert.True(t, h.controller.GoToPage(4))
	h.flush(t)

	snapshot := h.controller.Snapshot()
	assert.Equal(t, 4, snapshot.CurrentPage)
	assert.Equal(t, 1, snapshot.PreviousPage)
	assert.Equal(t, []int{4}, h.progress.Writes())
}

func TestNextPrevious(t *testing.T) {
	h := newHarness(t, 3)
	h.open(t)

	assert.False(t, h.controller.Previous())
	assert.True(t, h.controller.Next())
	assert.True(t, h.controller.Next())
	assert.False(t, h.controller.Next())

	h.controller.HandleKey(session.KeyLeft)
	assert.Equal(t, 2, h.controller.Snapshot().CurrentPage)
	assert.Equal(t, 3, h.controller.Snapshot().PreviousPage)

	h.controller.HandleKey(session.KeyRight)
	assert.Equal(t, 3, h.controller.Snapshot().CurrentPage)
}

func TestJumpTo_InvalidInputChangesNothing(t *testing.T) {
	tests := []struct {
		input   string
		message string
	}{
		{"abc", "Please enter a valid page number"},
		{"", "Please enter a valid page number"},
		{"2.5", "Please enter a valid page number"},
		{"0", "Page number must be between 1 and 5"},
		{"6", "Page number must be between 1 and 5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h := newHarness(t, 5)
			h.open(t)
			h.controller.SetAutoPlay(true)

			err := h.controller.JumpTo(tt.input)
			require.ErrorIs(t, err, session.ErrInvalidPageJump)
			h.flush(t)

			snapshot := h.controller.Snapshot()
			assert.Equal(t, 1, snapshot.CurrentPage)
			assert.True(t, snapshot.AutoPlay)
			assert.Empty(t, h.progress.Writes())

			notices := h.controller.Notices()
			require.Len(t, notices, 1)
			assert.Equal(t, tt.message, notices[0].Message)
		})
	}
}

func TestJumpTo_Valid(t *testing.T) {
	h := newHarness(t, 5)
	h.open(t)
	h.controller.SetAutoPlay(true)

	require.NoError(t, h.controller.JumpTo(" 3 "))
	h.flush(t)

	snapshot := h.controller.Snapshot()
	assert.Equal(t, 3, snapshot.CurrentPage)
	assert.False(t, snapshot.AutoPlay)
	assert.Equal(t, []int{3}, h.progress.Writes())
}

// # Progress Writes

func TestProgressWrites_NewestSupersedesPending(t *testing.T) {
	h := newHarness(t, 5)
	h.progress.started = make(chan struct{}, 8)
	h.progress.gate = make(chan struct{})
	h.open(t)

	h.controller.GoToPage(2)
	<-h.progress.started

	h.controller.GoToPage(3)
	h.controller.GoToPage(4)
	close(h.progress.gate)
	h.flush(t)

	assert.Equal(t, []int{2, 4}, h.progress.Writes())
	assert.Equal(t, 4, h.controller.Snapshot().CurrentPage)
}

func TestProgressWrites_FailureIsNonBlockingNotice(t *testing.T) {
	h := newHarness(t, 5)
	h.progress.failWrites = true
	h.open(t)

	require.True(t, h.controller.GoToPage(2))
	h.flush(t)

	assert.Equal(t, 2, h.controller.Snapshot().CurrentPage)
	notices := h.controller.Notices()
	require.Len(t, notices, 1)
	assert.ErrorIs(t, notices[0].Kind, session.ErrProgressWriteFailed)

	assert.True(t, h.controller.Dismiss(notices[0].ID))
	assert.Empty(t, h.controller.Notices())
	assert.False(t, h.controller.Dismiss(notices[0].ID))
}

// # Completion

func TestCompletion_SignalsOncePerSession(t *testing.T) {
	h := newHarness(t, 3)
	h.open(t)

	h.controller.GoToPage(3)
	h.flush(t)
	h.controller.GoToPage(2)
	h.controller.GoToPage(3)
	h.flush(t)

	assert.Equal(t, 1, h.readStatus.Calls())
	snapshot := h.controller.Snapshot()
	assert.Equal(t, session.CompletionSignaled, snapshot.Completion)
	assert.True(t, snapshot.IsRead)
}

func TestCompletion_SkippedWhenAlreadyRead(t *testing.T) {
	h := newHarness(t, 3)
	h.readStatus.isRead = true
	h.open(t)

	h.controller.GoToPage(3)
	h.flush(t)

	assert.Equal(t, 0, h.readStatus.Calls())
}

func TestCompletion_FailureAllowsOneRetry(t *testing.T) {
	h := newHarness(t, 3)
	h.readStatus.failures = 1
	h.open(t)

	h.controller.GoToPage(3)
	h.flush(t)
	assert.Equal(t, session.CompletionNotSignaled, h.controller.Snapshot().Completion)
	assert.Contains(t, noticeKinds(h.controller.Notices()), session.ErrCompletionSignalFailed)

	// The next arrival at the last page retries once.
	h.controller.GoToPage(3)
	h.flush(t)
	assert.Equal(t, 2, h.readStatus.Calls())
	assert.Equal(t, session.CompletionSignaled, h.controller.Snapshot().Completion)
}

func TestCompletion_GivesUpAfterRetry(t *testing.T) {
	h := newHarness(t, 3)
	h.readStatus.failures = 5
	h.open(t)

	for round := 0; round < 4; round++ {
		h.controller.GoToPage(2)
		h.controller.GoToPage(3)
		h.flush(t)
	}

	assert.Equal(t, 2, h.readStatus.Calls())
	assert.False(t, h.controller.Snapshot().IsRead)
}

func TestSetRead_ManualToggleDoesNotRearm(t *testing.T) {
	h := newHarness(t, 2)
	h.open(t)

	h.controller.GoToPage(2)
	h.flush(t)
	require.NoError(t, h.controller.SetRead(context.Background(), false))
	assert.False(t, h.controller.Snapshot().IsRead)

	h.controller.GoToPage(1)
	h.controller.GoToPage(2)
	h.flush(t)

	assert.Equal(t, 2, h.readStatus.Calls())
	assert.False(t, h.controller.Snapshot().IsRead)
}

// # Auto-Play

func TestAutoPlay_AdvancesAndStopsAtEnd(t *testing.T) {
	h := newHarness(t, 3)
	h.open(t)
	h.controller.SetAutoPlay(true)

	h.controller.Tick()
	h.flush(t)
	h.controller.Tick()
	assert.Equal(t, 3, h.controller.Snapshot().CurrentPage)
	assert.True(t, h.controller.Snapshot().AutoPlay)

	h.controller.Tick()
	snapshot := h.controller.Snapshot()
	assert.Equal(t, 3, snapshot.CurrentPage)
	assert.False(t, snapshot.AutoPlay)

	h.flush(t)
	assert.Equal(t, []int{2, 3}, h.progress.Writes())
	assert.Equal(t, 1, h.readStatus.Calls())
}

func TestAutoPlay_ManualNavigationDisarms(t *testing.T) {
	h := newHarness(t, 5)
	h.open(t)

	h.controller.SetAutoPlay(true)
	h.controller.Next()
	assert.False(t, h.controller.Snapshot().AutoPlay)

	h.controller.SetAutoPlay(true)
	h.controller.HandleKey(session.KeyLeft)
	assert.False(t, h.controller.Snapshot().AutoPlay)

	// A tick after disarming does nothing.
	h.controller.Tick()
	assert.Equal(t, 1, h.controller.Snapshot().CurrentPage)
}

func TestAutoPlay_TimerFires(t *testing.T) {
	h := newHarness(t, 2)
	h.open(t)

	h.controller.SetAutoPlayInterval(time.Second)
	h.controller.SetAutoPlay(true)

	assert.Eventually(t, func() bool {
		return h.controller.Snapshot().CurrentPage == 2
	}, 3*time.Second, 20*time.Millisecond)
}

func TestClampInterval(t *testing.T) {
	assert.Equal(t, time.Second, session.ClampInterval(0))
	assert.Equal(t, time.Second, session.ClampInterval(200*time.Millisecond))
	assert.Equal(t, 7*time.Second, session.ClampInterval(7*time.Second))
	assert.Equal(t, 30*time.Second, session.ClampInterval(time.Minute))
}

// # Presentation & Teardown

func TestOverlays(t *testing.T) {
	h := newHarness(t, 2)
	h.open(t)

	assert.True(t, h.controller.ToggleZoom())
	assert.True(t, h.controller.ToggleFullscreen())
	h.controller.HandleKey(session.KeyEscape)

	snapshot := h.controller.Snapshot()
	assert.True(t, snapshot.Zoom)
	assert.False(t, snapshot.Fullscreen)
	assert.Equal(t, 1, snapshot.CurrentPage)
}

func TestIsCurrent(t *testing.T) {
	h := newHarness(t, 2)
	h.open(t)

	first := h.controller.Snapshot().ImageURL
	assert.True(t, h.controller.IsCurrent(first))

	h.controller.Next()
	assert.False(t, h.controller.IsCurrent(first))
}

func TestClose(t *testing.T) {
	h := newHarness(t, 3)
	h.open(t)
	h.controller.SetAutoPlay(true)
	h.controller.GoToPage(2)

	require.NoError(t, h.controller.Close(context.Background()))

	snapshot := h.controller.Snapshot()
	assert.Equal(t, session.StateClosed, snapshot.State)
	assert.False(t, snapshot.AutoPlay)
	assert.Equal(t, []int{2}, h.progress.Writes())

	assert.False(t, h.controller.GoToPage(3))
	assert.ErrorIs(t, h.controller.Open(context.Background()), session.ErrClosed)
}
