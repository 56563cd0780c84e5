// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session implements the reader session controller.

# Architecture

A session reads one issue. Local state is optimistic: page turns apply
immediately and the position is persisted in the background through a
depth-one write queue. Failures never roll the page back; they become
dismissible notices.

States: Idle, then Loading, then Ready, then Closed. Auto-play, zoom and
fullscreen are overlays that only matter while Ready.

Arriving at the last page marks the issue as read once per session. The guard
is an explicit state (not signaled, signaling, signaled) and is only set after
the store confirmed the write; a failed attempt allows one retry on a later
arrival at the last page.
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/daviddhdev/kometa/internal/platform/apperr"
	"github.com/daviddhdev/kometa/internal/platform/constants"
	"github.com/daviddhdev/kometa/internal/platform/validate"
)

// # Collaborators

// Position is a stored reading position.
type Position struct {
	CurrentPage int
	TotalPages  int
}

// PageSource lists the page image URLs of an issue in reading order.
type PageSource interface {
	PageURLs(ctx context.Context, issueID int) ([]string, error)
}

// ProgressAPI reads and writes reading positions.
type ProgressAPI interface {
	GetProgress(ctx context.Context, issueID int) (Position, error)
	SaveProgress(ctx context.Context, issueID, currentPage, totalPages int) error
}

// ReadStatusAPI reads and writes the read flag of an issue.
type ReadStatusAPI interface {
	GetIsRead(ctx context.Context, issueID int) (bool, error)
	SetIsRead(ctx context.Context, issueID int, isRead bool) error
}

// # States

// State is the lifecycle state of a session.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateClosed
)

func (state State) String() string {
	switch state {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(state))
	}
}

// Completion tracks the one-time "mark as read" signal.
type Completion int

const (
	CompletionNotSignaled Completion = iota
	CompletionSignaling
	CompletionSignaled
)

func (completion Completion) String() string {
	switch completion {
	case CompletionNotSignaled:
		return "not_signaled"
	case CompletionSignaling:
		return "signaling"
	case CompletionSignaled:
		return "signaled"
	default:
		return fmt.Sprintf("completion(%d)", int(completion))
	}
}

// maxCompletionAttempts is the first attempt plus one retry.
const maxCompletionAttempts = 2

// Key is a keyboard input the reader reacts to.
type Key int

const (
	KeyLeft Key = iota
	KeyRight
	KeyEscape
)

// # Configuration

// Config tunes a session.
type Config struct {
	// AutoPlayInterval is clamped to the 1 to 30 second range.
	AutoPlayInterval time.Duration

	// RequestTimeout bounds every call to a collaborator.
	RequestTimeout time.Duration

	Logger *slog.Logger
}

const defaultRequestTimeout = 10 * time.Second

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	IssueID          int
	State            State
	CurrentPage      int
	PreviousPage     int
	TotalPages       int
	ImageURL         string
	IsRead           bool
	Completion       Completion
	AutoPlay         bool
	AutoPlayInterval time.Duration
	Zoom             bool
	Fullscreen       bool
	LoadErr          error
}

// # Controller

// Controller is the reader session for one issue. Its methods are safe for
// concurrent use; the auto-play timer is its only autonomous event source.
type Controller struct {
	issueID    int
	pages      PageSource
	progress   ProgressAPI
	readStatus ReadStatusAPI
	timeout    time.Duration
	logger     *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	writer  *progressWriter
	notices noticeBoard

	mu           sync.Mutex
	state        State
	urls         []string
	current      int
	previous     int
	isRead       bool
	completion   Completion
	attempts     int
	signalDone   chan struct{}
	autoPlay     bool
	autoInterval time.Duration
	autoGen      int
	autoStop     chan struct{}
	zoom         bool
	fullscreen   bool
	loadErr      error
}

// New creates an idle session for an issue.
func New(issueID int, pages PageSource, progress ProgressAPI, readStatus ReadStatusAPI, cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	interval := cfg.AutoPlayInterval
	if interval == 0 {
		interval = constants.DefaultAutoPlayInterval
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	controller := &Controller{
		issueID:      issueID,
		pages:        pages,
		progress:     progress,
		readStatus:   readStatus,
		timeout:      timeout,
		logger:       logger.With(slog.Int("issue_id", issueID)),
		baseCtx:      baseCtx,
		cancel:       cancel,
		autoInterval: ClampInterval(interval),
	}
	controller.writer = newProgressWriter(controller.sendProgress, controller.progressFailed)
	return controller
}

// ClampInterval bounds an auto-play interval to the supported range.
func ClampInterval(interval time.Duration) time.Duration {
	return min(max(interval, constants.MinAutoPlayInterval), constants.MaxAutoPlayInterval)
}

/*
Open loads the page list, the stored position and the read flag.

Description: A page list failure, or an archive without pages, leaves the
session in Loading with the error recorded; Open may then be retried. A failed
position read is only a warning and the session starts at page 1.
*/
func (controller *Controller) Open(ctx context.Context) error {
	controller.mu.Lock()
	if controller.state == StateClosed {
		controller.mu.Unlock()
		return ErrClosed
	}
	if controller.state == StateReady {
		controller.mu.Unlock()
		return nil
	}
	controller.state = StateLoading
	controller.loadErr = nil
	controller.mu.Unlock()

	// 1. Page list (fatal)
	callCtx, cancel := context.WithTimeout(ctx, controller.timeout)
	urls, err := controller.pages.PageURLs(callCtx, controller.issueID)
	cancel()
	if err == nil && len(urls) == 0 {
		err = errors.New("archive contains no pages")
	}
	if err != nil {
		loadErr := fmt.Errorf("%w: %w", ErrArchiveUnreadable, err)
		controller.mu.Lock()
		controller.loadErr = loadErr
		controller.mu.Unlock()

		controller.notices.add(ErrArchiveUnreadable, ErrArchiveUnreadable.Error())
		controller.logger.Warn("reader_open_failed", slog.Any("error", err))
		return loadErr
	}

	// 2. Stored position (non-fatal)
	startPage := 1
	callCtx, cancel = context.WithTimeout(ctx, controller.timeout)
	position, err := controller.progress.GetProgress(callCtx, controller.issueID)
	cancel()
	if err != nil {
		controller.logger.Warn("reader_progress_load_failed", slog.Any("error", err))
	} else {
		startPage = min(max(position.CurrentPage, 1), len(urls))
	}

	// 3. Fresh read flag (non-fatal; unknown counts as unread)
	callCtx, cancel = context.WithTimeout(ctx, controller.timeout)
	isRead, err := controller.readStatus.GetIsRead(callCtx, controller.issueID)
	cancel()
	if err != nil {
		controller.logger.Warn("reader_read_status_load_failed", slog.Any("error", err))
	}

	controller.mu.Lock()
	defer controller.mu.Unlock()

	if controller.state == StateClosed {
		return ErrClosed
	}

	controller.urls = urls
	controller.current = startPage
	controller.previous = startPage
	controller.isRead = isRead
	controller.state = StateReady

	controller.logger.Debug("reader_opened",
		slog.Int("total_pages", len(urls)),
		slog.Int("start_page", startPage),
	)
	return nil
}

// # Navigation

// GoToPage shows page n. Pages outside the issue are ignored and false is
// returned. Auto-play is left as it is.
func (controller *Controller) GoToPage(n int) bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.goToPageLocked(n)
}

// Next moves one page forward; it disarms auto-play.
func (controller *Controller) Next() bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	controller.stopAutoPlayLocked()
	return controller.goToPageLocked(controller.current + 1)
}

// Previous moves one page back; it disarms auto-play.
func (controller *Controller) Previous() bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	controller.stopAutoPlayLocked()
	return controller.goToPageLocked(controller.current - 1)
}

/*
JumpTo parses page-jump input and moves there.

Description: Input that is not an integer in [1, totalPages] is rejected with
an [ErrInvalidPageJump] notice; nothing else changes and nothing is written.
*/
func (controller *Controller) JumpTo(input string) error {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if controller.state != StateReady {
		return fmt.Errorf("%w: reader is %s", ErrInvalidPageJump, controller.state)
	}

	page, err := validate.PageNumber("page", input, len(controller.urls))
	if err != nil {
		message := err.Error()
		if appErr := apperr.As(err); appErr != nil && len(appErr.Details) > 0 {
			message = appErr.Details[0].Message
		}
		controller.notices.add(ErrInvalidPageJump, message)
		return fmt.Errorf("%w: %s", ErrInvalidPageJump, message)
	}

	controller.stopAutoPlayLocked()
	controller.goToPageLocked(page)
	return nil
}

// HandleKey maps arrow keys to page turns and Escape to leaving fullscreen.
func (controller *Controller) HandleKey(key Key) {
	switch key {
	case KeyLeft:
		controller.Previous()
	case KeyRight:
		controller.Next()
	case KeyEscape:
		controller.mu.Lock()
		controller.fullscreen = false
		controller.mu.Unlock()
	}
}

func (controller *Controller) goToPageLocked(n int) bool {
	if controller.state != StateReady || n < 1 || n > len(controller.urls) {
		return false
	}

	total := len(controller.urls)
	controller.previous = controller.current
	controller.current = n

	controller.writer.submit(progressWrite{currentPage: n, totalPages: total})

	if n == total {
		controller.signalCompletionLocked()
	}
	return true
}

// # Completion

func (controller *Controller) signalCompletionLocked() {
	if controller.isRead || controller.completion != CompletionNotSignaled {
		return
	}
	if controller.attempts >= maxCompletionAttempts {
		return
	}

	controller.completion = CompletionSignaling
	controller.attempts++
	done := make(chan struct{})
	controller.signalDone = done

	go func() {
		defer close(done)

		ctx, cancel := context.WithTimeout(controller.baseCtx, controller.timeout)
		err := controller.readStatus.SetIsRead(ctx, controller.issueID, true)
		cancel()

		controller.mu.Lock()
		defer controller.mu.Unlock()

		if err != nil {
			controller.completion = CompletionNotSignaled
			controller.notices.add(ErrCompletionSignalFailed, ErrCompletionSignalFailed.Error())
			controller.logger.Warn("reader_completion_signal_failed",
				slog.Int("attempt", controller.attempts),
				slog.Any("error", err),
			)
			return
		}

		controller.completion = CompletionSignaled
		controller.isRead = true
		controller.logger.Info("reader_issue_completed")
	}()
}

/*
SetRead is the manual read toggle.

Description: It writes synchronously and is independent of the completion
signal: marking an issue unread does not re-arm it for this session.
*/
func (controller *Controller) SetRead(ctx context.Context, isRead bool) error {
	callCtx, cancel := context.WithTimeout(ctx, controller.timeout)
	defer cancel()

	if err := controller.readStatus.SetIsRead(callCtx, controller.issueID, isRead); err != nil {
		return err
	}

	controller.mu.Lock()
	controller.isRead = isRead
	controller.mu.Unlock()
	return nil
}

// # Progress Writes

func (controller *Controller) sendProgress(write progressWrite) error {
	ctx, cancel := context.WithTimeout(controller.baseCtx, controller.timeout)
	defer cancel()
	return controller.progress.SaveProgress(ctx, controller.issueID, write.currentPage, write.totalPages)
}

func (controller *Controller) progressFailed(write progressWrite, err error) {
	controller.notices.add(ErrProgressWriteFailed, ErrProgressWriteFailed.Error())
	controller.logger.Warn("reader_progress_write_failed",
		slog.Int("current_page", write.currentPage),
		slog.Any("error", err),
	)
}

// # Auto-Play

// SetAutoPlay arms or disarms the auto-play timer.
func (controller *Controller) SetAutoPlay(on bool) {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if !on {
		controller.stopAutoPlayLocked()
		return
	}
	if controller.state != StateReady || controller.autoPlay {
		return
	}
	controller.startAutoPlayLocked()
}

// SetAutoPlayInterval changes the interval, restarting a running timer.
func (controller *Controller) SetAutoPlayInterval(interval time.Duration) time.Duration {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	controller.autoInterval = ClampInterval(interval)
	if controller.autoPlay {
		controller.stopAutoPlayLocked()
		controller.startAutoPlayLocked()
	}
	return controller.autoInterval
}

// Tick advances auto-play by one page, or disarms it at the last page.
// The timer goroutine calls it; tests may call it directly.
func (controller *Controller) Tick() {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	controller.tickLocked(controller.autoGen)
}

func (controller *Controller) tickLocked(generation int) {
	if !controller.autoPlay || generation != controller.autoGen || controller.state != StateReady {
		return
	}

	if controller.current >= len(controller.urls) {
		controller.stopAutoPlayLocked()
		controller.logger.Debug("reader_autoplay_finished")
		return
	}
	controller.goToPageLocked(controller.current + 1)
}

func (controller *Controller) startAutoPlayLocked() {
	controller.autoPlay = true
	controller.autoGen++
	controller.autoStop = make(chan struct{})

	generation, stop, interval := controller.autoGen, controller.autoStop, controller.autoInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				controller.mu.Lock()
				controller.tickLocked(generation)
				controller.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func (controller *Controller) stopAutoPlayLocked() {
	if !controller.autoPlay {
		return
	}
	controller.autoPlay = false
	close(controller.autoStop)
	controller.autoStop = nil
}

// # Presentation

// ToggleZoom flips the zoom overlay and returns the new value.
func (controller *Controller) ToggleZoom() bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	controller.zoom = !controller.zoom
	return controller.zoom
}

// ToggleFullscreen flips the fullscreen overlay and returns the new value.
func (controller *Controller) ToggleFullscreen() bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	controller.fullscreen = !controller.fullscreen
	return controller.fullscreen
}

// # Inspection

// Snapshot returns a copy of the current state.
func (controller *Controller) Snapshot() Snapshot {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	snapshot := Snapshot{
		IssueID:          controller.issueID,
		State:            controller.state,
		CurrentPage:      controller.current,
		PreviousPage:     controller.previous,
		TotalPages:       len(controller.urls),
		IsRead:           controller.isRead,
		Completion:       controller.completion,
		AutoPlay:         controller.autoPlay,
		AutoPlayInterval: controller.autoInterval,
		Zoom:             controller.zoom,
		Fullscreen:       controller.fullscreen,
		LoadErr:          controller.loadErr,
	}
	if controller.current >= 1 && controller.current <= len(controller.urls) {
		snapshot.ImageURL = controller.urls[controller.current-1]
	}
	return snapshot
}

// IsCurrent reports whether imageURL is still the displayed page. Page fetches
// that finish after the reader moved on are discarded with it.
func (controller *Controller) IsCurrent(imageURL string) bool {
	return controller.Snapshot().ImageURL == imageURL
}

// ReportPageError records a failed page fetch as a notice.
func (controller *Controller) ReportPageError(imageURL string, err error) {
	controller.notices.add(ErrPageNotFound, fmt.Sprintf("%s: %s", ErrPageNotFound, imageURL))
	controller.logger.Warn("reader_page_fetch_failed", slog.String("url", imageURL), slog.Any("error", err))
}

// Notices returns the notices that have not been dismissed.
func (controller *Controller) Notices() []Notice {
	return controller.notices.list()
}

// Dismiss removes a notice; it reports whether the notice existed.
func (controller *Controller) Dismiss(id int) bool {
	return controller.notices.dismiss(id)
}

// # Teardown

// Flush waits until every background write of the session has finished.
func (controller *Controller) Flush(ctx context.Context) error {
	if err := controller.writer.wait(ctx); err != nil {
		return err
	}

	controller.mu.Lock()
	done := controller.signalDone
	controller.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close stops auto-play, drains pending writes and moves to Closed.
func (controller *Controller) Close(ctx context.Context) error {
	controller.mu.Lock()
	if controller.state == StateClosed {
		controller.mu.Unlock()
		return nil
	}
	controller.stopAutoPlayLocked()
	controller.state = StateClosed
	controller.mu.Unlock()

	err := controller.Flush(ctx)
	controller.cancel()

	controller.logger.Debug("reader_closed")
	return err
}
