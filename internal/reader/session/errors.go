// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"errors"
	"sync"
	"time"
)

// # Errors

var (
	// ErrArchiveUnreadable keeps the session in Loading; it is fatal to the session.
	ErrArchiveUnreadable = errors.New("failed to read comic file")

	// ErrPageNotFound is reported when a single page could not be fetched.
	ErrPageNotFound = errors.New("page not found")

	// ErrProgressWriteFailed is a non-blocking warning; the next successful write heals it.
	ErrProgressWriteFailed = errors.New("failed to save reading progress")

	// ErrCompletionSignalFailed means the issue could not be marked as read.
	ErrCompletionSignalFailed = errors.New("failed to mark issue as read")

	// ErrInvalidPageJump is returned for page-jump input outside the issue.
	ErrInvalidPageJump = errors.New("invalid page jump")

	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")
)

// # Notices

// Notice is a dismissible user-facing message.
type Notice struct {
	ID      int
	Kind    error
	Message string
	At      time.Time
}

// noticeBoard stores notices until they are dismissed.
type noticeBoard struct {
	mu      sync.Mutex
	nextID  int
	notices []Notice
}

func (board *noticeBoard) add(kind error, message string) Notice {
	board.mu.Lock()
	defer board.mu.Unlock()

	board.nextID++
	notice := Notice{ID: board.nextID, Kind: kind, Message: message, At: time.Now()}
	board.notices = append(board.notices, notice)
	return notice
}

func (board *noticeBoard) list() []Notice {
	board.mu.Lock()
	defer board.mu.Unlock()
	return append([]Notice(nil), board.notices...)
}

func (board *noticeBoard) dismiss(id int) bool {
	board.mu.Lock()
	defer board.mu.Unlock()

	for i, notice := range board.notices {
		if notice.ID == id {
			board.notices = append(board.notices[:i], board.notices[i+1:]...)
			return true
		}
	}
	return false
}
