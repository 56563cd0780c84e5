// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"sync"
)

type progressWrite struct {
	currentPage int
	totalPages  int
}

/*
progressWriter sends progress writes one at a time with a queue of depth one.

Description: While a write is in flight, newer submissions replace the pending
one, so a burst of page turns costs at most two writes and the last position
always lands last.
*/
type progressWriter struct {
	send    func(progressWrite) error
	onError func(progressWrite, error)

	mu      sync.Mutex
	pending *progressWrite
	running bool
	done    chan struct{}
}

func newProgressWriter(send func(progressWrite) error, onError func(progressWrite, error)) *progressWriter {
	return &progressWriter{send: send, onError: onError}
}

// submit queues a write, superseding any write not yet started.
func (writer *progressWriter) submit(write progressWrite) {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	writer.pending = &write
	if writer.running {
		return
	}

	writer.running = true
	writer.done = make(chan struct{})
	go writer.loop(writer.done)
}

func (writer *progressWriter) loop(done chan struct{}) {
	defer close(done)

	for {
		writer.mu.Lock()
		next := writer.pending
		writer.pending = nil
		if next == nil {
			writer.running = false
			writer.mu.Unlock()
			return
		}
		writer.mu.Unlock()

		if err := writer.send(*next); err != nil {
			writer.onError(*next, err)
		}
	}
}

// wait blocks until no write is pending or in flight.
func (writer *progressWriter) wait(ctx context.Context) error {
	for {
		writer.mu.Lock()
		if !writer.running {
			writer.mu.Unlock()
			return nil
		}
		done := writer.done
		writer.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
