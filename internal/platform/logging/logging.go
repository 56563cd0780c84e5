// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package logging builds the process-wide structured logger.

Output is JSON on stdout. When a log file is configured the same stream is
teed into a size-rotated file so that a self-hosted install keeps history
without an external collector.
*/
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/daviddhdev/kometa/internal/platform/constants"
)

// Options controls the logger built by [New].
type Options struct {
	Debug bool

	// File enables the rotating file sink when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Stdout overrides the console writer; nil means os.Stdout.
	Stdout io.Writer
}

// New returns a JSON logger tagged with the application name, and a closer
// for the file sink (a no-op when no file is configured).
func New(options Options) (*slog.Logger, io.Closer) {
	var console io.Writer = os.Stdout
	if options.Stdout != nil {
		console = options.Stdout
	}

	writer := console
	var closer io.Closer = nopCloser{}

	if options.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   options.File,
			MaxSize:    options.MaxSizeMB,
			MaxBackups: options.MaxBackups,
			MaxAge:     options.MaxAgeDays,
			Compress:   true,
		}
		writer = io.MultiWriter(console, rotating)
		closer = rotating
	}

	level := slog.LevelInfo
	if options.Debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level}))
	return logger.With(slog.String("app", constants.AppName)), closer
}

// Nop returns a logger that discards everything. Used by tests and tooling.
func Nop() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
