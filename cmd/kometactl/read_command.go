// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/daviddhdev/kometa/internal/platform/constants"
	"github.com/daviddhdev/kometa/internal/reader/client"
	"github.com/daviddhdev/kometa/internal/reader/session"
)

const readHelp = `commands:
  n, next            next page
  p, prev            previous page
  <number>           jump to page
  auto [seconds]     toggle auto-play, optionally setting the interval
  zoom | full | esc  toggle zoom, toggle fullscreen, leave fullscreen
  read | unread      set the read flag
  notices            list notices
  dismiss <id>       dismiss a notice
  q, quit            close the reader`

func newReadCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "read <issue-id>",
		Short: "Page through an issue interactively",
		Long:  "Opens a reader session and reads commands from stdin, one per line.\n\n" + readHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issueID, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			remote, err := ctx.client()
			if err != nil {
				return err
			}

			reader := session.New(issueID, remote, remote, remote, session.Config{
				AutoPlayInterval: interval,
				Logger:           ctx.logger(cmd),
			})
			if err := reader.Open(cmd.Context()); err != nil {
				_ = reader.Close(context.Background())
				return err
			}

			loop := &readLoop{
				reader: reader,
				remote: remote,
				out:    cmd.OutOrStdout(),
			}
			runErr := loop.run(cmd.Context(), cmd.InOrStdin())

			closeCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			if err := reader.Close(closeCtx); err != nil && runErr == nil {
				runErr = fmt.Errorf("close reader: %w", err)
			}
			loop.printNotices()
			return runErr
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", constants.DefaultAutoPlayInterval, "Auto-play interval (1s to 30s)")
	return cmd
}

// readLoop maps terminal commands onto a reader session.
type readLoop struct {
	reader *session.Controller
	remote *client.Client
	out    io.Writer
}

func (loop *readLoop) run(ctx context.Context, in io.Reader) error {
	loop.show(ctx)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		moved, quit := loop.dispatch(ctx, fields)
		if quit {
			return nil
		}
		if moved {
			loop.show(ctx)
		} else {
			loop.status()
		}
	}
	return scanner.Err()
}

// dispatch runs one command; it reports whether the page changed and whether to quit.
func (loop *readLoop) dispatch(ctx context.Context, fields []string) (moved, quit bool) {
	switch command := strings.ToLower(fields[0]); command {
	case "q", "quit", "exit":
		return false, true
	case "n", "next":
		return loop.reader.Next(), false
	case "p", "prev", "previous":
		return loop.reader.Previous(), false
	case "auto":
		loop.toggleAutoPlay(fields[1:])
	case "zoom":
		fmt.Fprintf(loop.out, "zoom: %t\n", loop.reader.ToggleZoom())
	case "full", "fullscreen":
		fmt.Fprintf(loop.out, "fullscreen: %t\n", loop.reader.ToggleFullscreen())
	case "esc":
		loop.reader.HandleKey(session.KeyEscape)
	case "read", "unread":
		if err := loop.reader.SetRead(ctx, command == "read"); err != nil {
			fmt.Fprintf(loop.out, "error: %v\n", err)
		}
	case "notices":
		loop.printNotices()
	case "dismiss":
		loop.dismiss(fields[1:])
	case "help", "?":
		fmt.Fprintln(loop.out, readHelp)
	default:
		if err := loop.reader.JumpTo(fields[0]); err != nil {
			fmt.Fprintf(loop.out, "error: %v\n", err)
			return false, false
		}
		return true, false
	}
	return false, false
}

func (loop *readLoop) toggleAutoPlay(args []string) {
	if len(args) > 0 {
		seconds, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			fmt.Fprintf(loop.out, "error: invalid interval %q\n", args[0])
			return
		}
		applied := loop.reader.SetAutoPlayInterval(time.Duration(seconds * float64(time.Second)))
		loop.reader.SetAutoPlay(true)
		fmt.Fprintf(loop.out, "auto-play: on (%s)\n", applied)
		return
	}

	on := !loop.reader.Snapshot().AutoPlay
	loop.reader.SetAutoPlay(on)
	fmt.Fprintf(loop.out, "auto-play: %t\n", on)
}

func (loop *readLoop) dismiss(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(loop.out, "error: dismiss needs a notice id")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || !loop.reader.Dismiss(id) {
		fmt.Fprintf(loop.out, "error: no notice %q\n", args[0])
	}
}

// show fetches the displayed page and prints the status line. A fetch that
// finishes after the reader moved on is dropped.
func (loop *readLoop) show(ctx context.Context) {
	imageURL := loop.reader.Snapshot().ImageURL
	if imageURL != "" {
		page, err := loop.remote.FetchPage(ctx, imageURL)
		switch {
		case err != nil:
			loop.reader.ReportPageError(imageURL, err)
		case loop.reader.IsCurrent(page.URL):
			fmt.Fprintf(loop.out, "%s (%s, %d bytes)\n", page.URL, page.ContentType, len(page.Data))
		}
	}
	loop.status()
}

func (loop *readLoop) status() {
	snapshot := loop.reader.Snapshot()
	fmt.Fprintf(loop.out, "page %d/%d read=%t auto=%t\n",
		snapshot.CurrentPage, snapshot.TotalPages, snapshot.IsRead, snapshot.AutoPlay)
}

func (loop *readLoop) printNotices() {
	for _, notice := range loop.reader.Notices() {
		fmt.Fprintf(loop.out, "notice %d: %s\n", notice.ID, notice.Message)
	}
}
