// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newIssueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "issue <issue-id>",
		Short: "Show the pages, progress and read flag of an issue",
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

			pages, err := remote.ListPages(cmd.Context(), issueID)
			if err != nil {
				return fmt.Errorf("list pages: %w", err)
			}
			stored, err := remote.Progress(cmd.Context(), issueID)
			if err != nil {
				return fmt.Errorf("get progress: %w", err)
			}
			isRead, err := remote.GetIsRead(cmd.Context(), issueID)
			if err != nil {
				return fmt.Errorf("get read status: %w", err)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(pages.Pages))
			for _, ref := range pages.Pages {
				marker := ""
				if ref.Number == stored.CurrentPage {
					marker = "<"
				}
				rows = append(rows, []string{strconv.Itoa(ref.Number), ref.EntryName, ref.ContentType, marker})
			}
			fmt.Fprintln(out, renderTable([]column{
				{title: "#", numeric: true},
				{title: "Entry"},
				{title: "Type"},
				{title: ""},
			}, rows))
			fmt.Fprintln(out, formatProgress(stored.IssueID, stored.CurrentPage, stored.TotalPages, stored.IsCompleted))
			fmt.Fprintf(out, "read: %t\n", isRead)
			return nil
		},
	}
}
