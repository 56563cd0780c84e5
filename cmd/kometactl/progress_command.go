// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/daviddhdev/kometa/internal/core/progress"
)

func newProgressCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <issue-id> [current-page total-pages]",
		Short: "Show or set the reading position of an issue",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 3 {
				return fmt.Errorf("accepts 1 or 3 args, received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			issueID, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			remote, err := ctx.client()
			if err != nil {
				return err
			}

			var stored *progress.Progress
			if len(args) == 3 {
				currentPage, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("current page: %w", err)
				}
				totalPages, err := strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("total pages: %w", err)
				}
				stored, err = remote.PutProgress(cmd.Context(), issueID, currentPage, totalPages)
				if err != nil {
					return fmt.Errorf("save progress: %w", err)
				}
			} else {
				stored, err = remote.Progress(cmd.Context(), issueID)
				if err != nil {
					return fmt.Errorf("get progress: %w", err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatProgress(stored.IssueID, stored.CurrentPage, stored.TotalPages, stored.IsCompleted))
			return nil
		},
	}
}

func formatProgress(issueID, currentPage, totalPages int, isCompleted bool) string {
	return fmt.Sprintf("issue %d: page %d of %d, completed: %t", issueID, currentPage, totalPages, isCompleted)
}
