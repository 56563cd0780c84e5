// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/daviddhdev/kometa/internal/archive"
)

func newPagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pages <archive>",
		Short: "List the pages of a local archive in reading order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := archive.NewReader(nil, ctx.logger(cmd))
			index, err := reader.Index(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("index %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if index.Len() == 0 {
				fmt.Fprintln(out, "No pages found")
				return nil
			}

			rows := make([][]string, 0, index.Len())
			for _, entry := range index.Pages {
				rows = append(rows, []string{
					strconv.Itoa(entry.PageNumber()),
					entry.EntryName,
					entry.ContentType(),
					strconv.FormatUint(entry.Size, 10),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{title: "#", numeric: true},
				{title: "Entry"},
				{title: "Type"},
				{title: "Bytes", numeric: true},
			}, rows))
			return nil
		},
	}
}
