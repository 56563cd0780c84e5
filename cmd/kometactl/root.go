// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daviddhdev/kometa/internal/platform/constants"
	"github.com/daviddhdev/kometa/internal/platform/logging"
	"github.com/daviddhdev/kometa/internal/reader/client"
)

const (
	envServer     = "KOMETA_SERVER"
	envToken      = "KOMETA_TOKEN"
	defaultServer = "http://localhost:8080"
)

// commandContext carries the persistent flags shared by every subcommand.
type commandContext struct {
	server  string
	token   string
	verbose bool
}

func (c *commandContext) client() (*client.Client, error) {
	server := strings.TrimSpace(c.server)
	if server == "" {
		return nil, errors.New("no server configured: pass --server or set " + envServer)
	}
	return client.New(server, c.token, nil), nil
}

func (c *commandContext) logger(cmd *cobra.Command) *slog.Logger {
	if !c.verbose {
		return logging.Nop()
	}
	logger, _ := logging.New(logging.Options{Debug: true, Stdout: cmd.ErrOrStderr()})
	return logger
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "kometactl",
		Short:         "Kometa reader CLI",
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	server := os.Getenv(envServer)
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVar(&ctx.server, "server", server, "Kometa API base URL (env "+envServer+")")
	rootCmd.PersistentFlags().StringVar(&ctx.token, "token", os.Getenv(envToken), "Session token (env "+envToken+")")
	rootCmd.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "Write debug logs to stderr")

	rootCmd.AddCommand(newPagesCommand(ctx))
	rootCmd.AddCommand(newIssueCommand(ctx))
	rootCmd.AddCommand(newProgressCommand(ctx))
	rootCmd.AddCommand(newReadCommand(ctx))

	return rootCmd
}

func parseIssueID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 1 {
		return 0, errors.New("issue id must be a positive integer")
	}
	return id, nil
}
