// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command compositord runs a headless compositor and inspects its frame
// traces.
//
//	compositord run --frames 300 --record frames.db --output last.png
//	compositord run --source back-to-back --serve :9090 --frames 0 --duration 1m
//	compositord trace summary --db frames.db
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gogpu/compositor"
)

func newRootCommand() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "compositord",
		Short:         "Headless frame-scheduling compositor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(cmd, logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (default: silent)")
	root.AddCommand(newRunCommand(), newTraceCommand(), newVersionCommand())
	return root
}

func setupLogging(cmd *cobra.Command, level string) error {
	if level == "" {
		compositor.SetLogger(nil)
		return nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	compositor.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: l})))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
