// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gogpu/compositor/tracestore"
)

func newTraceCommand() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded frame traces",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "frames.db", "trace database written by run --record")

	list := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := tracestore.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.Runs(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tLABEL")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.StartedAt.Format(time.RFC3339), r.Label)
			}
			return tw.Flush()
		},
	}

	summary := &cobra.Command{
		Use:   "summary [run-id]",
		Short: "Summarize a run (default: the latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := tracestore.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			id, err := resolveRun(cmd, store, args)
			if err != nil {
				return err
			}
			sum, err := store.Summary(cmd.Context(), id)
			if err != nil {
				return err
			}
			_, err = sum.WriteTo(cmd.OutOrStdout())
			return err
		},
	}

	frames := &cobra.Command{
		Use:   "frames [run-id]",
		Short: "Print the frame reports of a run as JSON lines",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := tracestore.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			id, err := resolveRun(cmd, store, args)
			if err != nil {
				return err
			}
			reports, err := store.Frames(cmd.Context(), id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range reports {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.AddCommand(list, summary, frames)
	return cmd
}

func resolveRun(cmd *cobra.Command, store *tracestore.Store, args []string) (uuid.UUID, error) {
	if len(args) == 1 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid run id %q: %w", args[0], err)
		}
		return id, nil
	}
	run, err := store.LatestRun(cmd.Context())
	if err != nil {
		return uuid.Nil, err
	}
	return run.ID, nil
}
