// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tracestore

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/compositor/display"
)

// Summary aggregates the reports of one run.
type Summary struct {
	Run             uuid.UUID
	Attempts        int
	ByOutcome       map[display.Outcome]int
	SizeMismatches  int
	CopyFrames      int
	MaxPendingSwaps int
	MeanQuads       float64
	Span            time.Duration
	// MeanDamage is the mean damaged fraction of the root pass.
	MeanDamage float64
}

// Summary computes the aggregate counters of run.
func (s *Store) Summary(ctx context.Context, run uuid.UUID) (Summary, error) {
	if s.db == nil {
		return Summary{}, ErrClosed
	}
	sum := Summary{Run: run, ByOutcome: make(map[display.Outcome]int)}

	var first, last int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(size_matches = 0), 0),
		       COALESCE(SUM(have_copy_requests), 0),
		       COALESCE(MAX(pending_swaps), 0),
		       COALESCE(AVG(quads), 0),
		       COALESCE(MIN(time_ns), 0),
		       COALESCE(MAX(time_ns), 0),
		       COALESCE(AVG(CASE WHEN width * height > 0
		           THEN MIN(1.0, CAST((damage_x1 - damage_x0) * (damage_y1 - damage_y0) AS REAL) / (width * height))
		           ELSE 0 END), 0)
		FROM frames WHERE run_id = ?`, run.String()).
		Scan(&sum.Attempts, &sum.SizeMismatches, &sum.CopyFrames, &sum.MaxPendingSwaps,
			&sum.MeanQuads, &first, &last, &sum.MeanDamage)
	if err != nil {
		return Summary{}, fmt.Errorf("tracestore: summarize run %s: %w", run, err)
	}
	sum.Span = time.Duration(last - first)

	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM frames WHERE run_id = ? GROUP BY outcome`, run.String())
	if err != nil {
		return Summary{}, fmt.Errorf("tracestore: count outcomes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name string
			n    int
			o    display.Outcome
		)
		if err := rows.Scan(&name, &n); err != nil {
			return Summary{}, fmt.Errorf("tracestore: scan outcome: %w", err)
		}
		if err := o.UnmarshalText([]byte(name)); err != nil {
			return Summary{}, fmt.Errorf("tracestore: outcome %q: %w", name, err)
		}
		sum.ByOutcome[o] = n
	}
	return sum, rows.Err()
}

// WriteTo prints the summary as an aligned table.
func (s Summary) WriteTo(w io.Writer) (int64, error) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	var n int64
	p := func(format string, args ...any) {
		k, _ := fmt.Fprintf(tw, format, args...)
		n += int64(k)
	}
	p("run\t%s\n", s.Run)
	p("attempts\t%d\n", s.Attempts)
	for _, o := range []display.Outcome{display.OutcomeDrawnAndSwapped, display.OutcomeDrawnNoSwap, display.OutcomeSkipped} {
		p("  %s\t%d\n", o, s.ByOutcome[o])
	}
	p("size mismatches\t%d\n", s.SizeMismatches)
	p("copy request frames\t%d\n", s.CopyFrames)
	p("max pending swaps\t%d\n", s.MaxPendingSwaps)
	p("mean quads\t%.2f\n", s.MeanQuads)
	p("mean damage\t%.1f%%\n", s.MeanDamage*100)
	p("span\t%s\n", s.Span)
	return n, tw.Flush()
}
