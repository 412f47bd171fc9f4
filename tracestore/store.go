// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package tracestore records display frame reports in a SQLite database so
// runs can be inspected after the fact.
package tracestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/display"
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("tracestore: store is closed")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	label      TEXT NOT NULL,
	started_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS frames (
	run_id             TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	sequence           INTEGER NOT NULL,
	surface            TEXT NOT NULL,
	time_ns            INTEGER NOT NULL,
	outcome            TEXT NOT NULL,
	have_damage        INTEGER NOT NULL,
	size_matches       INTEGER NOT NULL,
	have_copy_requests INTEGER NOT NULL,
	suspended          INTEGER NOT NULL,
	width              INTEGER NOT NULL,
	height             INTEGER NOT NULL,
	damage_x0          INTEGER NOT NULL,
	damage_y0          INTEGER NOT NULL,
	damage_x1          INTEGER NOT NULL,
	damage_y1          INTEGER NOT NULL,
	render_passes      INTEGER NOT NULL,
	quads              INTEGER NOT NULL,
	latency_infos      INTEGER NOT NULL,
	pending_swaps      INTEGER NOT NULL,
	PRIMARY KEY (run_id, sequence)
);
`

// Store is a SQLite-backed frame report archive.
type Store struct {
	db *sql.DB
}

// Run identifies one recorded display session.
type Run struct {
	ID        uuid.UUID
	Label     string
	StartedAt time.Time
}

// Open opens or creates the database at path. Use ":memory:" for a
// throwaway store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tracestore: open %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	for _, p := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("tracestore: apply pragma %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("tracestore: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// BeginRun creates a run and returns a Recorder appending to it.
func (s *Store) BeginRun(ctx context.Context, label string) (*Recorder, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	run := Run{ID: uuid.New(), Label: label, StartedAt: time.Now()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, label, started_at) VALUES (?, ?, ?)`,
		run.ID.String(), run.Label, run.StartedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("tracestore: begin run: %w", err)
	}
	compositor.Logger().Info("tracestore: run started", "run", run.ID, "label", label)
	return &Recorder{store: s, run: run}, nil
}

// Runs lists recorded runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, started_at FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("tracestore: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			id      string
			run     Run
			started int64
		)
		if err := rows.Scan(&id, &run.Label, &started); err != nil {
			return nil, fmt.Errorf("tracestore: scan run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("tracestore: run id %q: %w", id, err)
		}
		run.StartedAt = time.Unix(0, started)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	runs, err := s.Runs(ctx)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("tracestore: no runs recorded")
	}
	return runs[len(runs)-1], nil
}

// Frames returns the reports of run in sequence order.
func (s *Store) Frames(ctx context.Context, run uuid.UUID) ([]display.FrameReport, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence, surface, time_ns, outcome,
		       have_damage, size_matches, have_copy_requests, suspended,
		       width, height, damage_x0, damage_y0, damage_x1, damage_y1,
		       render_passes, quads, latency_infos, pending_swaps
		FROM frames WHERE run_id = ? ORDER BY sequence`, run.String())
	if err != nil {
		return nil, fmt.Errorf("tracestore: query frames: %w", err)
	}
	defer rows.Close()

	var out []display.FrameReport
	for rows.Next() {
		var (
			r       display.FrameReport
			timeNs  int64
			outcome string
		)
		err := rows.Scan(&r.Sequence, &r.Surface, &timeNs, &outcome,
			&r.HaveDamage, &r.SizeMatches, &r.HaveCopyRequests, &r.Suspended,
			&r.Size.X, &r.Size.Y,
			&r.Damage.Min.X, &r.Damage.Min.Y, &r.Damage.Max.X, &r.Damage.Max.Y,
			&r.RenderPasses, &r.Quads, &r.LatencyInfos, &r.PendingSwaps)
		if err != nil {
			return nil, fmt.Errorf("tracestore: scan frame: %w", err)
		}
		if err := r.Outcome.UnmarshalText([]byte(outcome)); err != nil {
			return nil, fmt.Errorf("tracestore: frame %d: %w", r.Sequence, err)
		}
		r.Time = time.Duration(timeNs)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) insert(ctx context.Context, run uuid.UUID, r display.FrameReport) error {
	if s.db == nil {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO frames (run_id, sequence, surface, time_ns, outcome,
		       have_damage, size_matches, have_copy_requests, suspended,
		       width, height, damage_x0, damage_y0, damage_x1, damage_y1,
		       render_passes, quads, latency_infos, pending_swaps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.String(), r.Sequence, r.Surface, int64(r.Time), r.Outcome.String(),
		r.HaveDamage, r.SizeMatches, r.HaveCopyRequests, r.Suspended,
		r.Size.X, r.Size.Y, r.Damage.Min.X, r.Damage.Min.Y, r.Damage.Max.X, r.Damage.Max.Y,
		r.RenderPasses, r.Quads, r.LatencyInfos, r.PendingSwaps)
	if err != nil {
		return fmt.Errorf("tracestore: insert frame %d: %w", r.Sequence, err)
	}
	return nil
}

// Recorder appends the reports of one run. It implements display.Reporter.
//
// ReportFrame cannot return an error, so the first failure is kept and
// later reports are dropped. Check Err when the run ends.
type Recorder struct {
	store *Store
	run   Run
	err   error
}

// Run returns the run being recorded.
func (r *Recorder) Run() Run { return r.run }

// Err returns the first insert failure, if any.
func (r *Recorder) Err() error { return r.err }

// ReportFrame implements display.Reporter.
func (r *Recorder) ReportFrame(fr display.FrameReport) {
	if r.err != nil {
		return
	}
	if err := r.store.insert(context.Background(), r.run.ID, fr); err != nil {
		r.err = err
		compositor.Logger().Warn("tracestore: recording stopped", "run", r.run.ID, "err", err)
	}
}

var _ display.Reporter = (*Recorder)(nil)
