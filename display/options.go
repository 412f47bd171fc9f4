// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"time"

	"github.com/gogpu/compositor/beginframe"
	"github.com/gogpu/compositor/task"
)

// Settings configures a Display and its Scheduler.
type Settings struct {
	// FinishRenderingOnResize forces a pending swap out before the display
	// changes size so the old frame is not stretched.
	FinishRenderingOnResize bool

	// MaxPendingSwaps limits how many swaps may await acknowledgement
	// before the scheduler stops drawing.
	MaxPendingSwaps int

	// EstimatedDrawTime is subtracted from BeginFrame deadlines to leave
	// room for the draw itself.
	EstimatedDrawTime time.Duration
}

// DefaultSettings returns the default settings.
func DefaultSettings() Settings {
	return Settings{
		FinishRenderingOnResize: false,
		MaxPendingSwaps:         1,
		EstimatedDrawTime:       beginframe.DefaultInterval / 4,
	}
}

// Option configures a Display.
type Option func(*options)

type options struct {
	settings  Settings
	source    beginframe.Source
	runner    task.Runner
	reporters []Reporter
}

// WithSettings replaces the default settings. A non-positive
// MaxPendingSwaps is raised to 1.
func WithSettings(s Settings) Option {
	return func(o *options) {
		if s.MaxPendingSwaps < 1 {
			s.MaxPendingSwaps = 1
		}
		o.settings = s
	}
}

// WithBeginFrameSource paces the display with source. The display registers
// the source for its frame sink on Initialize and drives DrawAndSwap from a
// Scheduler running on runner. Without it DrawAndSwap must be called
// directly.
func WithBeginFrameSource(source beginframe.Source, runner task.Runner) Option {
	return func(o *options) {
		o.source = source
		o.runner = runner
	}
}

// WithReporter adds a frame report sink.
func WithReporter(r Reporter) Option {
	return func(o *options) {
		if r != nil {
			o.reporters = append(o.reporters, r)
		}
	}
}
