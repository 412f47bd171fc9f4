// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package beginframe

import "time"

// Option configures a synthetic source.
type Option func(*options)

type options struct {
	interval time.Duration
	deadline time.Duration
	timebase time.Duration
}

func defaultOptions() options {
	return options{
		interval: DefaultInterval,
		deadline: DefaultInterval,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithDefaultInterval sets the interval reported when no vsync information
// is available. For delay-based sources it is the initial timer interval.
// Non-positive values are ignored.
func WithDefaultInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithDefaultDeadline sets how far after the frame time a back-to-back tick's
// deadline lies. Negative values are ignored.
func WithDefaultDeadline(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.deadline = d
		}
	}
}

// WithTimebase sets the initial vsync timebase of a delay-based source.
func WithTimebase(t time.Duration) Option {
	return func(o *options) {
		o.timebase = t
	}
}
