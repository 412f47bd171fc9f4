// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package task

import (
	"context"
	"sync"
	"time"
)

// LoopRunner is a real-time Runner. Tasks may be posted from any goroutine
// but they all run on the goroutine that calls Run, which plays the role of
// the compositor thread.
type LoopRunner struct {
	epoch time.Time

	mu   sync.Mutex
	q    queue
	wake chan struct{}
}

// NewLoopRunner creates a runner whose epoch is the current wall time.
func NewLoopRunner() *LoopRunner {
	return &LoopRunner{
		epoch: time.Now(),
		wake:  make(chan struct{}, 1),
	}
}

// Now returns the monotonic time elapsed since the runner was created.
func (r *LoopRunner) Now() time.Duration { return time.Since(r.epoch) }

// PostTask schedules t to run as soon as possible.
func (r *LoopRunner) PostTask(t Task) *Handle {
	return r.PostDelayedTask(t, 0)
}

// PostDelayedTask schedules t to run after delay.
func (r *LoopRunner) PostDelayedTask(t Task, delay time.Duration) *Handle {
	if delay < 0 {
		delay = 0
	}
	r.mu.Lock()
	h := r.q.push(t, r.Now()+delay)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return h
}

// Run executes tasks until ctx is done. It returns ctx.Err().
func (r *LoopRunner) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.mu.Lock()
		e := r.q.peek()
		var wait time.Duration
		if e != nil {
			wait = e.at - r.Now()
			if wait <= 0 {
				r.q.pop()
			}
		}
		r.mu.Unlock()

		if e != nil && wait <= 0 {
			if e.handle.claim() {
				e.fn()
			}
			continue
		}

		if e == nil {
			wait = time.Hour
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.wake:
		case <-timer.C:
		}
	}
}

var _ Runner = (*LoopRunner)(nil)
