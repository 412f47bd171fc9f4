// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package task provides the task queue abstraction the compositor runs on.
//
// A Runner executes posted tasks one at a time on a single logical thread.
// Delayed work is the only suspension point: BeginFrame sources post their
// next tick, they never block the current one.
//
// Time is expressed as a time.Duration offset from the runner's epoch, so a
// frame time of 10ms means 10ms after the runner started. ManualRunner drives
// that clock explicitly, which keeps tests deterministic.
package task

import (
	"sync/atomic"
	"time"
)

// Task is a unit of work run on a Runner.
type Task func()

// Runner runs tasks in (run time, posting order) order on one logical thread.
type Runner interface {
	// Now returns the current time as an offset from the runner's epoch.
	Now() time.Duration

	// PostTask schedules t to run as soon as possible.
	PostTask(t Task) *Handle

	// PostDelayedTask schedules t to run once delay has elapsed.
	// A non-positive delay behaves like PostTask.
	PostDelayedTask(t Task, delay time.Duration) *Handle
}

const (
	statePending int32 = iota
	stateRan
	stateCanceled
)

// Handle refers to a posted task. The zero value is not useful; handles are
// returned by Runner implementations. A nil *Handle is treated as a task that
// is no longer pending.
type Handle struct {
	state atomic.Int32
}

// Cancel prevents the task from running if it has not run yet.
// Cancel is idempotent.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.state.CompareAndSwap(statePending, stateCanceled)
}

// Pending reports whether the task has neither run nor been canceled.
func (h *Handle) Pending() bool {
	return h != nil && h.state.Load() == statePending
}

// Canceled reports whether the task was canceled before it ran.
func (h *Handle) Canceled() bool {
	return h != nil && h.state.Load() == stateCanceled
}

// claim marks the task as running. It returns false for canceled tasks.
func (h *Handle) claim() bool {
	return h.state.CompareAndSwap(statePending, stateRan)
}
