// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package task

import "time"

// runLimit bounds RunUntilIdle so a self-reposting timer cannot spin forever.
const runLimit = 1 << 16

// ManualRunner is a Runner with a virtual clock. Nothing runs until one of
// the Run methods is called, and the clock only moves when told to.
//
// ManualRunner is NOT safe for concurrent use.
type ManualRunner struct {
	now time.Duration
	q   queue
}

// NewManualRunner creates a runner whose clock reads start.
func NewManualRunner(start time.Duration) *ManualRunner {
	return &ManualRunner{now: start}
}

// Now returns the virtual time.
func (r *ManualRunner) Now() time.Duration { return r.now }

// PostTask schedules t at the current virtual time.
func (r *ManualRunner) PostTask(t Task) *Handle {
	return r.q.push(t, r.now)
}

// PostDelayedTask schedules t at now+delay.
func (r *ManualRunner) PostDelayedTask(t Task, delay time.Duration) *Handle {
	if delay < 0 {
		delay = 0
	}
	return r.q.push(t, r.now+delay)
}

// Advance moves the clock forward by d without running anything.
func (r *ManualRunner) Advance(d time.Duration) {
	if d > 0 {
		r.now += d
	}
}

// SetNow moves the clock to t. Moving backwards is ignored.
func (r *ManualRunner) SetNow(t time.Duration) {
	if t > r.now {
		r.now = t
	}
}

// PendingTasks returns the number of tasks that have not run or been canceled.
func (r *ManualRunner) PendingTasks() int { return r.q.live() }

// HasPendingTasks reports whether any task is still pending.
func (r *ManualRunner) HasPendingTasks() bool { return r.q.peek() != nil }

// NextTaskTime returns the run time of the next pending task.
func (r *ManualRunner) NextTaskTime() (time.Duration, bool) {
	e := r.q.peek()
	if e == nil {
		return 0, false
	}
	return e.at, true
}

// RunPendingTasks runs the tasks that are due now and were posted before the
// call. Tasks posted while running wait for the next call. It returns the
// number of tasks run.
func (r *ManualRunner) RunPendingTasks() int {
	var due []*entry
	for {
		e := r.q.peek()
		if e == nil || e.at > r.now {
			break
		}
		due = append(due, r.q.pop())
	}
	n := 0
	for _, e := range due {
		if e.handle.claim() {
			e.fn()
			n++
		}
	}
	return n
}

// RunNextTask runs the next pending task, advancing the clock to its run
// time if that is in the future.
func (r *ManualRunner) RunNextTask() bool {
	e := r.q.pop()
	if e == nil {
		return false
	}
	r.SetNow(e.at)
	if e.handle.claim() {
		e.fn()
	}
	return true
}

// RunUntilTime runs every task scheduled at or before t in order, advancing
// the clock as it goes, and leaves the clock at t.
func (r *ManualRunner) RunUntilTime(t time.Duration) int {
	n := 0
	for {
		e := r.q.peek()
		if e == nil || e.at > t {
			break
		}
		if r.RunNextTask() {
			n++
		}
	}
	r.SetNow(t)
	return n
}

// RunFor is RunUntilTime(Now()+d).
func (r *ManualRunner) RunFor(d time.Duration) int {
	return r.RunUntilTime(r.now + d)
}

// RunUntilIdle runs tasks until none are pending, advancing the clock to each
// task's run time. It stops after an internal limit when tasks keep
// re-posting themselves.
func (r *ManualRunner) RunUntilIdle() int {
	n := 0
	for n < runLimit && r.RunNextTask() {
		n++
	}
	return n
}

var _ Runner = (*ManualRunner)(nil)
