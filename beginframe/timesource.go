// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package beginframe

import (
	"time"

	"github.com/gogpu/compositor/task"
)

// DelayBasedTimeSource is a periodic timer aligned to a (timebase, interval)
// pair. Tick times are the nominal vsync times, not the times the posted
// task actually ran.
type DelayBasedTimeSource struct {
	runner task.Runner
	client func()

	active   bool
	timebase time.Duration
	interval time.Duration

	lastTick time.Duration
	nextTick time.Duration
	tick     *task.Handle
}

// NewDelayBasedTimeSource creates an inactive time source with timebase zero
// and DefaultInterval.
func NewDelayBasedTimeSource(runner task.Runner) *DelayBasedTimeSource {
	return &DelayBasedTimeSource{
		runner:   runner,
		interval: DefaultInterval,
	}
}

// SetClient sets the function called on every tick.
func (t *DelayBasedTimeSource) SetClient(fn func()) { t.client = fn }

// SetActive starts or stops ticking.
func (t *DelayBasedTimeSource) SetActive(active bool) {
	if active == t.active {
		return
	}
	t.active = active
	if !active {
		t.tick.Cancel()
		t.tick = nil
		return
	}
	t.postNextTick(t.runner.Now())
}

// Active reports whether the source is ticking.
func (t *DelayBasedTimeSource) Active() bool { return t.active }

// SetTimebaseAndInterval rebases the timer. When active, the pending tick is
// re-posted so the new parameters apply to the very next tick.
func (t *DelayBasedTimeSource) SetTimebaseAndInterval(timebase, interval time.Duration) {
	t.timebase = timebase
	t.interval = interval
	if t.active {
		t.tick.Cancel()
		t.postNextTick(t.runner.Now())
	}
}

// Timebase returns the vsync timebase.
func (t *DelayBasedTimeSource) Timebase() time.Duration { return t.timebase }

// Interval returns the tick interval.
func (t *DelayBasedTimeSource) Interval() time.Duration { return t.interval }

// LastTickTime returns the nominal time of the most recent tick.
func (t *DelayBasedTimeSource) LastTickTime() time.Duration { return t.lastTick }

// NextTickTime returns the nominal time of the next tick, or zero when
// inactive.
func (t *DelayBasedTimeSource) NextTickTime() time.Duration {
	if !t.active {
		return 0
	}
	return t.nextTick
}

func (t *DelayBasedTimeSource) onTick() {
	t.lastTick = t.nextTick
	t.postNextTick(t.runner.Now())
	if t.client != nil {
		t.client()
	}
}

func (t *DelayBasedTimeSource) postNextTick(now time.Duration) {
	next := now
	if t.interval > 0 {
		next = snapToNextTick(now, t.timebase, t.interval)
		if next == now {
			next += t.interval
		}
	}
	t.nextTick = next
	t.tick = t.runner.PostDelayedTask(t.onTick, next-now)
}

// snapToNextTick returns the first time >= now that lies on the grid
// timebase + k*interval.
func snapToNextTick(now, timebase, interval time.Duration) time.Duration {
	offset := (now - timebase) % interval
	if offset < 0 {
		offset += interval
	}
	if offset == 0 {
		return now
	}
	return now + interval - offset
}
