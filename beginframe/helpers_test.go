// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package beginframe

import (
	"testing"
	"time"

	"github.com/gogpu/compositor/internal/contract"
)

func us(n int64) time.Duration { return time.Duration(n) * time.Microsecond }

// fakeObserver records every tick and pause notification.
type fakeObserver struct {
	ObserverBase
	name    string
	frames  []Args
	paused  []bool
	use     bool
	onFrame func(Args)
}

func newFakeObserver(name string) *fakeObserver {
	o := &fakeObserver{name: name, use: true}
	o.ObserverBase = NewObserverBase(o.handle)
	return o
}

func (o *fakeObserver) handle(args Args) bool {
	o.frames = append(o.frames, args)
	if o.onFrame != nil {
		o.onFrame(args)
	}
	return o.use
}

func (o *fakeObserver) OnBeginFrameSourcePausedChanged(paused bool) {
	o.paused = append(o.paused, paused)
}

func (o *fakeObserver) lastFrame(t *testing.T) Args {
	t.Helper()
	if len(o.frames) == 0 {
		t.Fatalf("%s received no begin frames", o.name)
	}
	return o.frames[len(o.frames)-1]
}

func expectArgs(t *testing.T, got Args, seq uint64, frameTime, deadline, interval time.Duration, typ ArgsType) {
	t.Helper()
	if got.SequenceNumber != seq {
		t.Errorf("SequenceNumber = %d, want %d", got.SequenceNumber, seq)
	}
	if got.FrameTime != frameTime {
		t.Errorf("FrameTime = %v, want %v", got.FrameTime, frameTime)
	}
	if got.Deadline != deadline {
		t.Errorf("Deadline = %v, want %v", got.Deadline, deadline)
	}
	if got.Interval != interval {
		t.Errorf("Interval = %v, want %v", got.Interval, interval)
	}
	if got.Type != typ {
		t.Errorf("Type = %v, want %v", got.Type, typ)
	}
}

// captureViolations routes contract violations into a slice for the test.
func captureViolations(t *testing.T) *[]string {
	t.Helper()
	var got []string
	restore := contract.SetHook(func(msg string) { got = append(got, msg) })
	t.Cleanup(restore)
	return &got
}
