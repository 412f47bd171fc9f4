// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package beginframe

import (
	"testing"

	"github.com/gogpu/compositor/task"
)

// newDelayBased returns a source with timebase 0 and a 10ms interval on a
// runner whose clock starts at 1ms.
func newDelayBased() (*task.ManualRunner, *DelayBasedSource) {
	r := task.NewManualRunner(us(1000))
	s := NewDelayBasedSource(NewDelayBasedTimeSource(r))
	s.OnUpdateVSyncParameters(0, us(10000))
	return r, s
}

func TestDelayBasedAddObserverSendsMissedBeginFrame(t *testing.T) {
	r, src := newDelayBased()
	r.Advance(us(9010))
	obs := newFakeObserver("obs")

	src.AddObserver(obs)
	if len(obs.paused) != 1 || obs.paused[0] {
		t.Errorf("paused notifications = %v, want [false]", obs.paused)
	}
	if len(obs.frames) != 1 {
		t.Fatalf("frames = %d, want 1 delivered synchronously", len(obs.frames))
	}
	expectArgs(t, obs.frames[0], 1, us(10000), us(20000), us(10000), ArgsMissed)
	if !src.TimeSource().Active() {
		t.Error("time source not activated by AddObserver")
	}
	// The missed frame posts nothing; the only task is the timer's next tick.
	if n := r.PendingTasks(); n != 1 {
		t.Errorf("pending tasks = %d, want 1", n)
	}
	if next, ok := r.NextTaskTime(); !ok || next != us(20000) {
		t.Errorf("next tick at %v (ok=%v), want 20ms", next, ok)
	}
}

func TestDelayBasedRegularTicks(t *testing.T) {
	r, src := newDelayBased()
	r.Advance(us(9010))
	obs := newFakeObserver("obs")
	src.AddObserver(obs)

	r.RunUntilTime(us(20000))
	expectArgs(t, obs.lastFrame(t), 2, us(20000), us(30000), us(10000), ArgsNormal)

	r.RunUntilTime(us(30000))
	expectArgs(t, obs.lastFrame(t), 3, us(30000), us(40000), us(10000), ArgsNormal)
	if len(obs.frames) != 3 {
		t.Errorf("frames = %d, want 3", len(obs.frames))
	}
}

func TestDelayBasedLateTaskKeepsNominalFrameTime(t *testing.T) {
	r, src := newDelayBased()
	r.Advance(us(9010))
	obs := newFakeObserver("obs")
	src.AddObserver(obs)
	r.RunUntilTime(us(20000))

	// The 30ms tick only gets to run at 32ms.
	r.Advance(us(12000))
	r.RunPendingTasks()
	expectArgs(t, obs.lastFrame(t), 3, us(30000), us(40000), us(10000), ArgsNormal)

	next, ok := r.NextTaskTime()
	if !ok || next != us(40000) {
		t.Errorf("next tick at %v (ok=%v), want 40ms", next, ok)
	}
}

func TestDelayBasedRemoveLastObserverKeepsTimer(t *testing.T) {
	r, src := newDelayBased()
	obs := newFakeObserver("obs")
	src.AddObserver(obs)
	src.RemoveObserver(obs)

	if !src.TimeSource().Active() {
		t.Error("time source stopped after the last observer left")
	}
	before := len(obs.frames)
	r.RunUntilTime(us(30000))
	if len(obs.frames) != before {
		t.Errorf("removed observer received %d more frames", len(obs.frames)-before)
	}
	if src.ObserverCount() != 0 {
		t.Errorf("ObserverCount = %d, want 0", src.ObserverCount())
	}
}

func TestDelayBasedRebaseAppliesToNextTick(t *testing.T) {
	r, src := newDelayBased()
	r.Advance(us(9010))
	obs := newFakeObserver("obs")
	src.AddObserver(obs)

	src.OnUpdateVSyncParameters(us(5000), us(20000))
	next, ok := r.NextTaskTime()
	if !ok || next != us(25000) {
		t.Fatalf("next tick at %v (ok=%v), want 25ms", next, ok)
	}
	r.RunUntilTime(us(25000))
	expectArgs(t, obs.lastFrame(t), 2, us(25000), us(45000), us(20000), ArgsNormal)
}

func TestDelayBasedZeroIntervalFallsBackToDefault(t *testing.T) {
	_, src := newDelayBased()
	src.OnUpdateVSyncParameters(0, 0)
	if got := src.TimeSource().Interval(); got != DefaultInterval {
		t.Errorf("Interval = %v, want %v", got, DefaultInterval)
	}
}

func TestDelayBasedAuthoritativeInterval(t *testing.T) {
	_, src := newDelayBased()

	src.SetAuthoritativeVSyncInterval(us(16000))
	if got := src.TimeSource().Interval(); got != us(16000) {
		t.Fatalf("Interval = %v, want 16ms after pinning", got)
	}

	src.OnUpdateVSyncParameters(us(2000), us(10000))
	if got := src.TimeSource().Interval(); got != us(16000) {
		t.Errorf("Interval = %v, want pinned 16ms", got)
	}
	if got := src.TimeSource().Timebase(); got != us(2000) {
		t.Errorf("Timebase = %v, want 2ms", got)
	}

	src.SetAuthoritativeVSyncInterval(0)
	src.OnUpdateVSyncParameters(us(2000), us(10000))
	if got := src.TimeSource().Interval(); got != us(10000) {
		t.Errorf("Interval = %v, want 10ms after unpinning", got)
	}
}

func TestDelayBasedSuppressesDoubleTick(t *testing.T) {
	r, src := newDelayBased()
	r.Advance(us(9010))
	obs := newFakeObserver("obs")
	src.AddObserver(obs) // uses the 10ms missed tick

	// Shift the vsync phase so the next tick lands only 3ms later.
	src.OnUpdateVSyncParameters(us(3000), us(10000))
	r.RunUntilTime(us(13000))
	if len(obs.frames) != 1 {
		t.Fatalf("frames = %d, want the 13ms tick suppressed", len(obs.frames))
	}

	r.RunUntilTime(us(23000))
	if len(obs.frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(obs.frames))
	}
	expectArgs(t, obs.lastFrame(t), 3, us(23000), us(33000), us(10000), ArgsNormal)
}

func TestDelayBasedMissedTickReusesSequenceNumber(t *testing.T) {
	r, src := newDelayBased()
	r.Advance(us(9010))
	a := newFakeObserver("a")
	b := newFakeObserver("b")
	src.AddObserver(a)
	src.AddObserver(b)
	if a.frames[0].SequenceNumber != b.frames[0].SequenceNumber {
		t.Errorf("missed ticks for one vsync carry sequences %d and %d",
			a.frames[0].SequenceNumber, b.frames[0].SequenceNumber)
	}

	r.RunUntilTime(us(20000))
	c := newFakeObserver("c")
	src.AddObserver(c)
	expectArgs(t, c.lastFrame(t), 2, us(20000), us(30000), us(10000), ArgsMissed)
	if a.lastFrame(t).SequenceNumber != 2 {
		t.Errorf("a sequence = %d, want 2", a.lastFrame(t).SequenceNumber)
	}
}

func TestDelayBasedPause(t *testing.T) {
	r, src := newDelayBased()
	obs := newFakeObserver("obs")
	src.AddObserver(obs)
	n := len(obs.frames)

	src.SetPaused(true)
	if !src.Paused() || !obs.paused[len(obs.paused)-1] {
		t.Fatalf("pause not propagated: paused=%v notifications=%v", src.Paused(), obs.paused)
	}
	r.RunUntilTime(us(20000))
	if len(obs.frames) != n {
		t.Errorf("paused source delivered %d frames", len(obs.frames)-n)
	}

	late := newFakeObserver("late")
	src.AddObserver(late)
	if len(late.paused) != 1 || !late.paused[0] {
		t.Errorf("late observer paused notifications = %v, want [true]", late.paused)
	}
	if len(late.frames) != 0 {
		t.Error("missed tick delivered while paused")
	}

	src.SetPaused(false)
	r.RunUntilTime(us(30000))
	if len(obs.frames) != n+1 || len(late.frames) != 1 {
		t.Errorf("frames after resume obs=%d late=%d, want %d and 1", len(obs.frames), len(late.frames), n+1)
	}
}

func TestDelayBasedSelfRemovalDuringDispatch(t *testing.T) {
	r, src := newDelayBased()
	a := newFakeObserver("a")
	b := newFakeObserver("b")
	src.AddObserver(a)
	src.AddObserver(b)
	a.onFrame = func(Args) { src.RemoveObserver(b) }
	nb := len(b.frames)

	r.RunUntilTime(us(20000))
	if len(b.frames) != nb {
		t.Error("b notified after a removed it during dispatch")
	}
}

func TestSnapToNextTick(t *testing.T) {
	tests := []struct {
		now, timebase, interval, want int64
	}{
		{10010, 0, 10000, 20000},
		{20000, 0, 10000, 20000},
		{10010, 5000, 20000, 25000},
		{1000, 3000, 10000, 3000},
		{0, 7000, 10000, 7000},
	}
	for _, tt := range tests {
		got := snapToNextTick(us(tt.now), us(tt.timebase), us(tt.interval))
		if got != us(tt.want) {
			t.Errorf("snapToNextTick(%d, %d, %d) = %v, want %v", tt.now, tt.timebase, tt.interval, got, us(tt.want))
		}
	}
}
