// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package beginframe

import (
	"time"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/internal/contract"
	"github.com/gogpu/compositor/task"
)

// BackToBackSource ticks as soon as its observers finish their previous
// frame. Each observer has at most one frame in flight: it is pending from
// the moment it is added or reports DidFinishFrame(obs, 0) until the next
// tick is delivered to it.
//
// States: idle (no tick posted) and frame scheduled (one tick posted). Any
// number of DidFinishFrame calls before the tick runs collapse into it.
type BackToBackSource struct {
	runner task.Runner
	id     uint64

	observers observerList
	pending   observerList

	interval time.Duration
	deadline time.Duration

	nextSequence uint64
	tick         *task.Handle
	tickTime     time.Duration
}

// NewBackToBackSource creates a back-to-back source on runner.
func NewBackToBackSource(runner task.Runner, opts ...Option) *BackToBackSource {
	o := applyOptions(opts)
	return &BackToBackSource{
		runner:       runner,
		id:           nextSourceID(),
		interval:     o.interval,
		deadline:     o.deadline,
		nextSequence: StartingSequenceNumber,
	}
}

// SourceID returns the source id.
func (s *BackToBackSource) SourceID() uint64 { return s.id }

// Kind returns KindBackToBack.
func (s *BackToBackSource) Kind() Kind { return KindBackToBack }

// ObserverCount returns the number of attached observers.
func (s *BackToBackSource) ObserverCount() int { return s.observers.len() }

// AddObserver attaches obs, marks it pending and schedules a tick.
func (s *BackToBackSource) AddObserver(obs Observer) {
	if !contract.Check(obs != nil, "nil observer added to back-to-back source %d", s.id) {
		return
	}
	if !s.observers.add(obs) {
		contract.Violation("observer added twice to back-to-back source %d", s.id)
		return
	}
	s.pending.add(obs)
	obs.OnBeginFrameSourcePausedChanged(false)
	s.scheduleTick()
}

// RemoveObserver detaches obs. When no observer is waiting for a frame the
// scheduled tick is dropped.
func (s *BackToBackSource) RemoveObserver(obs Observer) {
	if !s.observers.remove(obs) {
		return
	}
	s.pending.remove(obs)
	if s.pending.len() == 0 && s.tick.Pending() {
		s.tick.Cancel()
		compositor.Logger().Debug("back-to-back tick dropped", "source", s.id)
	}
}

// DidFinishFrame marks obs pending again once it has no frames left.
func (s *BackToBackSource) DidFinishFrame(obs Observer, remainingFrames int) {
	if remainingFrames != 0 || !s.observers.contains(obs) {
		return
	}
	s.pending.add(obs)
	s.scheduleTick()
}

// OnUpdateVSyncParameters is ignored: back-to-back ticks are not vsync aligned.
func (s *BackToBackSource) OnUpdateVSyncParameters(timebase, interval time.Duration) {}

// SetAuthoritativeVSyncInterval is ignored.
func (s *BackToBackSource) SetAuthoritativeVSyncInterval(interval time.Duration) {}

func (s *BackToBackSource) synthetic() {}

// scheduleTick posts a tick stamped with the current time. The stamp is taken
// now so a late running task does not shift the frame time.
func (s *BackToBackSource) scheduleTick() {
	if s.tick.Pending() {
		return
	}
	s.tickTime = s.runner.Now()
	s.tick = s.runner.PostTask(s.onTick)
}

func (s *BackToBackSource) onTick() {
	pending := s.pending.take()
	if len(pending) == 0 {
		return
	}

	args := NewArgs(s.id, s.nextSequence, s.tickTime, s.tickTime+s.deadline, s.interval, ArgsNormal)
	s.nextSequence++

	for _, obs := range pending {
		// An earlier observer may have removed this one during dispatch.
		if !s.observers.contains(obs) {
			continue
		}
		obs.OnBeginFrame(args)
	}
}

var _ SyntheticSource = (*BackToBackSource)(nil)
