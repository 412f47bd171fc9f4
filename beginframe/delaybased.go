// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package beginframe

import (
	"time"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/internal/contract"
)

// doubleTickDivisor guards against delivering two ticks for one interval: a
// tick is only issued when it is more than interval/doubleTickDivisor past
// the observer's last used frame time.
const doubleTickDivisor = 2

// DelayBasedSource ticks at vsync-aligned times driven by a
// DelayBasedTimeSource.
//
// A newly added observer immediately receives a Missed tick for the most
// recent vsync so it is not starved until the next one. Regular ticks are
// Normal.
//
// The time source is owned by the caller. Removing the last observer does
// not stop it; the source simply has nobody to notify.
type DelayBasedSource struct {
	timeSource *DelayBasedTimeSource
	id         uint64

	observers observerList
	paused    bool

	nextSequence uint64
	lastArgs     Args

	lastTimebase          time.Duration
	authoritativeInterval time.Duration
}

// NewDelayBasedSource creates a source driven by ts and takes over its client
// callback.
func NewDelayBasedSource(ts *DelayBasedTimeSource) *DelayBasedSource {
	s := &DelayBasedSource{
		timeSource:   ts,
		id:           nextSourceID(),
		nextSequence: StartingSequenceNumber,
		lastTimebase: ts.Timebase(),
	}
	ts.SetClient(s.onTimerTick)
	return s
}

// SourceID returns the source id.
func (s *DelayBasedSource) SourceID() uint64 { return s.id }

// Kind returns KindDelayBased.
func (s *DelayBasedSource) Kind() Kind { return KindDelayBased }

// TimeSource returns the timer driving the source.
func (s *DelayBasedSource) TimeSource() *DelayBasedTimeSource { return s.timeSource }

// ObserverCount returns the number of attached observers.
func (s *DelayBasedSource) ObserverCount() int { return s.observers.len() }

// AddObserver attaches obs and delivers a Missed tick for the last vsync.
func (s *DelayBasedSource) AddObserver(obs Observer) {
	if !contract.Check(obs != nil, "nil observer added to delay-based source %d", s.id) {
		return
	}
	if !s.observers.add(obs) {
		contract.Violation("observer added twice to delay-based source %d", s.id)
		return
	}
	obs.OnBeginFrameSourcePausedChanged(s.paused)
	s.timeSource.SetActive(true)
	if s.paused {
		return
	}

	// Reuse the last args while they still describe the last vsync so the
	// missed tick carries the same sequence number every observer saw.
	missedTime := s.timeSource.NextTickTime() - s.timeSource.Interval()
	if !s.lastArgs.IsValid() || s.lastArgs.FrameTime != missedTime {
		s.lastArgs = s.createArgs(missedTime)
	}
	s.issue(obs, s.lastArgs.AsMissed())
}

// RemoveObserver detaches obs. Removing an unknown observer is a no-op.
func (s *DelayBasedSource) RemoveObserver(obs Observer) {
	s.observers.remove(obs)
}

// DidFinishFrame is a no-op: ticks follow the timer, not the observers.
func (s *DelayBasedSource) DidFinishFrame(obs Observer, remainingFrames int) {}

// OnUpdateVSyncParameters rebases future ticks. When an authoritative
// interval is set only the timebase moves. A zero interval means "unknown"
// and falls back to DefaultInterval.
func (s *DelayBasedSource) OnUpdateVSyncParameters(timebase, interval time.Duration) {
	switch {
	case s.authoritativeInterval > 0:
		interval = s.authoritativeInterval
	case interval <= 0:
		interval = DefaultInterval
	}
	s.lastTimebase = timebase
	s.timeSource.SetTimebaseAndInterval(timebase, interval)
}

// SetAuthoritativeVSyncInterval pins the interval to a value known out of
// band, for example the display's configured refresh rate. Zero unpins it.
func (s *DelayBasedSource) SetAuthoritativeVSyncInterval(interval time.Duration) {
	if interval < 0 {
		interval = 0
	}
	s.authoritativeInterval = interval
	s.OnUpdateVSyncParameters(s.lastTimebase, s.timeSource.Interval())
}

// SetPaused stops or resumes tick delivery and tells every observer.
func (s *DelayBasedSource) SetPaused(paused bool) {
	if paused == s.paused {
		return
	}
	s.paused = paused
	for _, obs := range s.observers.snapshot() {
		if s.observers.contains(obs) {
			obs.OnBeginFrameSourcePausedChanged(paused)
		}
	}
}

// Paused reports whether delivery is paused.
func (s *DelayBasedSource) Paused() bool { return s.paused }

func (s *DelayBasedSource) synthetic() {}

func (s *DelayBasedSource) createArgs(frameTime time.Duration) Args {
	seq := s.nextSequence
	s.nextSequence++
	return NewArgs(s.id, seq, frameTime, s.timeSource.NextTickTime(), s.timeSource.Interval(), ArgsNormal)
}

func (s *DelayBasedSource) onTimerTick() {
	s.lastArgs = s.createArgs(s.timeSource.LastTickTime())
	if s.paused {
		return
	}
	for _, obs := range s.observers.snapshot() {
		if !s.observers.contains(obs) {
			continue
		}
		s.issue(obs, s.lastArgs)
	}
}

// issue delivers args unless obs already used a tick for the same interval.
func (s *DelayBasedSource) issue(obs Observer, args Args) {
	last := obs.LastUsedBeginFrameArgs()
	if last.IsValid() && args.FrameTime <= last.FrameTime+args.Interval/doubleTickDivisor {
		compositor.Logger().Debug("begin frame suppressed as double tick",
			"source", s.id, "frame_time", args.FrameTime, "last_used", last.FrameTime)
		return
	}
	obs.OnBeginFrame(args)
}

var _ SyntheticSource = (*DelayBasedSource)(nil)
