// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"time"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/beginframe"
	"github.com/gogpu/compositor/ids"
	"github.com/gogpu/compositor/internal/contract"
	"github.com/gogpu/compositor/task"
)

// SchedulerClient performs the draw the scheduler decided on.
type SchedulerClient interface {
	// DrawAndSwap reports whether a frame was aggregated.
	DrawAndSwap() bool
}

type surfaceSet map[ids.SurfaceID]struct{}

func (s surfaceSet) includes(other surfaceSet) bool {
	for id := range other {
		if _, ok := s[id]; !ok {
			return false
		}
	}
	return true
}

func (s surfaceSet) intersect(other surfaceSet) surfaceSet {
	out := make(surfaceSet)
	for id := range s {
		if _, ok := other[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// Scheduler decides when a Display draws. It observes the display's
// BeginFrame source only while there is something to draw, and draws at a
// deadline inside each BeginFrame interval.
//
// The deadline is early when every surface expected to change already did,
// and late (the end of the interval) when the root surface is still resizing,
// when its resources are locked or when too many swaps are pending.
type Scheduler struct {
	beginframe.ObserverBase

	source            beginframe.Source
	runner            task.Runner
	client            SchedulerClient
	maxPendingSwaps   int
	estimatedDrawTime time.Duration

	visible                    bool
	outputSurfaceLost          bool
	rootSurfaceResourcesLocked bool

	insideDeadlineInterval bool
	needsDraw              bool
	observing              bool
	pendingSwaps           int

	expectingRootDamageBecauseOfResize bool
	allActiveChildSurfacesReadyToDraw  bool
	rootSurfaceDamaged                 bool
	expectDamageFromRootSurface        bool

	rootSurfaceID     ids.SurfaceID
	childDamaged      surfaceSet
	childDamagedPrev  surfaceSet
	childExpectDamage surfaceSet

	current      beginframe.Args
	deadlineTask *task.Handle
	deadlineTime time.Duration
}

// NewScheduler creates a scheduler driven by source. It does nothing until
// SetClient is called.
func NewScheduler(source beginframe.Source, runner task.Runner, settings Settings) *Scheduler {
	if settings.MaxPendingSwaps < 1 {
		settings.MaxPendingSwaps = 1
	}
	s := &Scheduler{
		source:                            source,
		runner:                            runner,
		maxPendingSwaps:                   settings.MaxPendingSwaps,
		estimatedDrawTime:                 settings.EstimatedDrawTime,
		rootSurfaceResourcesLocked:        true,
		allActiveChildSurfacesReadyToDraw: true,
		childDamaged:                      make(surfaceSet),
		childDamagedPrev:                  make(surfaceSet),
		childExpectDamage:                 make(surfaceSet),
	}
	s.ObserverBase = beginframe.NewObserverBase(s.onBeginFrame)
	return s
}

// SetClient sets the display drawn by the scheduler.
func (s *Scheduler) SetClient(c SchedulerClient) { s.client = c }

// PendingSwaps returns the number of swaps awaiting acknowledgement.
func (s *Scheduler) PendingSwaps() int { return s.pendingSwaps }

// NeedsDraw reports whether damage arrived since the last draw.
func (s *Scheduler) NeedsDraw() bool { return s.needsDraw }

// Observing reports whether the scheduler is attached to its source.
func (s *Scheduler) Observing() bool { return s.observing }

// DeadlinePending reports the time of the scheduled deadline, if any.
func (s *Scheduler) DeadlinePending() (time.Duration, bool) {
	if s.deadlineTask == nil || !s.deadlineTask.Pending() {
		return 0, false
	}
	return s.deadlineTime, true
}

// SetVisible starts or stops drawing. A hidden scheduler detaches from its
// source at the next deadline.
func (s *Scheduler) SetVisible(visible bool) {
	if s.visible == visible {
		return
	}
	s.visible = visible
	s.startObserving()
	s.scheduleDeadline()
}

// SetRootSurfaceResourcesLocked blocks drawing while the root surface has no
// drawable frame.
func (s *Scheduler) SetRootSurfaceResourcesLocked(locked bool) {
	s.rootSurfaceResourcesLocked = locked
	s.scheduleDeadline()
}

// ForceImmediateSwapIfPossible draws now instead of at the deadline.
func (s *Scheduler) ForceImmediateSwapIfPossible() {
	inside := s.insideDeadlineInterval
	s.attemptDrawAndSwap()
	if inside {
		s.source.DidFinishFrame(s, 0)
	}
}

// DisplayResized makes the scheduler wait for the root surface to catch up
// with the new size.
func (s *Scheduler) DisplayResized() {
	s.expectingRootDamageBecauseOfResize = true
	s.needsDraw = true
	s.startObserving()
	s.scheduleDeadline()
}

// SetNewRootSurface switches the root surface and treats it as damaged.
func (s *Scheduler) SetNewRootSurface(id ids.SurfaceID) {
	s.rootSurfaceID = id
	s.SurfaceDamaged(id)
}

// SurfaceDamaged records damage to id.
func (s *Scheduler) SurfaceDamaged(id ids.SurfaceID) {
	s.needsDraw = true
	if id == s.rootSurfaceID {
		s.rootSurfaceDamaged = true
		s.expectingRootDamageBecauseOfResize = false
	} else {
		s.childDamaged[id] = struct{}{}
		s.allActiveChildSurfacesReadyToDraw = s.childDamaged.includes(s.childExpectDamage)
	}
	s.startObserving()
	s.scheduleDeadline()
}

// OutputSurfaceLost stops drawing for good.
func (s *Scheduler) OutputSurfaceLost() {
	s.outputSurfaceLost = true
	s.scheduleDeadline()
}

// DidSwapBuffers counts a swap awaiting acknowledgement.
func (s *Scheduler) DidSwapBuffers() { s.pendingSwaps++ }

// DidReceiveSwapBuffersAck retires the oldest pending swap.
func (s *Scheduler) DidReceiveSwapBuffersAck() {
	if !contract.Check(s.pendingSwaps > 0, "swap acknowledged with no pending swaps") {
		return
	}
	s.pendingSwaps--
	s.scheduleDeadline()
}

// OnBeginFrameSourcePausedChanged implements beginframe.Observer. Display
// sources are never paused.
func (s *Scheduler) OnBeginFrameSourcePausedChanged(paused bool) {
	if paused {
		compositor.Logger().Debug("display begin frame source paused")
	}
}

// Stop detaches from the source and drops the pending deadline.
func (s *Scheduler) Stop() {
	s.stopObserving()
	s.insideDeadlineInterval = false
	s.cancelDeadline()
}

func (s *Scheduler) onBeginFrame(args beginframe.Args) bool {
	// A new frame before the last deadline runs that deadline first.
	if s.insideDeadlineInterval {
		s.onDeadline()
	}
	s.current = args
	s.current.Deadline -= s.estimatedDrawTime
	s.insideDeadlineInterval = true
	s.scheduleDeadline()
	return true
}

func (s *Scheduler) shouldDraw() bool {
	return s.needsDraw && !s.outputSurfaceLost && s.visible
}

func (s *Scheduler) startObserving() {
	if s.observing || !s.shouldDraw() {
		return
	}
	s.observing = true
	s.source.AddObserver(s)
}

func (s *Scheduler) stopObserving() {
	if !s.observing {
		return
	}
	s.observing = false
	s.source.RemoveObserver(s)
}

// desiredDeadline returns the absolute deadline; zero means now.
func (s *Scheduler) desiredDeadline() time.Duration {
	late := s.current.FrameTime + s.current.Interval
	switch {
	case s.outputSurfaceLost:
		return 0
	case s.pendingSwaps >= s.maxPendingSwaps:
		return late
	case !s.needsDraw:
		return late
	case s.rootSurfaceResourcesLocked:
		return late
	}
	allReady := !s.expectingRootDamageBecauseOfResize && s.allActiveChildSurfacesReadyToDraw
	if allReady && (!s.expectDamageFromRootSurface || s.rootSurfaceDamaged) {
		return 0
	}
	if s.expectingRootDamageBecauseOfResize {
		return late
	}
	return s.current.Deadline
}

func (s *Scheduler) scheduleDeadline() {
	if !s.insideDeadlineInterval {
		return
	}
	want := s.desiredDeadline()
	if s.deadlineTask != nil && s.deadlineTask.Pending() && want == s.deadlineTime {
		return
	}
	s.cancelDeadline()
	s.deadlineTime = want
	s.deadlineTask = s.runner.PostDelayedTask(s.onDeadline, max(0, want-s.runner.Now()))
}

func (s *Scheduler) cancelDeadline() {
	if s.deadlineTask != nil {
		s.deadlineTask.Cancel()
		s.deadlineTask = nil
	}
	s.deadlineTime = 0
}

func (s *Scheduler) onDeadline() {
	s.attemptDrawAndSwap()
	s.source.DidFinishFrame(s, 0)
}

func (s *Scheduler) attemptDrawAndSwap() {
	s.insideDeadlineInterval = false
	s.cancelDeadline()

	if s.shouldDraw() {
		if s.pendingSwaps < s.maxPendingSwaps && !s.rootSurfaceResourcesLocked {
			s.drawAndSwap()
		}
		return
	}
	// Going idle: forget what we expected.
	clear(s.childExpectDamage)
	clear(s.childDamagedPrev)
	clear(s.childDamaged)
	s.allActiveChildSurfacesReadyToDraw = true
	s.expectDamageFromRootSurface = false
	s.stopObserving()
}

func (s *Scheduler) drawAndSwap() {
	if s.client == nil || !s.client.DrawAndSwap() {
		return
	}
	s.childExpectDamage = s.childDamaged.intersect(s.childDamagedPrev)
	s.childDamagedPrev, s.childDamaged = s.childDamaged, s.childDamagedPrev
	clear(s.childDamaged)
	s.needsDraw = false
	s.allActiveChildSurfacesReadyToDraw = len(s.childExpectDamage) == 0
	s.expectDamageFromRootSurface = s.rootSurfaceDamaged
	s.rootSurfaceDamaged = false
}

var _ beginframe.Observer = (*Scheduler)(nil)
