// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/ids"
)

// DrawCallback is run once the compositor has consumed a surface's frame.
//
// Consumed means the aggregator took the frame's damage for a draw, not that
// the pixels reached the screen. After the callback the client may submit
// its next frame without it being queued behind the GPU.
type DrawCallback func()

// Surface holds the most recent frame submitted for one SurfaceID.
type Surface struct {
	id      ids.SurfaceID
	factory *Factory

	current    *frame.CompositorFrame
	frameIndex int

	// previousID is the surface this one replaced, or id itself.
	previousID ids.SurfaceID

	drawCallback DrawCallback
	destroyed    bool
}

func newSurface(id ids.SurfaceID, factory *Factory) *Surface {
	return &Surface{id: id, factory: factory, previousID: id}
}

// ID returns the surface id.
func (s *Surface) ID() ids.SurfaceID { return s.id }

// Frame returns the current frame. Callers must not mutate it.
func (s *Surface) Frame() *frame.CompositorFrame { return s.current }

// HasFrame reports whether a non-empty frame was submitted.
func (s *Surface) HasFrame() bool { return s.current != nil && !s.current.IsEmpty() }

// FrameIndex counts the non-empty frames the surface has received. It
// changes whenever the surface has new content.
func (s *Surface) FrameIndex() int { return s.frameIndex }

// PreviousFrameSurfaceID returns the id of the surface this one replaced, or
// the surface's own id when it replaced none.
func (s *Surface) PreviousFrameSurfaceID() ids.SurfaceID { return s.previousID }

// Destroyed reports whether the surface was destroyed.
func (s *Surface) Destroyed() bool { return s.destroyed }

// queueFrame replaces the current frame. The previous frame's resources are
// released and a draw callback still pending for it runs now.
func (s *Surface) queueFrame(f *frame.CompositorFrame, cb DrawCallback) {
	previous := s.current
	s.current = f
	if f != nil {
		s.factory.resources.receive(f.Resources)
		if !f.IsEmpty() {
			s.frameIndex++
		}
	}
	if previous != nil {
		s.factory.unrefResources(frame.ReturnAll(previous.Resources))
		dropCopyRequests(previous)
	}
	s.RunDrawCallbacks()
	s.drawCallback = cb
}

// setPreviousFrameSurface links s to the surface it replaces so frame
// indices keep increasing across the switch.
func (s *Surface) setPreviousFrameSurface(prev *Surface) {
	s.previousID = prev.id
	s.frameIndex = prev.frameIndex + 1
}

// RequestCopyOfOutput attaches req to the root pass of the current frame.
// Without a frame the request is dropped.
func (s *Surface) RequestCopyOfOutput(req *frame.CopyOutputRequest) {
	root := s.current.RootPass()
	if root == nil {
		req.SendEmptyResult()
		return
	}
	root.RequestCopy(req)
}

// TakeCopyOutputRequests removes every copy request from the current frame
// and returns them keyed by pass id.
func (s *Surface) TakeCopyOutputRequests() map[frame.RenderPassID][]*frame.CopyOutputRequest {
	if s.current == nil {
		return nil
	}
	var out map[frame.RenderPassID][]*frame.CopyOutputRequest
	for _, p := range s.current.RenderPasses {
		if len(p.CopyRequests) == 0 {
			continue
		}
		if out == nil {
			out = make(map[frame.RenderPassID][]*frame.CopyOutputRequest)
		}
		out[p.ID] = append(out[p.ID], p.CopyRequests...)
		p.CopyRequests = nil
	}
	return out
}

// RunDrawCallbacks runs and clears the pending draw callback.
func (s *Surface) RunDrawCallbacks() {
	cb := s.drawCallback
	s.drawCallback = nil
	if cb != nil {
		cb()
	}
}

func (s *Surface) destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	if s.current != nil {
		dropCopyRequests(s.current)
		s.factory.unrefResources(frame.ReturnAll(s.current.Resources))
	}
	s.RunDrawCallbacks()
}

func dropCopyRequests(f *frame.CompositorFrame) {
	for _, p := range f.RenderPasses {
		for _, req := range p.CopyRequests {
			req.SendEmptyResult()
		}
		p.CopyRequests = nil
	}
}
