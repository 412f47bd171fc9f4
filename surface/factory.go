// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/ids"
)

// Errors returned by Factory.
var (
	ErrFrameSinkNotRegistered = errors.New("surface: frame sink id not registered")
	ErrInvalidLocalFrameID    = errors.New("surface: invalid local frame id")
	ErrFactoryClosed          = errors.New("surface: factory closed")
)

// Factory accepts frames for one frame sink and manages its surfaces.
type Factory struct {
	frameSinkID ids.FrameSinkID
	manager     *Manager
	client      FactoryClient

	current   *Surface
	resources resourceTracker
	closed    bool
}

// NewFactory creates a factory for id. client receives returned resources.
func NewFactory(id ids.FrameSinkID, manager *Manager, client FactoryClient) *Factory {
	return &Factory{
		frameSinkID: id,
		manager:     manager,
		client:      client,
		resources:   resourceTracker{refs: make(map[frame.ResourceID]int)},
	}
}

// FrameSinkID returns the frame sink the factory serves.
func (f *Factory) FrameSinkID() ids.FrameSinkID { return f.frameSinkID }

// CurrentSurface returns the surface holding the latest frame, or nil.
func (f *Factory) CurrentSurface() *Surface {
	if f.current != nil && f.current.destroyed {
		f.current = nil
	}
	return f.current
}

// SubmitCompositorFrame queues fr on the surface for local. A new local id
// creates a new surface and destroys the previous one.
//
// cb runs once the frame has been consumed by a draw, when it is replaced,
// or immediately when no observer will draw it.
func (f *Factory) SubmitCompositorFrame(local ids.LocalFrameID, fr *frame.CompositorFrame, cb DrawCallback) error {
	switch {
	case f.closed:
		return ErrFactoryClosed
	case !f.manager.IsValid(f.frameSinkID):
		return fmt.Errorf("%w: %v", ErrFrameSinkNotRegistered, f.frameSinkID)
	case !local.IsValid():
		return fmt.Errorf("%w: %v", ErrInvalidLocalFrameID, local)
	}
	if fr != nil && !fr.IsEmpty() {
		if err := fr.Validate(); err != nil {
			return fmt.Errorf("surface: %v rejected frame: %w", f.frameSinkID, err)
		}
	}

	id := ids.SurfaceID{FrameSinkID: f.frameSinkID, LocalFrameID: local}
	s := f.CurrentSurface()
	create := s == nil || s.id.LocalFrameID != local
	if create {
		s = newSurface(id, f)
		f.manager.registerSurface(s)
	}
	s.queueFrame(fr, cb)

	if !f.manager.SurfaceModified(id) {
		compositor.Logger().Debug("damage not visible", "surface", id.String())
		s.RunDrawCallbacks()
	}

	if create && f.current != nil {
		s.setPreviousFrameSurface(f.current)
		f.manager.destroySurface(f.current)
	}
	f.current = s
	return nil
}

// RequestCopyOfSurface asks for the pixels of the current surface the next
// time it is drawn. Without a surface the request is dropped.
func (f *Factory) RequestCopyOfSurface(req *frame.CopyOutputRequest) {
	if f.CurrentSurface() == nil {
		req.SendEmptyResult()
		return
	}
	f.current.RequestCopyOfOutput(req)
	f.manager.SurfaceModified(f.current.id)
}

// EvictSurface destroys the current surface, returning its resources.
func (f *Factory) EvictSurface() {
	if f.CurrentSurface() == nil {
		return
	}
	f.manager.destroySurface(f.current)
	f.current = nil
}

// Close evicts the current surface. Later submissions fail.
func (f *Factory) Close() {
	f.EvictSurface()
	f.closed = true
}

func (f *Factory) unrefResources(res []frame.ReturnedResource) {
	returned := f.resources.unref(res)
	if len(returned) > 0 && f.client != nil {
		f.client.ReturnResources(returned)
	}
}

// resourceTracker reference counts resources received from the client.
type resourceTracker struct {
	refs map[frame.ResourceID]int
}

func (t *resourceTracker) receive(res []frame.TransferableResource) {
	for _, r := range res {
		t.refs[r.ID]++
	}
}

// unref drops references and returns the resources that reached zero.
func (t *resourceTracker) unref(res []frame.ReturnedResource) []frame.ReturnedResource {
	var out []frame.ReturnedResource
	for _, r := range res {
		n, ok := t.refs[r.ID]
		if !ok {
			continue
		}
		n -= r.Count
		if n > 0 {
			t.refs[r.ID] = n
			continue
		}
		delete(t.refs, r.ID)
		out = append(out, frame.ReturnedResource{ID: r.ID, Count: 1, Lost: r.Lost})
	}
	return out
}
