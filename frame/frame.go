// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/compositor/ids"
)

// Validation errors returned by CompositorFrame.Validate.
var (
	ErrNoRenderPasses    = errors.New("frame: no render passes")
	ErrDuplicatePassID   = errors.New("frame: duplicate render pass id")
	ErrUnknownRenderPass = errors.New("frame: quad references unknown render pass")
	ErrUnknownResource   = errors.New("frame: quad references unknown resource")
)

// Metadata carries per-frame information that is not drawn.
type Metadata struct {
	// DeviceScaleFactor is the ratio of device pixels to layout pixels the
	// frame was produced at.
	DeviceScaleFactor float64

	// LatencyInfo follows input events through the pipeline. It is handed to
	// the output surface on swap.
	LatencyInfo []LatencyInfo
}

// CompositorFrame is one submitted frame.
type CompositorFrame struct {
	Metadata     Metadata
	RenderPasses []*RenderPass
	Resources    []TransferableResource
}

// RootPass returns the last render pass, or nil for an empty frame.
func (f *CompositorFrame) RootPass() *RenderPass {
	if f == nil || len(f.RenderPasses) == 0 {
		return nil
	}
	return f.RenderPasses[len(f.RenderPasses)-1]
}

// IsEmpty reports whether the frame has nothing to draw.
func (f *CompositorFrame) IsEmpty() bool { return f.RootPass() == nil }

// Size returns the output size of the root pass.
func (f *CompositorFrame) Size() image.Point {
	root := f.RootPass()
	if root == nil {
		return image.Point{}
	}
	return root.OutputRect.Size()
}

// Pass returns the render pass with the given id.
func (f *CompositorFrame) Pass(id RenderPassID) *RenderPass {
	for _, p := range f.RenderPasses {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Resource returns the resource with the given id.
func (f *CompositorFrame) Resource(id ResourceID) (TransferableResource, bool) {
	for _, r := range f.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return TransferableResource{}, false
}

// HasCopyRequests reports whether any pass has a pending copy request.
func (f *CompositorFrame) HasCopyRequests() bool {
	for _, p := range f.RenderPasses {
		if len(p.CopyRequests) > 0 {
			return true
		}
	}
	return false
}

// ReferencedSurfaces returns the distinct surfaces embedded by SurfaceQuads
// in pass order.
func (f *CompositorFrame) ReferencedSurfaces() []ids.SurfaceID {
	var out []ids.SurfaceID
	seen := make(map[ids.SurfaceID]bool)
	for _, p := range f.RenderPasses {
		for _, q := range p.Quads {
			sq, ok := q.(*SurfaceQuad)
			if !ok || seen[sq.SurfaceID] {
				continue
			}
			seen[sq.SurfaceID] = true
			out = append(out, sq.SurfaceID)
		}
	}
	return out
}

// Validate checks the structural rules the compositor relies on: at least
// one pass, unique pass ids, render pass quads referencing earlier passes
// and texture quads referencing resources in the frame.
func (f *CompositorFrame) Validate() error {
	if f.IsEmpty() {
		return ErrNoRenderPasses
	}
	seen := make(map[RenderPassID]bool, len(f.RenderPasses))
	for _, p := range f.RenderPasses {
		if seen[p.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicatePassID, p.ID)
		}
		for _, q := range p.Quads {
			switch q := q.(type) {
			case *RenderPassQuad:
				if !seen[q.PassID] {
					return fmt.Errorf("%w: %d in pass %d", ErrUnknownRenderPass, q.PassID, p.ID)
				}
			case *TextureQuad:
				if _, ok := f.Resource(q.ResourceID); !ok {
					return fmt.Errorf("%w: %d in pass %d", ErrUnknownResource, q.ResourceID, p.ID)
				}
			}
		}
		seen[p.ID] = true
	}
	return nil
}

// ResourceIDs returns the ids of every resource in the frame.
func (f *CompositorFrame) ResourceIDs() []ResourceID {
	out := make([]ResourceID, len(f.Resources))
	for i, r := range f.Resources {
		out[i] = r.ID
	}
	return out
}
