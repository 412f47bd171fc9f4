// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"image"
	"image/color"
)

// RenderPassID identifies a pass within one frame.
type RenderPassID uint32

// RenderPass is a list of quads drawn into an intermediate or final target.
// Quads are drawn in order, each over the ones before it.
type RenderPass struct {
	ID         RenderPassID
	OutputRect image.Rectangle

	// DamageRect is the part of OutputRect that changed since the client's
	// previous frame.
	DamageRect image.Rectangle

	// Background fills OutputRect before quads are drawn. A zero value
	// leaves the pass transparent.
	Background color.RGBA

	Quads        []Quad
	CopyRequests []*CopyOutputRequest
}

// NewRenderPass returns a pass of the given size, fully damaged.
func NewRenderPass(id RenderPassID, size image.Point) *RenderPass {
	r := image.Rectangle{Max: size}
	return &RenderPass{ID: id, OutputRect: r, DamageRect: r}
}

// Append adds q to the pass and returns the pass for chaining.
func (p *RenderPass) Append(q Quad) *RenderPass {
	p.Quads = append(p.Quads, q)
	return p
}

// RequestCopy attaches a copy request served when the pass is next drawn.
func (p *RenderPass) RequestCopy(req *CopyOutputRequest) {
	p.CopyRequests = append(p.CopyRequests, req)
}

// HasDamage reports whether the pass changed.
func (p *RenderPass) HasDamage() bool { return !p.DamageRect.Empty() }

// Copy returns a copy of p with a new id. Quads are copied by value so the
// caller may rewrite them; copy requests are moved, not shared.
func (p *RenderPass) Copy(id RenderPassID) *RenderPass {
	out := *p
	out.ID = id
	out.Quads = make([]Quad, len(p.Quads))
	for i, q := range p.Quads {
		out.Quads[i] = q.clone()
	}
	out.CopyRequests = nil
	return &out
}
