// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package aggregate flattens a tree of surfaces into one drawable frame.
//
// Every SurfaceQuad is replaced by a RenderPassQuad pointing at a copy of the
// embedded surface's passes. Pass and resource ids are renumbered so ids
// from different clients never collide. Damage is tracked per surface
// across aggregations: a surface whose frame did not change contributes no
// damage.
package aggregate

import (
	"image"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/ids"
	"github.com/gogpu/compositor/surface"
)

// fullDamageIndex marks a surface that must be fully damaged next time.
const fullDamageIndex = -1

// Aggregator builds aggregated frames from a surface.Manager.
type Aggregator struct {
	manager *surface.Manager

	// previous maps each surface drawn by the last aggregation to the frame
	// index it had then.
	previous map[ids.SurfaceID]int

	// per aggregation state
	contained      map[ids.SurfaceID]int
	visiting       map[ids.SurfaceID]bool
	out            *frame.CompositorFrame
	nextPassID     frame.RenderPassID
	nextResourceID frame.ResourceID
}

// New creates an aggregator reading surfaces from m.
func New(m *surface.Manager) *Aggregator {
	return &Aggregator{manager: m, previous: make(map[ids.SurfaceID]int)}
}

// Aggregate flattens the tree rooted at root. It reports false when the root
// surface does not exist or has never received a non-empty frame.
//
// Copy requests and latency info are moved out of the surfaces into the
// returned frame, so each is delivered once.
func (a *Aggregator) Aggregate(root ids.SurfaceID) (*frame.CompositorFrame, bool) {
	s := a.manager.SurfaceForID(root)
	if s == nil || !s.HasFrame() {
		return nil, false
	}

	a.contained = make(map[ids.SurfaceID]int)
	a.visiting = make(map[ids.SurfaceID]bool)
	a.out = &frame.CompositorFrame{}
	a.nextPassID = 1
	a.nextResourceID = 1

	a.metadataFrom(s.Frame(), true)
	a.handleSurface(s)

	out := a.out
	a.previous = a.contained
	a.contained, a.visiting, a.out = nil, nil, nil
	return out, true
}

// PreviousContainedSurfaces returns the surfaces drawn by the last
// aggregation with the frame index each had.
func (a *Aggregator) PreviousContainedSurfaces() map[ids.SurfaceID]int {
	return a.previous
}

// Contains reports whether id was part of the last aggregation.
func (a *Aggregator) Contains(id ids.SurfaceID) bool {
	_, ok := a.previous[id]
	return ok
}

// SetFullDamageForSurface makes the next aggregation treat id as fully
// damaged. Used when a draw could not be swapped.
func (a *Aggregator) SetFullDamageForSurface(id ids.SurfaceID) {
	if _, ok := a.previous[id]; ok {
		a.previous[id] = fullDamageIndex
	}
}

// handleSurface appends copies of s's passes to the output and returns the
// output id of its root pass.
func (a *Aggregator) handleSurface(s *surface.Surface) frame.RenderPassID {
	a.visiting[s.ID()] = true
	defer delete(a.visiting, s.ID())
	a.contained[s.ID()] = s.FrameIndex()

	src := s.Frame()
	requests := s.TakeCopyOutputRequests()
	passIDs := make(map[frame.RenderPassID]frame.RenderPassID, len(src.RenderPasses))
	resourceIDs := make(map[frame.ResourceID]frame.ResourceID)
	root := src.RootPass()

	for _, p := range src.RenderPasses {
		np := p.Copy(a.allocPassID())
		passIDs[p.ID] = np.ID
		np.CopyRequests = requests[p.ID]
		np.DamageRect = a.surfaceDamage(s, p)

		quads := np.Quads[:0]
		for _, q := range np.Quads {
			switch q := q.(type) {
			case *frame.RenderPassQuad:
				q.PassID = passIDs[q.PassID]
			case *frame.TextureQuad:
				q.ResourceID = a.remapResource(src, q.ResourceID, resourceIDs)
			case *frame.SurfaceQuad:
				child := a.manager.SurfaceForID(q.SurfaceID)
				if child == nil || !child.HasFrame() || a.visiting[q.SurfaceID] {
					compositor.Logger().Debug("surface quad dropped", "surface", q.SurfaceID.String())
					continue
				}
				a.metadataFrom(child.Frame(), false)
				quads = append(quads, &frame.RenderPassQuad{Rect: q.Rect, PassID: a.handleSurface(child)})
				continue
			}
			quads = append(quads, q)
		}
		np.Quads = quads
		a.addEmbeddedDamage(np)
		a.out.RenderPasses = append(a.out.RenderPasses, np)
	}
	return passIDs[root.ID]
}

// surfaceDamage returns the damage pass p of s contributes on its own.
func (a *Aggregator) surfaceDamage(s *surface.Surface, p *frame.RenderPass) image.Rectangle {
	prev, ok := a.previous[s.ID()]
	if ok && prev == s.FrameIndex() {
		return image.Rectangle{}
	}
	if pid := s.PreviousFrameSurfaceID(); pid != s.ID() {
		prev, ok = a.previous[pid]
	}
	if ok && prev != fullDamageIndex && prev == s.FrameIndex()-1 {
		return p.DamageRect.Intersect(p.OutputRect)
	}
	return p.OutputRect
}

// addEmbeddedDamage unions the damage of every pass p draws into p's own
// damage, mapped to the quad that draws it.
func (a *Aggregator) addEmbeddedDamage(p *frame.RenderPass) {
	for _, q := range p.Quads {
		rq, ok := q.(*frame.RenderPassQuad)
		if !ok {
			continue
		}
		embedded := a.out.Pass(rq.PassID)
		if embedded == nil || !embedded.HasDamage() {
			continue
		}
		d := mapRect(embedded.DamageRect, embedded.OutputRect, rq.Rect).Intersect(p.OutputRect)
		p.DamageRect = p.DamageRect.Union(d)
	}
}

func (a *Aggregator) remapResource(src *frame.CompositorFrame, id frame.ResourceID, seen map[frame.ResourceID]frame.ResourceID) frame.ResourceID {
	if out, ok := seen[id]; ok {
		return out
	}
	res, _ := src.Resource(id)
	res.ID = a.nextResourceID
	a.nextResourceID++
	a.out.Resources = append(a.out.Resources, res)
	seen[id] = res.ID
	return res.ID
}

// metadataFrom moves latency info from f into the output. The root frame
// also provides the scale factor.
func (a *Aggregator) metadataFrom(f *frame.CompositorFrame, root bool) {
	if root {
		a.out.Metadata.DeviceScaleFactor = f.Metadata.DeviceScaleFactor
	}
	a.out.Metadata.LatencyInfo = append(a.out.Metadata.LatencyInfo, f.Metadata.LatencyInfo...)
	f.Metadata.LatencyInfo = nil
}

func (a *Aggregator) allocPassID() frame.RenderPassID {
	id := a.nextPassID
	a.nextPassID++
	return id
}

// mapRect maps r from the space of from onto to, scaling as needed.
func mapRect(r, from, to image.Rectangle) image.Rectangle {
	fw, fh := from.Dx(), from.Dy()
	if fw == 0 || fh == 0 {
		return image.Rectangle{}
	}
	tw, th := to.Dx(), to.Dy()
	x0 := to.Min.X + (r.Min.X-from.Min.X)*tw/fw
	y0 := to.Min.Y + (r.Min.Y-from.Min.Y)*th/fh
	x1 := to.Min.X + ceilDiv((r.Max.X-from.Min.X)*tw, fw)
	y1 := to.Min.Y + ceilDiv((r.Max.Y-from.Min.Y)*th, fh)
	return image.Rect(x0, y0, x1, y1)
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return a / b
	}
	return (a + b - 1) / b
}
