// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/display"
	"github.com/gogpu/compositor/frame"
)

// SoftwareRenderer draws compositor frames on the CPU.
//
// Quad rectangles are in target pixels. Texture and render-pass quads are
// scaled into their rectangles with the configured scaler; copy results are
// scaled with Catmull-Rom.
//
// Example:
//
//	out := render.NewPixmapOutputSurface(runner)
//	r := render.NewSoftwareRenderer(out)
//	d := display.New(id, out, r)
type SoftwareRenderer struct {
	output Output
	scaler draw.Scaler

	// back holds the last drawn root pass. It survives between frames so
	// only root damage needs redrawing.
	back       *image.RGBA
	fullRedraw bool
	stats      Stats
	scratch    *ImagePool
}

// Stats counts renderer work.
type Stats struct {
	Frames      int
	Swaps       int
	Completes   int
	Quads       int
	CopyResults int

	// Scale and ColorSpace are those of the last drawn frame.
	Scale      float64
	ColorSpace display.ColorSpace
}

// SoftwareOption configures a SoftwareRenderer.
type SoftwareOption func(*SoftwareRenderer)

// WithScaler sets the scaler for texture and render-pass quads.
// The default is draw.ApproxBiLinear.
func WithScaler(s draw.Scaler) SoftwareOption {
	return func(r *SoftwareRenderer) {
		if s != nil {
			r.scaler = s
		}
	}
}

// NewSoftwareRenderer creates a renderer presenting to out.
func NewSoftwareRenderer(out Output, opts ...SoftwareOption) *SoftwareRenderer {
	r := &SoftwareRenderer{
		output:     out,
		scaler:     draw.ApproxBiLinear,
		fullRedraw: true,
		scratch:    NewImagePool(4),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DrawFrame draws f into the back buffer sized to viewport.
func (r *SoftwareRenderer) DrawFrame(f *frame.CompositorFrame, scale float64, cs display.ColorSpace, viewport image.Point) error {
	if r.output == nil || r.output.Lost() {
		return ErrOutputLost
	}
	root := f.RootPass()
	if root == nil {
		return nil
	}
	r.stats.Scale = scale
	r.stats.ColorSpace = cs
	r.ensureBack(viewport)

	passes := make(map[frame.RenderPassID]*image.RGBA, len(f.RenderPasses))
	defer func() {
		for _, img := range passes {
			r.scratch.Put(img)
		}
	}()
	for _, p := range f.RenderPasses {
		if p == root {
			break
		}
		img := r.scratch.Get(p.OutputRect)
		r.drawPass(img, p, f, passes)
		passes[p.ID] = img
		r.serveCopyRequests(img, p)
	}

	clip := root.DamageRect
	if r.fullRedraw {
		clip = root.OutputRect
		r.fullRedraw = false
	}
	target, ok := r.back.SubImage(clip.Intersect(r.back.Bounds())).(*image.RGBA)
	if ok && !target.Bounds().Empty() {
		r.drawPass(target, root, f, passes)
	}
	r.serveCopyRequests(r.back, root)
	r.stats.Frames++
	return nil
}

// SwapBuffers presents the back buffer.
func (r *SoftwareRenderer) SwapBuffers(meta frame.Metadata) {
	if r.back == nil || r.output == nil {
		return
	}
	r.output.Present(r.back, meta)
	r.stats.Swaps++
}

// SwapBuffersComplete counts an acknowledged swap.
func (r *SoftwareRenderer) SwapBuffersComplete() { r.stats.Completes++ }

// SetVisible drops the buffers while hidden.
func (r *SoftwareRenderer) SetVisible(visible bool) {
	if !visible {
		r.back = nil
		r.scratch.Reset()
		r.fullRedraw = true
	}
}

// Stats returns the work counters.
func (r *SoftwareRenderer) Stats() Stats { return r.stats }

// BackBuffer returns the last drawn frame. It shares memory with the renderer.
func (r *SoftwareRenderer) BackBuffer() *image.RGBA { return r.back }

func (r *SoftwareRenderer) ensureBack(size image.Point) {
	if r.back != nil && r.back.Bounds().Size() == size {
		return
	}
	r.back = image.NewRGBA(image.Rectangle{Max: size})
	r.fullRedraw = true
}

// drawPass draws p's background and quads, clipped to dst's bounds.
func (r *SoftwareRenderer) drawPass(dst *image.RGBA, p *frame.RenderPass, f *frame.CompositorFrame, passes map[frame.RenderPassID]*image.RGBA) {
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: p.Background}, image.Point{}, draw.Src)
	for _, q := range p.Quads {
		r.drawQuad(dst, q, f, passes)
		r.stats.Quads++
	}
}

func (r *SoftwareRenderer) drawQuad(dst *image.RGBA, q frame.Quad, f *frame.CompositorFrame, passes map[frame.RenderPassID]*image.RGBA) {
	switch q := q.(type) {
	case *frame.SolidColorQuad:
		draw.Draw(dst, q.Rect, &image.Uniform{C: q.Color}, image.Point{}, draw.Over)
	case *frame.TextureQuad:
		res, ok := f.Resource(q.ResourceID)
		if !ok || res.Pixels == nil {
			compositor.Logger().Debug("texture quad without pixels", "resource", q.ResourceID)
			return
		}
		r.scaler.Scale(dst, q.Rect, res.Pixels, res.Pixels.Bounds(), draw.Over, nil)
	case *frame.RenderPassQuad:
		src := passes[q.PassID]
		if src == nil {
			return
		}
		r.scaler.Scale(dst, q.Rect, src, src.Bounds(), draw.Over, nil)
	default:
		compositor.Logger().Debug("quad not drawable", "bounds", q.Bounds())
	}
}

// serveCopyRequests sends each copy request of p its area of img, scaled to
// the requested result size.
func (r *SoftwareRenderer) serveCopyRequests(img *image.RGBA, p *frame.RenderPass) {
	for _, req := range p.CopyRequests {
		area := req.Area
		if area.Empty() {
			area = p.OutputRect
		}
		area = area.Intersect(img.Bounds())
		if area.Empty() {
			req.SendEmptyResult()
			continue
		}
		size := req.ResultSize
		if size.X <= 0 || size.Y <= 0 {
			size = area.Size()
		}
		out := image.NewRGBA(image.Rectangle{Max: size})
		if size == area.Size() {
			draw.Draw(out, out.Bounds(), img, area.Min, draw.Src)
		} else {
			draw.CatmullRom.Scale(out, out.Bounds(), img, area, draw.Src, nil)
		}
		req.SendResult(out)
		r.stats.CopyResults++
	}
	p.CopyRequests = nil
}

// Clear fills the back buffer with c and forces the next draw to be full.
func (r *SoftwareRenderer) Clear(c color.RGBA) {
	if r.back == nil {
		return
	}
	draw.Draw(r.back, r.back.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	r.fullRedraw = true
}

var _ display.Renderer = (*SoftwareRenderer)(nil)
