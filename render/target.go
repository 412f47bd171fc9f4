// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/display"
	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/task"
)

// Output is an output surface the software renderer presents to.
type Output interface {
	display.OutputSurface

	// Present shows img, the renderer's back buffer, and acknowledges the
	// swap asynchronously. img is only valid during the call.
	Present(img *image.RGBA, meta frame.Metadata)

	// Lost reports whether the output can no longer be drawn to.
	Lost() bool

	// Format returns the pixel layout of the presented image.
	Format() gputypes.TextureFormat
}

// PresentFunc observes every presented frame. The image is owned by the
// output and must be copied if retained.
type PresentFunc func(img *image.RGBA, meta frame.Metadata)

// PixmapOutputSurface is a CPU-backed output surface holding the presented
// frame in an *image.RGBA.
//
// Swap acknowledgements are posted to the runner so they reach the display
// after it has counted the swap.
//
// Example:
//
//	out := render.NewPixmapOutputSurface(runner)
//	r := render.NewSoftwareRenderer(out)
//	...
//	img := out.Front()
type PixmapOutputSurface struct {
	runner task.Runner
	client display.OutputSurfaceClient
	format gputypes.TextureFormat

	front     *image.RGBA
	swaps     int
	lastMeta  frame.Metadata
	suspended bool
	lost      bool
	onPresent []PresentFunc
}

// NewPixmapOutputSurface creates an RGBA output surface acknowledging swaps
// on runner.
func NewPixmapOutputSurface(runner task.Runner) *PixmapOutputSurface {
	return &PixmapOutputSurface{
		runner: runner,
		format: gputypes.TextureFormatRGBA8Unorm,
		front:  image.NewRGBA(image.Rectangle{}),
	}
}

// BindToClient connects the display.
func (s *PixmapOutputSurface) BindToClient(client display.OutputSurfaceClient) error {
	if s.lost {
		return ErrOutputLost
	}
	s.client = client
	return nil
}

// DetachFromClient disconnects the display.
func (s *PixmapOutputSurface) DetachFromClient() { s.client = nil }

// SurfaceIsSuspendForRecycle reports whether the surface is suspended.
func (s *PixmapOutputSurface) SurfaceIsSuspendForRecycle() bool { return s.suspended }

// SetSuspendForRecycle suspends or resumes drawing to the surface.
func (s *PixmapOutputSurface) SetSuspendForRecycle(suspended bool) { s.suspended = suspended }

// OnPresent registers fn to observe presented frames.
func (s *PixmapOutputSurface) OnPresent(fn PresentFunc) {
	if fn != nil {
		s.onPresent = append(s.onPresent, fn)
	}
}

// Present copies img to the front buffer and posts the acknowledgement.
func (s *PixmapOutputSurface) Present(img *image.RGBA, meta frame.Metadata) {
	if s.lost {
		return
	}
	if s.front.Bounds() != img.Bounds() {
		s.front = image.NewRGBA(img.Bounds())
	}
	copy(s.front.Pix, img.Pix)
	s.swaps++
	s.lastMeta = meta
	for _, fn := range s.onPresent {
		fn(s.front, meta)
	}
	s.runner.PostTask(func() {
		if s.client != nil && !s.lost {
			s.client.DidSwapBuffersComplete()
		}
	})
}

// Front returns the presented frame. It shares memory with the surface.
func (s *PixmapOutputSurface) Front() *image.RGBA { return s.front }

// ReadPixels returns a copy of the presented frame in the surface format.
func (s *PixmapOutputSurface) ReadPixels() []byte {
	out := make([]byte, len(s.front.Pix))
	copy(out, s.front.Pix)
	if s.format == gputypes.TextureFormatBGRA8Unorm {
		swizzleRB(out)
	}
	return out
}

// Swaps returns the number of presented frames.
func (s *PixmapOutputSurface) Swaps() int { return s.swaps }

// LastMetadata returns the metadata of the last presented frame.
func (s *PixmapOutputSurface) LastMetadata() frame.Metadata { return s.lastMeta }

// Format returns the pixel layout of ReadPixels.
func (s *PixmapOutputSurface) Format() gputypes.TextureFormat { return s.format }

// Lost reports whether Lose was called.
func (s *PixmapOutputSurface) Lost() bool { return s.lost }

// Lose marks the surface lost and tells the bound display.
func (s *PixmapOutputSurface) Lose() {
	if s.lost {
		return
	}
	s.lost = true
	compositor.Logger().Warn("pixmap output surface lost")
	if s.client != nil {
		s.client.DidLoseOutputSurface()
	}
}

// swizzleRB converts between RGBA and BGRA byte order in place.
func swizzleRB(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

var _ Output = (*PixmapOutputSurface)(nil)
