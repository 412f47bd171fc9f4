// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"image"

	"github.com/gogpu/compositor/frame"
)

// Client is the owner of a Display.
type Client interface {
	// DisplayOutputSurfaceLost reports that the output surface can no longer
	// be drawn to. It is called at most once. The client may close and drop
	// the Display inside this call; the Display makes no further calls
	// after it.
	DisplayOutputSurfaceLost()

	// DisplayWillDrawAndSwap is called after aggregation with the draw
	// decision and the aggregated passes.
	DisplayWillDrawAndSwap(willDraw bool, passes []*frame.RenderPass)

	// DisplayDidDrawAndSwap is called at the end of every attempt that
	// aggregated a frame.
	DisplayDidDrawAndSwap()

	// DisplaySetMemoryPolicy forwards the output surface's memory policy.
	DisplaySetMemoryPolicy(policy MemoryPolicy)
}

// MemoryPolicy limits the memory the compositor's clients should use.
type MemoryPolicy struct {
	BytesLimitWhenVisible uint64
	AllowEverything       bool
}

// ColorSpace is the color space of the output.
type ColorSpace uint8

const (
	ColorSpaceSRGB ColorSpace = iota
	ColorSpaceLinear
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceSRGB:
		return "srgb"
	case ColorSpaceLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// Renderer draws aggregated frames into its output surface.
type Renderer interface {
	// DrawFrame renders f at the given scale into a viewport of the given
	// size. An error means the output can no longer be drawn to.
	DrawFrame(f *frame.CompositorFrame, scale float64, cs ColorSpace, viewport image.Point) error

	// SwapBuffers presents the last drawn frame.
	SwapBuffers(meta frame.Metadata)

	// SwapBuffersComplete is called when the output acknowledged a swap.
	SwapBuffersComplete()

	// SetVisible releases or restores resources with display visibility.
	SetVisible(visible bool)
}

// OutputSurface is where the renderer's output ends up.
type OutputSurface interface {
	// BindToClient connects the surface to the display. An error means the
	// surface is unusable and is treated as a lost output surface.
	BindToClient(client OutputSurfaceClient) error

	// DetachFromClient disconnects the surface.
	DetachFromClient()

	// SurfaceIsSuspendForRecycle reports that the surface's backing store is
	// about to be invalidated. Nothing is drawn while it is.
	SurfaceIsSuspendForRecycle() bool
}

// OutputSurfaceClient receives events from an OutputSurface.
type OutputSurfaceClient interface {
	DidSwapBuffersComplete()
	DidLoseOutputSurface()
	SetMemoryPolicy(policy MemoryPolicy)
	SetNeedsRedrawRect(damage image.Rectangle)
}
