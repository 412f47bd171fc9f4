// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"image"
	"image/color"

	"github.com/gogpu/compositor/ids"
)

// Quad is one drawable rectangle. The set of quad kinds is closed:
// SolidColorQuad, TextureQuad, RenderPassQuad and SurfaceQuad.
type Quad interface {
	// Bounds returns the quad rectangle in its pass's coordinate space.
	Bounds() image.Rectangle

	clone() Quad
}

// SolidColorQuad fills Rect with Color.
type SolidColorQuad struct {
	Rect  image.Rectangle
	Color color.RGBA
}

// Bounds returns Rect.
func (q *SolidColorQuad) Bounds() image.Rectangle { return q.Rect }
func (q *SolidColorQuad) clone() Quad             { c := *q; return &c }

// TextureQuad draws a resource scaled to Rect.
type TextureQuad struct {
	Rect       image.Rectangle
	ResourceID ResourceID
}

// Bounds returns Rect.
func (q *TextureQuad) Bounds() image.Rectangle { return q.Rect }
func (q *TextureQuad) clone() Quad             { c := *q; return &c }

// RenderPassQuad draws the output of an earlier pass scaled to Rect.
type RenderPassQuad struct {
	Rect   image.Rectangle
	PassID RenderPassID
}

// Bounds returns Rect.
func (q *RenderPassQuad) Bounds() image.Rectangle { return q.Rect }
func (q *RenderPassQuad) clone() Quad             { c := *q; return &c }

// SurfaceQuad embeds another client's surface. The aggregator replaces it
// with that surface's content.
type SurfaceQuad struct {
	Rect      image.Rectangle
	SurfaceID ids.SurfaceID
}

// Bounds returns Rect.
func (q *SurfaceQuad) Bounds() image.Rectangle { return q.Rect }
func (q *SurfaceQuad) clone() Quad             { c := *q; return &c }
