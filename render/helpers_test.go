// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/color"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/compositor/display"
	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/task"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

type mockQueue struct{}

type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider for testing.
type mockProvider struct {
	device gpucontext.Device
	format gputypes.TextureFormat
	info   gpucontext.AdapterInfo
}

func newMockProvider(format gputypes.TextureFormat) *mockProvider {
	return &mockProvider{device: &mockDevice{}, format: format}
}

func (m *mockProvider) Device() gpucontext.Device             { return m.device }
func (m *mockProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo   { return m.info }

// outputClient records what an output surface tells its display.
type outputClient struct {
	completes int
	lost      int
	policies  []display.MemoryPolicy
	redraws   []image.Rectangle
}

func (c *outputClient) DidSwapBuffersComplete()                { c.completes++ }
func (c *outputClient) DidLoseOutputSurface()                  { c.lost++ }
func (c *outputClient) SetMemoryPolicy(p display.MemoryPolicy) { c.policies = append(c.policies, p) }
func (c *outputClient) SetNeedsRedrawRect(r image.Rectangle)   { c.redraws = append(c.redraws, r) }

func newPixmap() (*task.ManualRunner, *PixmapOutputSurface) {
	runner := task.NewManualRunner(0)
	return runner, NewPixmapOutputSurface(runner)
}

func solidPass(id frame.RenderPassID, size image.Point, c color.RGBA) *frame.RenderPass {
	p := frame.NewRenderPass(id, size)
	p.Append(&frame.SolidColorQuad{Rect: p.OutputRect, Color: c})
	return p
}

func frameOf(passes ...*frame.RenderPass) *frame.CompositorFrame {
	return &frame.CompositorFrame{RenderPasses: passes}
}

func solidImage(size image.Point, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rectangle{Max: size})
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}
