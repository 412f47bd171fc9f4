// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/gogpu/compositor/beginframe"
	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/ids"
	"github.com/gogpu/compositor/internal/contract"
	"github.com/gogpu/compositor/surface"
	"github.com/gogpu/compositor/task"
)

func us(n int64) time.Duration { return time.Duration(n) * time.Microsecond }

var errDeviceGone = errors.New("device gone")

type drawCall struct {
	output   image.Rectangle
	damage   image.Rectangle
	viewport image.Point
	scale    float64
	copies   int
}

type fakeRenderer struct {
	draws     []drawCall
	swaps     []frame.Metadata
	completes int
	visible   []bool
	err       error
	onDraw    func()
}

func (r *fakeRenderer) DrawFrame(f *frame.CompositorFrame, scale float64, _ ColorSpace, viewport image.Point) error {
	if r.onDraw != nil {
		r.onDraw()
	}
	if r.err != nil {
		return r.err
	}
	root := f.RootPass()
	copies := 0
	for _, p := range f.RenderPasses {
		copies += len(p.CopyRequests)
	}
	r.draws = append(r.draws, drawCall{
		output:   root.OutputRect,
		damage:   root.DamageRect,
		viewport: viewport,
		scale:    scale,
		copies:   copies,
	})
	return nil
}

func (r *fakeRenderer) SwapBuffers(meta frame.Metadata) { r.swaps = append(r.swaps, meta) }
func (r *fakeRenderer) SwapBuffersComplete()            { r.completes++ }
func (r *fakeRenderer) SetVisible(v bool)               { r.visible = append(r.visible, v) }

type fakeOutput struct {
	client    OutputSurfaceClient
	bindErr   error
	suspended bool
	detached  bool
}

func (o *fakeOutput) BindToClient(c OutputSurfaceClient) error {
	if o.bindErr != nil {
		return o.bindErr
	}
	o.client = c
	return nil
}

func (o *fakeOutput) DetachFromClient()                { o.detached = true }
func (o *fakeOutput) SurfaceIsSuspendForRecycle() bool { return o.suspended }

type fakeClient struct {
	lost     int
	willDraw []bool
	did      int
	policies []MemoryPolicy
	onLost   func()
}

func (c *fakeClient) DisplayOutputSurfaceLost() {
	c.lost++
	if c.onLost != nil {
		c.onLost()
	}
}

func (c *fakeClient) DisplayWillDrawAndSwap(willDraw bool, _ []*frame.RenderPass) {
	c.willDraw = append(c.willDraw, willDraw)
}

func (c *fakeClient) DisplayDidDrawAndSwap()                { c.did++ }
func (c *fakeClient) DisplaySetMemoryPolicy(p MemoryPolicy) { c.policies = append(c.policies, p) }

type nopFactoryClient struct{}

func (nopFactoryClient) ReturnResources([]frame.ReturnedResource) {}
func (nopFactoryClient) SetBeginFrameSource(beginframe.Source)    {}

var (
	displaySink = ids.FrameSinkID{ClientID: 1, SinkID: 1}
	rootSink    = ids.FrameSinkID{ClientID: 2, SinkID: 1}
)

// harness is a display drawing the surface of one root client.
type harness struct {
	m      *surface.Manager
	d      *Display
	r      *fakeRenderer
	out    *fakeOutput
	client *fakeClient
	root   *surface.Factory
	local  ids.LocalFrameID
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	m := surface.NewManager()
	m.RegisterFrameSinkID(displaySink)
	m.RegisterFrameSinkID(rootSink)
	h := &harness{
		m:      m,
		r:      &fakeRenderer{},
		out:    &fakeOutput{},
		client: &fakeClient{},
		root:   surface.NewFactory(rootSink, m, nopFactoryClient{}),
		local:  ids.NewLocalFrameID(1),
	}
	h.d = New(displaySink, h.out, h.r, opts...)
	h.d.Initialize(h.client, m)
	return h
}

func (h *harness) rootID() ids.SurfaceID {
	return ids.SurfaceID{FrameSinkID: rootSink, LocalFrameID: h.local}
}

func (h *harness) submit(t *testing.T, f *frame.CompositorFrame, cb surface.DrawCallback) {
	t.Helper()
	if err := h.root.SubmitCompositorFrame(h.local, f, cb); err != nil {
		t.Fatalf("SubmitCompositorFrame: %v", err)
	}
}

// damagedFrame is one solid pass of the given size.
func damagedFrame(size image.Point, damage image.Rectangle) *frame.CompositorFrame {
	p := frame.NewRenderPass(1, size)
	p.DamageRect = damage
	p.Append(&frame.SolidColorQuad{Rect: p.OutputRect, Color: color.RGBA{G: 255, A: 255}})
	return &frame.CompositorFrame{RenderPasses: []*frame.RenderPass{p}}
}

func fullFrame(size image.Point) *frame.CompositorFrame {
	return damagedFrame(size, image.Rectangle{Max: size})
}

func captureViolations(t *testing.T) *[]string {
	t.Helper()
	var got []string
	t.Cleanup(contract.SetHook(func(msg string) { got = append(got, msg) }))
	return &got
}

// fakeDrawer is a SchedulerClient counting draws.
type fakeDrawer struct {
	runner task.Runner
	times  []time.Duration
	fail   bool
	onDraw func()
}

func (c *fakeDrawer) DrawAndSwap() bool {
	c.times = append(c.times, c.runner.Now())
	if c.onDraw != nil {
		c.onDraw()
	}
	return !c.fail
}

func (c *fakeDrawer) draws() int { return len(c.times) }

func newFactory(h *harness, id ids.FrameSinkID) *surface.Factory {
	return surface.NewFactory(id, h.m, nopFactoryClient{})
}
