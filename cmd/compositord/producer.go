// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"image"
	"image/color"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/beginframe"
	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/ids"
	"github.com/gogpu/compositor/surface"
)

// buildFunc produces the frame for the n-th BeginFrame a producer uses.
type buildFunc func(n int, args beginframe.Args) *frame.CompositorFrame

// producer is a surface client that submits one frame per BeginFrame from
// whatever source the manager hands it.
type producer struct {
	beginframe.ObserverBase

	name     string
	manager  *surface.Manager
	factory  *surface.Factory
	local    ids.LocalFrameID
	source   beginframe.Source
	build    buildFunc
	frames   int
	returned int
}

func newProducer(name string, sink ids.FrameSinkID, m *surface.Manager, build buildFunc) *producer {
	p := &producer{
		name:    name,
		manager: m,
		local:   ids.NewLocalFrameID(1),
		build:   build,
	}
	p.ObserverBase = beginframe.NewObserverBase(p.produce)
	p.factory = surface.NewFactory(sink, m, p)
	m.RegisterSurfaceFactoryClient(sink, p)
	return p
}

func (p *producer) surfaceID() ids.SurfaceID {
	return ids.SurfaceID{FrameSinkID: p.factory.FrameSinkID(), LocalFrameID: p.local}
}

// SetBeginFrameSource implements surface.FactoryClient.
func (p *producer) SetBeginFrameSource(source beginframe.Source) {
	if p.source == source {
		return
	}
	if p.source != nil {
		p.source.RemoveObserver(p)
	}
	p.source = source
	if source != nil {
		source.AddObserver(p)
	}
	compositor.Logger().Debug("compositord: producer source changed", "producer", p.name, "attached", source != nil)
}

// ReturnResources implements surface.FactoryClient.
func (p *producer) ReturnResources(res []frame.ReturnedResource) { p.returned += len(res) }

func (p *producer) OnBeginFrameSourcePausedChanged(bool) {}

func (p *producer) produce(args beginframe.Args) bool {
	err := p.factory.SubmitCompositorFrame(p.local, p.build(p.frames, args), nil)
	if p.source != nil {
		p.source.DidFinishFrame(p, 0)
	}
	if err != nil {
		compositor.Logger().Warn("compositord: submit failed", "producer", p.name, "err", err)
		return false
	}
	p.frames++
	return true
}

// close detaches from the manager, which also takes the producer off its
// source, and evicts its surface.
func (p *producer) close() {
	p.manager.UnregisterSurfaceFactoryClient(p.factory.FrameSinkID())
	p.factory.Close()
}

// rootScene draws a background, the embedded child and a bar sweeping
// across the output once per 60 frames.
func rootScene(size image.Point, child ids.SurfaceID) buildFunc {
	inset := image.Rect(size.X/4, size.Y/4, size.X*3/4, size.Y*3/4)
	barW := max(size.X/16, 1)
	var prevBar image.Rectangle
	return func(n int, _ beginframe.Args) *frame.CompositorFrame {
		x := (n % 60) * (size.X - barW) / 59
		bar := image.Rect(x, 0, x+barW, size.Y)

		p := frame.NewRenderPass(1, size)
		p.Background = color.RGBA{R: 0x20, G: 0x20, B: 0x28, A: 0xff}
		if n > 0 {
			p.DamageRect = bar.Union(prevBar)
		}
		p.Append(&frame.SurfaceQuad{Rect: inset, SurfaceID: child})
		p.Append(&frame.SolidColorQuad{Rect: bar, Color: color.RGBA{R: 0xe0, G: 0x60, B: 0x20, A: 0xff}})
		prevBar = bar
		return &frame.CompositorFrame{
			Metadata:     frame.Metadata{DeviceScaleFactor: 1},
			RenderPasses: []*frame.RenderPass{p},
		}
	}
}

// childScene pulses its whole surface between two greens.
func childScene(size image.Point) buildFunc {
	return func(n int, _ beginframe.Args) *frame.CompositorFrame {
		level := uint8(0x60 + (n%32)*4)
		p := frame.NewRenderPass(1, size)
		p.Append(&frame.SolidColorQuad{Rect: p.OutputRect, Color: color.RGBA{G: level, B: 0x30, A: 0xff}})
		return &frame.CompositorFrame{
			Metadata:     frame.Metadata{DeviceScaleFactor: 1},
			RenderPasses: []*frame.RenderPass{p},
		}
	}
}
