// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"image"
	"testing"

	"github.com/gogpu/compositor/beginframe"
	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/ids"
	"github.com/gogpu/compositor/internal/contract"
)

// fakeSource is a begin frame source that never ticks.
type fakeSource struct{ id uint64 }

func (s *fakeSource) AddObserver(beginframe.Observer)         {}
func (s *fakeSource) RemoveObserver(beginframe.Observer)      {}
func (s *fakeSource) DidFinishFrame(beginframe.Observer, int) {}
func (s *fakeSource) SourceID() uint64                        { return s.id }
func (s *fakeSource) ObserverCount() int                      { return 0 }

// fakeClient records what the manager and factory tell it.
type fakeClient struct {
	source   beginframe.Source
	sources  []beginframe.Source
	returned []frame.ReturnedResource
}

func (c *fakeClient) SetBeginFrameSource(s beginframe.Source) {
	c.source = s
	c.sources = append(c.sources, s)
}

func (c *fakeClient) ReturnResources(res []frame.ReturnedResource) {
	c.returned = append(c.returned, res...)
}

func (c *fakeClient) returnedIDs() []frame.ResourceID {
	out := make([]frame.ResourceID, len(c.returned))
	for i, r := range c.returned {
		out[i] = r.ID
	}
	return out
}

// fakeObserver records surface notifications and reports damage as drawn
// when draws is set.
type fakeObserver struct {
	created []ids.SurfaceID
	damaged []ids.SurfaceID
	draws   bool
}

func (o *fakeObserver) OnSurfaceCreated(id ids.SurfaceID) { o.created = append(o.created, id) }

func (o *fakeObserver) OnSurfaceDamaged(id ids.SurfaceID) bool {
	o.damaged = append(o.damaged, id)
	return o.draws
}

func sink(client uint32) ids.FrameSinkID { return ids.FrameSinkID{ClientID: client, SinkID: 1} }

func newManagerWith(sinks ...ids.FrameSinkID) *Manager {
	m := NewManager()
	for _, id := range sinks {
		m.RegisterFrameSinkID(id)
	}
	return m
}

func testFrame(res ...frame.ResourceID) *frame.CompositorFrame {
	root := frame.NewRenderPass(1, image.Pt(10, 10))
	f := &frame.CompositorFrame{RenderPasses: []*frame.RenderPass{root}}
	for _, id := range res {
		f.Resources = append(f.Resources, frame.TransferableResource{ID: id})
	}
	return f
}

func captureViolations(t *testing.T) *[]string {
	t.Helper()
	var got []string
	t.Cleanup(contract.SetHook(func(msg string) { got = append(got, msg) }))
	return &got
}
