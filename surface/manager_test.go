// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"testing"

	"github.com/gogpu/compositor/beginframe"
)

func TestSingleClient(t *testing.T) {
	a := sink(1)
	m := newManagerWith(a)
	client := &fakeClient{}
	source := &fakeSource{id: 1}

	m.RegisterSurfaceFactoryClient(a, client)
	if client.source != nil {
		t.Fatal("client got a source before one was registered")
	}
	m.RegisterBeginFrameSource(source, a)
	if client.source != source {
		t.Fatalf("source = %v, want %v", client.source, source)
	}
	m.UnregisterBeginFrameSource(source)
	if client.source != nil {
		t.Errorf("source = %v after unregistering it", client.source)
	}
	m.UnregisterSurfaceFactoryClient(a)
	if len(m.mappings) != 0 {
		t.Errorf("%d mappings left after teardown", len(m.mappings))
	}
}

func TestSourceRegisteredBeforeClient(t *testing.T) {
	a := sink(1)
	m := newManagerWith(a)
	source := &fakeSource{id: 1}
	m.RegisterBeginFrameSource(source, a)

	client := &fakeClient{}
	m.RegisterSurfaceFactoryClient(a, client)
	if client.source != source {
		t.Fatalf("late client source = %v, want %v", client.source, source)
	}

	m.UnregisterSurfaceFactoryClient(a)
	if client.source != nil {
		t.Error("unregistered client still holds the source")
	}
	if m.BeginFrameSourceFor(a) != source {
		t.Error("source lost when its root's client left")
	}
}

func TestHierarchyPropagation(t *testing.T) {
	a, b, c, d := sink(1), sink(2), sink(3), sink(4)
	m := newManagerWith(a, b, c, d)
	clients := map[string]*fakeClient{"a": {}, "b": {}, "c": {}, "d": {}}
	m.RegisterSurfaceFactoryClient(a, clients["a"])
	m.RegisterSurfaceFactoryClient(b, clients["b"])
	m.RegisterSurfaceFactoryClient(c, clients["c"])
	m.RegisterSurfaceFactoryClient(d, clients["d"])

	//   a
	//  / \
	// b   d
	// |
	// c
	m.RegisterFrameSinkHierarchy(a, b)
	m.RegisterFrameSinkHierarchy(b, c)
	m.RegisterFrameSinkHierarchy(a, d)

	source := &fakeSource{id: 1}
	m.RegisterBeginFrameSource(source, a)
	for name, client := range clients {
		if client.source != source {
			t.Errorf("%s source = %v, want %v", name, client.source, source)
		}
	}

	m.UnregisterFrameSinkHierarchy(a, b)
	if clients["b"].source != nil || clients["c"].source != nil {
		t.Error("detached subtree kept the source")
	}
	if clients["a"].source != source || clients["d"].source != source {
		t.Error("remaining tree lost the source")
	}

	m.RegisterFrameSinkHierarchy(a, b)
	if clients["c"].source != source {
		t.Error("reattached subtree did not get the source back")
	}
}

func TestSourceRegisteredBelowRootOnlyReachesSubtree(t *testing.T) {
	a, b, c := sink(1), sink(2), sink(3)
	m := newManagerWith(a, b, c)
	ca, cb, cc := &fakeClient{}, &fakeClient{}, &fakeClient{}
	m.RegisterSurfaceFactoryClient(a, ca)
	m.RegisterSurfaceFactoryClient(b, cb)
	m.RegisterSurfaceFactoryClient(c, cc)
	m.RegisterFrameSinkHierarchy(a, b)
	m.RegisterFrameSinkHierarchy(b, c)

	source := &fakeSource{id: 1}
	m.RegisterBeginFrameSource(source, b)
	if ca.source != nil || cb.source != source || cc.source != source {
		t.Errorf("sources = %v %v %v, want nil %v %v", ca.source, cb.source, cc.source, source, source)
	}
}

// Registration order of clients, hierarchy and source must not matter.
// Every ordering is checked after each step: a client sees the source iff
// all three are registered, except the root which only needs the source.
func TestRegistrationOrderingCommutes(t *testing.T) {
	for _, registerHierarchyFirst := range []bool{true, false} {
		for _, unregisterHierarchyFirst := range []bool{true, false} {
			for bfsPosition := range 3 {
				name := fmt.Sprintf("reg_hierarchy_first=%v/unreg_hierarchy_first=%v/bfs=%d",
					registerHierarchyFirst, unregisterHierarchyFirst, bfsPosition)
				t.Run(name, func(t *testing.T) {
					h := newOrderingHarness()
					steps := []struct {
						name string
						do   func()
						when bool
					}{
						{"register source", h.registerSource, bfsPosition == 0},
						{"register hierarchy", h.registerHierarchy, registerHierarchyFirst},
						{"register source", h.registerSource, bfsPosition == 1},
						{"register clients", h.registerClients, true},
						{"register hierarchy", h.registerHierarchy, !registerHierarchyFirst},
						{"register source", h.registerSource, bfsPosition == 2},

						{"unregister source", h.unregisterSource, bfsPosition == 2},
						{"unregister hierarchy", h.unregisterHierarchy, unregisterHierarchyFirst},
						{"unregister source", h.unregisterSource, bfsPosition == 1},
						{"unregister clients", h.unregisterClients, true},
						{"unregister hierarchy", h.unregisterHierarchy, !unregisterHierarchyFirst},
						{"unregister source", h.unregisterSource, bfsPosition == 0},
					}
					for i, step := range steps {
						if !step.when {
							continue
						}
						step.do()
						h.check(t, fmt.Sprintf("after step %d (%s)", i, step.name))
					}
					if len(h.m.mappings) != 0 {
						t.Errorf("%d mappings left after teardown", len(h.m.mappings))
					}
				})
			}
		}
	}
}

type orderingHarness struct {
	m       *Manager
	source  *fakeSource
	a, b, c *fakeClient

	hierarchy, clients, bfs bool
}

func newOrderingHarness() *orderingHarness {
	return &orderingHarness{
		m:      newManagerWith(sink(1), sink(2), sink(3)),
		source: &fakeSource{id: 1},
		a:      &fakeClient{}, b: &fakeClient{}, c: &fakeClient{},
	}
}

func (h *orderingHarness) registerHierarchy() {
	h.m.RegisterFrameSinkHierarchy(sink(1), sink(2))
	h.m.RegisterFrameSinkHierarchy(sink(2), sink(3))
	h.hierarchy = true
}

func (h *orderingHarness) unregisterHierarchy() {
	h.m.UnregisterFrameSinkHierarchy(sink(1), sink(2))
	h.m.UnregisterFrameSinkHierarchy(sink(2), sink(3))
	h.hierarchy = false
}

func (h *orderingHarness) registerClients() {
	h.m.RegisterSurfaceFactoryClient(sink(1), h.a)
	h.m.RegisterSurfaceFactoryClient(sink(2), h.b)
	h.m.RegisterSurfaceFactoryClient(sink(3), h.c)
	h.clients = true
}

func (h *orderingHarness) unregisterClients() {
	h.m.UnregisterSurfaceFactoryClient(sink(1))
	h.m.UnregisterSurfaceFactoryClient(sink(2))
	h.m.UnregisterSurfaceFactoryClient(sink(3))
	h.clients = false
}

func (h *orderingHarness) registerSource() {
	h.m.RegisterBeginFrameSource(h.source, sink(1))
	h.bfs = true
}

func (h *orderingHarness) unregisterSource() {
	h.m.UnregisterBeginFrameSource(h.source)
	h.bfs = false
}

func (h *orderingHarness) check(t *testing.T, when string) {
	t.Helper()
	var want [3]beginframe.Source
	switch {
	case !h.clients || !h.bfs:
	case !h.hierarchy:
		want[0] = h.source
	default:
		want = [3]beginframe.Source{h.source, h.source, h.source}
	}
	got := [3]beginframe.Source{h.a.source, h.b.source, h.c.source}
	if got != want {
		t.Errorf("%s: sources = %v, want %v", when, got, want)
	}
}

func TestExistingSourceWinsForSecondParent(t *testing.T) {
	p1, p2, child := sink(1), sink(2), sink(3)
	m := newManagerWith(p1, p2, child)
	s1, s2 := &fakeSource{id: 1}, &fakeSource{id: 2}
	m.RegisterBeginFrameSource(s1, p1)
	m.RegisterBeginFrameSource(s2, p2)
	client := &fakeClient{}
	m.RegisterSurfaceFactoryClient(child, client)

	m.RegisterFrameSinkHierarchy(p1, child)
	if client.source != s1 {
		t.Fatalf("source = %v, want s1", client.source)
	}

	m.RegisterFrameSinkHierarchy(p2, child)
	if client.source != s1 {
		t.Fatalf("second parent replaced the source: got %v, want s1", client.source)
	}

	m.UnregisterFrameSinkHierarchy(p1, child)
	if client.source != s2 {
		t.Fatalf("source = %v after removing the original parent, want s2", client.source)
	}

	want := []beginframe.Source{s1, nil, s2}
	if len(client.sources) != len(want) {
		t.Fatalf("SetBeginFrameSource calls = %v, want %v", client.sources, want)
	}
	for i := range want {
		if client.sources[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, client.sources[i], want[i])
		}
	}
}

func TestUnregisterSourceFallsBackToOtherParent(t *testing.T) {
	p1, p2, child, grandchild := sink(1), sink(2), sink(3), sink(4)
	m := newManagerWith(p1, p2, child, grandchild)
	s1, s2 := &fakeSource{id: 1}, &fakeSource{id: 2}
	cc, gc := &fakeClient{}, &fakeClient{}
	m.RegisterSurfaceFactoryClient(child, cc)
	m.RegisterSurfaceFactoryClient(grandchild, gc)
	m.RegisterFrameSinkHierarchy(p1, child)
	m.RegisterFrameSinkHierarchy(p2, child)
	m.RegisterFrameSinkHierarchy(child, grandchild)

	m.RegisterBeginFrameSource(s1, p1)
	m.RegisterBeginFrameSource(s2, p2)
	if cc.source != s1 || gc.source != s1 {
		t.Fatalf("sources = %v %v, want s1", cc.source, gc.source)
	}

	m.UnregisterBeginFrameSource(s1)
	if cc.source != s2 || gc.source != s2 {
		t.Errorf("sources = %v %v after unregistering s1, want s2", cc.source, gc.source)
	}
	m.UnregisterBeginFrameSource(s2)
	if cc.source != nil || gc.source != nil {
		t.Errorf("sources = %v %v with no source registered", cc.source, gc.source)
	}
}

func TestManagerContractViolations(t *testing.T) {
	a, b, c := sink(1), sink(2), sink(3)
	unknown := sink(9)

	tests := []struct {
		name string
		do   func(m *Manager)
	}{
		{"register id twice", func(m *Manager) { m.RegisterFrameSinkID(a) }},
		{"invalidate unknown id", func(m *Manager) { m.InvalidateFrameSinkID(unknown) }},
		{"client for unknown id", func(m *Manager) { m.RegisterSurfaceFactoryClient(unknown, &fakeClient{}) }},
		{"client twice", func(m *Manager) {
			m.RegisterSurfaceFactoryClient(a, &fakeClient{})
			m.RegisterSurfaceFactoryClient(a, &fakeClient{})
		}},
		{"unregister missing client", func(m *Manager) { m.UnregisterSurfaceFactoryClient(b) }},
		{"self parent", func(m *Manager) { m.RegisterFrameSinkHierarchy(a, a) }},
		{"cycle", func(m *Manager) {
			m.RegisterFrameSinkHierarchy(a, b)
			m.RegisterFrameSinkHierarchy(b, c)
			m.RegisterFrameSinkHierarchy(c, a)
		}},
		{"edge twice", func(m *Manager) {
			m.RegisterFrameSinkHierarchy(a, b)
			m.RegisterFrameSinkHierarchy(a, b)
		}},
		{"unregister missing edge", func(m *Manager) {
			m.RegisterFrameSinkHierarchy(a, b)
			m.UnregisterFrameSinkHierarchy(a, c)
		}},
		{"hierarchy with unknown id", func(m *Manager) { m.RegisterFrameSinkHierarchy(a, unknown) }},
		{"source twice", func(m *Manager) {
			s := &fakeSource{id: 1}
			m.RegisterBeginFrameSource(s, a)
			m.RegisterBeginFrameSource(s, b)
		}},
		{"unregister unknown source", func(m *Manager) { m.UnregisterBeginFrameSource(&fakeSource{id: 5}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := captureViolations(t)
			tt.do(newManagerWith(a, b, c))
			if len(*violations) != 1 {
				t.Errorf("violations = %q, want exactly one", *violations)
			}
		})
	}
}

func TestCycleRejectedLeavesHierarchyIntact(t *testing.T) {
	captureViolations(t)
	a, b := sink(1), sink(2)
	m := newManagerWith(a, b)
	m.RegisterFrameSinkHierarchy(a, b)
	m.RegisterFrameSinkHierarchy(b, a)

	if got := m.Children(b); len(got) != 0 {
		t.Errorf("Children(b) = %v, want none", got)
	}
	source := &fakeSource{id: 1}
	m.RegisterBeginFrameSource(source, a)
	if m.BeginFrameSourceFor(b) != source {
		t.Error("child did not inherit the source")
	}
}
