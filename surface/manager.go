// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"slices"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/beginframe"
	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/ids"
	"github.com/gogpu/compositor/internal/contract"
)

// FactoryClient is the client side of a frame sink.
type FactoryClient interface {
	// ReturnResources hands back resources no drawn frame uses any more.
	ReturnResources(resources []frame.ReturnedResource)

	// SetBeginFrameSource tells the client which source paces it. A nil
	// source means the client is not reachable from any registered source.
	SetBeginFrameSource(source beginframe.Source)
}

// Observer is notified about surface activity.
type Observer interface {
	// OnSurfaceCreated is called when a factory creates a surface.
	OnSurfaceCreated(id ids.SurfaceID)

	// OnSurfaceDamaged is called when a surface receives a frame or a copy
	// request. It returns true when the damage will be drawn by the
	// observer, in which case the surface's draw callback is deferred until
	// then.
	OnSurfaceDamaged(id ids.SurfaceID) bool
}

// sinkMapping is the per frame sink state. An entry exists while it holds a
// client, a source or children.
type sinkMapping struct {
	client   FactoryClient
	source   beginframe.Source
	children []ids.FrameSinkID
}

func (m *sinkMapping) isEmpty() bool {
	return m.client == nil && m.source == nil && len(m.children) == 0
}

type registeredSource struct {
	source beginframe.Source
	root   ids.FrameSinkID
}

// Manager is the registry of clients, the frame sink hierarchy and live
// surfaces. It must only be used on the compositor thread.
type Manager struct {
	valid    map[ids.FrameSinkID]bool
	mappings map[ids.FrameSinkID]*sinkMapping

	// sources are kept in registration order so re-attachment after a
	// detach is deterministic.
	sources []registeredSource

	surfaces  map[ids.SurfaceID]*Surface
	observers []Observer
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		valid:    make(map[ids.FrameSinkID]bool),
		mappings: make(map[ids.FrameSinkID]*sinkMapping),
		surfaces: make(map[ids.SurfaceID]*Surface),
	}
}

// RegisterFrameSinkID marks id as valid. Every other registration requires a
// valid id.
func (m *Manager) RegisterFrameSinkID(id ids.FrameSinkID) {
	if m.valid[id] {
		contract.Violation("%v registered twice", id)
		return
	}
	m.valid[id] = true
}

// InvalidateFrameSinkID marks id as invalid and destroys its surfaces.
// Client, hierarchy and source registrations must be undone by their owners.
func (m *Manager) InvalidateFrameSinkID(id ids.FrameSinkID) {
	if !m.valid[id] {
		contract.Violation("invalidating unregistered %v", id)
		return
	}
	delete(m.valid, id)
	for sid, s := range m.surfaces {
		if sid.FrameSinkID == id {
			m.destroySurface(s)
		}
	}
}

// IsValid reports whether id is registered.
func (m *Manager) IsValid(id ids.FrameSinkID) bool { return m.valid[id] }

// RegisterSurfaceFactoryClient attaches client to id. If id already has a
// source the client is told about it immediately.
func (m *Manager) RegisterSurfaceFactoryClient(id ids.FrameSinkID, client FactoryClient) {
	if !contract.Check(client != nil, "nil client for %v", id) ||
		!contract.Check(m.valid[id], "client registered for unknown %v", id) {
		return
	}
	mapping := m.mapping(id)
	if mapping.client != nil {
		contract.Violation("client registered twice for %v", id)
		return
	}
	mapping.client = client
	if mapping.source != nil {
		client.SetBeginFrameSource(mapping.source)
	}
}

// UnregisterSurfaceFactoryClient detaches the client of id, clearing its
// source first.
func (m *Manager) UnregisterSurfaceFactoryClient(id ids.FrameSinkID) {
	mapping, ok := m.mappings[id]
	if !ok || mapping.client == nil {
		contract.Violation("no client registered for %v", id)
		return
	}
	if mapping.source != nil {
		mapping.client.SetBeginFrameSource(nil)
	}
	mapping.client = nil
	m.pruneMapping(id)
}

// RegisterBeginFrameSource attaches source to root and every frame sink
// reachable from it that does not already have a source.
func (m *Manager) RegisterBeginFrameSource(source beginframe.Source, root ids.FrameSinkID) {
	if !contract.Check(source != nil, "nil begin frame source for %v", root) ||
		!contract.Check(m.valid[root], "begin frame source registered for unknown %v", root) {
		return
	}
	if m.sourceIndex(source) >= 0 {
		contract.Violation("begin frame source %d registered twice", source.SourceID())
		return
	}
	m.sources = append(m.sources, registeredSource{source: source, root: root})
	compositor.Logger().Info("begin frame source registered", "source", source.SourceID(), "root", root.String())
	m.attach(root, source)
}

// UnregisterBeginFrameSource detaches source everywhere. Frame sinks that
// lose it pick up any other registered source still reaching them.
func (m *Manager) UnregisterBeginFrameSource(source beginframe.Source) {
	i := m.sourceIndex(source)
	if i < 0 {
		contract.Violation("unregistering unknown begin frame source")
		return
	}
	root := m.sources[i].root
	m.sources = slices.Delete(m.sources, i, i+1)
	if _, ok := m.mappings[root]; !ok {
		return
	}
	m.detach(root, source)
	m.reattachAll()
}

// RegisterFrameSinkHierarchy adds the edge parent → child. If the parent has
// a source, the child subtree inherits it where it has none.
func (m *Manager) RegisterFrameSinkHierarchy(parent, child ids.FrameSinkID) {
	if !contract.Check(m.valid[parent] && m.valid[child], "hierarchy %v -> %v uses an unknown frame sink", parent, child) {
		return
	}
	if parent == child || m.childContains(child, parent) {
		contract.Violation("hierarchy %v -> %v would create a cycle", parent, child)
		return
	}
	mapping := m.mapping(parent)
	if slices.Contains(mapping.children, child) {
		contract.Violation("hierarchy %v -> %v registered twice", parent, child)
		return
	}
	mapping.children = append(mapping.children, child)

	if mapping.source == nil {
		return
	}
	m.attach(child, mapping.source)
}

// UnregisterFrameSinkHierarchy removes the edge parent → child. The child
// subtree falls back to sources reaching it through other parents.
func (m *Manager) UnregisterFrameSinkHierarchy(parent, child ids.FrameSinkID) {
	mapping, ok := m.mappings[parent]
	if !ok {
		contract.Violation("unregistering hierarchy of unknown parent %v", parent)
		return
	}
	i := slices.Index(mapping.children, child)
	if i < 0 {
		contract.Violation("hierarchy %v -> %v not registered", parent, child)
		return
	}
	mapping.children = slices.Delete(mapping.children, i, i+1)

	source := mapping.source
	m.pruneMapping(parent)
	if source == nil {
		return
	}
	m.detach(child, source)
	m.reattachAll()
}

// BeginFrameSourceFor returns the source currently reaching id, or nil.
func (m *Manager) BeginFrameSourceFor(id ids.FrameSinkID) beginframe.Source {
	if mapping, ok := m.mappings[id]; ok {
		return mapping.source
	}
	return nil
}

// Children returns a copy of the children of id.
func (m *Manager) Children(id ids.FrameSinkID) []ids.FrameSinkID {
	if mapping, ok := m.mappings[id]; ok {
		return slices.Clone(mapping.children)
	}
	return nil
}

// SurfaceForID returns the live surface with the given id.
func (m *Manager) SurfaceForID(id ids.SurfaceID) *Surface {
	return m.surfaces[id]
}

// AddObserver subscribes obs to surface activity.
func (m *Manager) AddObserver(obs Observer) {
	if slices.Contains(m.observers, obs) {
		contract.Violation("surface observer added twice")
		return
	}
	m.observers = append(m.observers, obs)
}

// RemoveObserver unsubscribes obs.
func (m *Manager) RemoveObserver(obs Observer) {
	if i := slices.Index(m.observers, obs); i >= 0 {
		m.observers = slices.Delete(m.observers, i, i+1)
	}
}

// SurfaceModified notifies observers of damage to id and reports whether
// any of them will draw it.
func (m *Manager) SurfaceModified(id ids.SurfaceID) bool {
	changed := false
	for _, obs := range slices.Clone(m.observers) {
		if obs.OnSurfaceDamaged(id) {
			changed = true
		}
	}
	return changed
}

func (m *Manager) registerSurface(s *Surface) {
	if _, ok := m.surfaces[s.id]; ok {
		contract.Violation("%v created twice", s.id)
	}
	m.surfaces[s.id] = s
	for _, obs := range slices.Clone(m.observers) {
		obs.OnSurfaceCreated(s.id)
	}
}

func (m *Manager) destroySurface(s *Surface) {
	if m.surfaces[s.id] == s {
		delete(m.surfaces, s.id)
	}
	s.destroy()
}

func (m *Manager) mapping(id ids.FrameSinkID) *sinkMapping {
	mapping, ok := m.mappings[id]
	if !ok {
		mapping = &sinkMapping{}
		m.mappings[id] = mapping
	}
	return mapping
}

func (m *Manager) pruneMapping(id ids.FrameSinkID) {
	if mapping, ok := m.mappings[id]; ok && mapping.isEmpty() {
		delete(m.mappings, id)
	}
}

func (m *Manager) sourceIndex(source beginframe.Source) int {
	for i, r := range m.sources {
		if r.source == source {
			return i
		}
	}
	return -1
}

// attach gives source to id and its descendants. A frame sink that already
// has a source keeps it; its descendants are still visited because they may
// have none.
func (m *Manager) attach(id ids.FrameSinkID, source beginframe.Source) {
	mapping := m.mapping(id)
	if mapping.source == nil {
		mapping.source = source
		if mapping.client != nil {
			mapping.client.SetBeginFrameSource(source)
		}
	}
	for _, child := range mapping.children {
		m.attach(child, source)
	}
}

// detach clears source from id and its descendants wherever it is the
// source they have.
func (m *Manager) detach(id ids.FrameSinkID, source beginframe.Source) {
	mapping, ok := m.mappings[id]
	if !ok {
		return
	}
	if mapping.source == source {
		mapping.source = nil
		if mapping.client != nil {
			mapping.client.SetBeginFrameSource(nil)
		}
	}
	if mapping.isEmpty() {
		delete(m.mappings, id)
		return
	}
	for _, child := range mapping.children {
		m.detach(child, source)
	}
}

func (m *Manager) reattachAll() {
	for _, r := range m.sources {
		m.attach(r.root, r.source)
	}
}

// childContains reports whether search is reachable from id.
func (m *Manager) childContains(id, search ids.FrameSinkID) bool {
	mapping, ok := m.mappings[id]
	if !ok {
		return false
	}
	for _, child := range mapping.children {
		if child == search || m.childContains(child, search) {
			return true
		}
	}
	return false
}
