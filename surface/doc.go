// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface owns the compositor's view of its clients.
//
// A Manager is the registry every other component is handed at
// construction. It tracks:
//   - which frame sink ids are valid
//   - which FactoryClient serves each frame sink
//   - the parent→child frame sink hierarchy
//   - which BeginFrame source reaches each frame sink through that hierarchy
//   - the live Surfaces, keyed by SurfaceID
//
// Clients submit frames through a Factory. Each submission either updates
// the factory's current Surface or, when the local frame id changes, creates
// a new one and destroys the old.
//
// # BeginFrame source propagation
//
// A source registered for a root frame sink reaches every frame sink below
// it. Registration of clients, hierarchy edges and sources may happen in any
// order; the resulting client → source mapping is the same.
//
// When a frame sink is reachable from two roots with different sources, the
// source it already has wins. It only switches when the path to that source
// is removed. A window moving between displays is briefly parented to both,
// and keeping the existing source avoids flipping its clients back and forth.
package surface
