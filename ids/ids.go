// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package ids defines the identities used across the compositor: frame sinks,
// local frames and surfaces.
package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// FrameSinkID is the stable identity of one frame producer/consumer pair.
// It must be registered with the surface manager before use.
type FrameSinkID struct {
	ClientID uint32
	SinkID   uint32
}

// IsValid reports whether id is not the zero value.
func (id FrameSinkID) IsValid() bool { return id.ClientID != 0 || id.SinkID != 0 }

// String formats id as "FrameSinkID(client, sink)".
func (id FrameSinkID) String() string {
	return fmt.Sprintf("FrameSinkID(%d, %d)", id.ClientID, id.SinkID)
}

// LocalFrameID identifies one version of a client's content. The nonce keeps
// ids unguessable across clients and process restarts.
type LocalFrameID struct {
	LocalID uint32
	Nonce   uuid.UUID
}

// NewLocalFrameID returns a local frame id with a fresh random nonce.
func NewLocalFrameID(localID uint32) LocalFrameID {
	return LocalFrameID{LocalID: localID, Nonce: uuid.New()}
}

// IsValid reports whether id was allocated.
func (id LocalFrameID) IsValid() bool { return id.LocalID != 0 && id.Nonce != uuid.Nil }

func (id LocalFrameID) String() string {
	return fmt.Sprintf("LocalFrameID(%d, %s)", id.LocalID, id.Nonce)
}

// SurfaceID identifies one submitted version of one client's frame tree.
type SurfaceID struct {
	FrameSinkID  FrameSinkID
	LocalFrameID LocalFrameID
}

// IsValid reports whether both halves of id are valid.
func (id SurfaceID) IsValid() bool {
	return id.FrameSinkID.IsValid() && id.LocalFrameID.IsValid()
}

func (id SurfaceID) String() string {
	return fmt.Sprintf("SurfaceID(%d, %d, %d, %s)",
		id.FrameSinkID.ClientID, id.FrameSinkID.SinkID, id.LocalFrameID.LocalID, id.LocalFrameID.Nonce)
}

// Allocator hands out increasing local frame ids for one frame sink.
// The zero value is ready to use.
type Allocator struct {
	next uint32
}

// Generate returns the next local frame id.
func (a *Allocator) Generate() LocalFrameID {
	a.next++
	return NewLocalFrameID(a.next)
}
