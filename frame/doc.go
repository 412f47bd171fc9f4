// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package frame defines the data a client submits to the compositor: a
// CompositorFrame made of render passes holding quads, the resources those
// quads sample, and per-frame metadata such as latency annotations.
//
// Coordinates are integer device pixels. Render passes are ordered so a pass
// only references passes that appear before it; the last pass is the root.
package frame
