// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package display draws the surface tree of one root surface to an output
// surface.
//
// Display.DrawAndSwap is one draw attempt: aggregate the tree, decide
// whether to draw and whether to swap, then run the renderer. A Scheduler
// decides when attempts happen from BeginFrame ticks, surface damage and
// swap acknowledgements.
//
// # Drawn versus presented
//
// Surfaces' draw callbacks run at the start of the attempt that follows the
// one that consumed their frame, before the renderer is invoked. From the
// clients' point of view a frame is drawn once the aggregator has taken its
// damage, not once its pixels are on screen. This lets a client produce the
// next frame while the current one is still being rendered.
//
// # Acknowledgements
//
// Every attempt that aggregates a frame produces exactly one swap
// acknowledgement for the scheduler. When the frame is not swapped (size
// mismatch after a resize, nothing to draw, output suspended) the
// acknowledgement is synthesized immediately and the frame's latency info is
// carried over to the next attempt.
package display
