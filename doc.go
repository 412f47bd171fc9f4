// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package compositor is a frame-scheduling and display-aggregation pipeline.
//
// # Overview
//
// The pipeline decides when a frame is produced, which clients are woken for
// it, and how the resulting surface tree is aggregated, drawn and swapped to
// the screen:
//
//	beginframe.Source ──► surface.Manager hierarchy ──► clients submit frames
//	        │                                                  │
//	        ▼                                                  ▼
//	display.Scheduler ──► display.Display.DrawAndSwap ──► aggregate.Aggregator
//	                               │
//	                               ▼
//	                     Renderer.DrawFrame / SwapBuffers
//
// # Packages
//
//   - task: single-threaded task runners (real-time and virtual clock)
//   - beginframe: BeginFrame args, observers and the two synthetic sources
//   - ids, frame: identities and the compositor frame data model
//   - surface: client registry, frame sink hierarchy, surfaces and factories
//   - aggregate: surface tree aggregation
//   - display: the draw/swap state machine and its scheduler
//   - render: software renderer and output surfaces
//   - metrics, tracestore, tracestream: frame report sinks
//
// # Threading
//
// Everything in the scheduling core runs on one logical compositor thread.
// Work is deferred only by posting tasks to a task.Runner; nothing blocks and
// nothing in the core takes locks.
//
// # Logging
//
// Logging is silent by default. See SetLogger.
package compositor

// Version information
const (
	// Version is the current version of the module
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
