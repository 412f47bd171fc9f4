// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render draws aggregated compositor frames and presents them.
//
// # Renderers and outputs
//
// [SoftwareRenderer] implements display.Renderer on the CPU with
// golang.org/x/image/draw. It draws into a back buffer owned by the renderer
// and presents it to an [Output] on SwapBuffers:
//
//	runner := task.NewLoopRunner()
//	out := render.NewPixmapOutputSurface(runner)
//	r := render.NewSoftwareRenderer(out)
//	d := display.New(id, out, r, display.WithBeginFrameSource(src, runner))
//
// Only the root pass damage is redrawn; the back buffer keeps the rest of the
// previous frame. Other passes are drawn in full into scratch images and
// composited through their render-pass quads.
//
// [DeviceOutputSurface] is an output bound to a host GPU device via
// gpucontext.DeviceProvider. The compositor receives the device from the host,
// it never creates one. A provider without a device cannot be bound, which
// the display reports as a lost output surface.
//
// # Backends
//
// Output surfaces are selected by name or priority from a [Registry]:
//
//	out, err := render.NewOutput(render.OutputOptions{Runner: runner})
//	out, err := render.NewOutputByName("device", opts)
//
// The "pixmap" backend is always registered.
package render
