// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"image"
	"time"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/aggregate"
	"github.com/gogpu/compositor/beginframe"
	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/ids"
	"github.com/gogpu/compositor/internal/contract"
	"github.com/gogpu/compositor/surface"
	"github.com/gogpu/compositor/task"
)

// Display draws one root surface to one output surface.
//
// A Display is created unbound; Initialize connects it to its client and the
// surface manager. All methods must be called on the compositor thread.
type Display struct {
	settings    Settings
	frameSinkID ids.FrameSinkID

	client     Client
	manager    *surface.Manager
	aggregator *aggregate.Aggregator
	output     OutputSurface
	renderer   Renderer

	source    beginframe.Source
	runner    task.Runner
	scheduler *Scheduler
	reporters []Reporter

	currentSurfaceID   ids.SurfaceID
	currentSize        image.Point
	scaleFactor        float64
	colorSpace         ColorSpace
	outputIsSecure     bool
	visible            bool
	swappedSinceResize bool
	storedLatency      []frame.LatencyInfo

	initialized bool
	lost        bool
	closed      bool
	lastOutcome Outcome
	attempts    uint64
}

// New creates a display for frame sink id drawing with renderer into out.
func New(id ids.FrameSinkID, out OutputSurface, renderer Renderer, opts ...Option) *Display {
	o := options{settings: DefaultSettings()}
	for _, opt := range opts {
		opt(&o)
	}
	d := &Display{
		settings:    o.settings,
		frameSinkID: id,
		output:      out,
		renderer:    renderer,
		source:      o.source,
		runner:      o.runner,
		reporters:   o.reporters,
		scaleFactor: 1,
	}
	if o.source != nil && o.runner != nil {
		d.scheduler = NewScheduler(o.source, o.runner, o.settings)
	}
	return d
}

// Initialize binds the display to client and manager: it starts observing
// surface damage, registers the display's begin frame source for its frame
// sink and binds the output surface. A failed bind is reported as a lost
// output surface.
func (d *Display) Initialize(client Client, manager *surface.Manager) {
	if !contract.Check(!d.initialized, "display %v initialized twice", d.frameSinkID) {
		return
	}
	d.initialized = true
	d.client = client
	d.manager = manager
	d.aggregator = aggregate.New(manager)
	manager.AddObserver(d)

	if d.source != nil {
		manager.RegisterBeginFrameSource(d.source, d.frameSinkID)
	}
	if d.scheduler != nil {
		d.scheduler.SetClient(d)
	}
	if d.output != nil {
		if err := d.output.BindToClient(d); err != nil {
			compositor.Logger().Warn("output surface bind failed", "frame_sink", d.frameSinkID.String(), "err", err)
			d.DidLoseOutputSurface()
			return
		}
	}
	compositor.Logger().Info("display initialized", "frame_sink", d.frameSinkID.String())
}

// Close detaches the display from the surface manager, its source and its
// output surface. It is safe to call from DisplayOutputSurfaceLost.
func (d *Display) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if d.scheduler != nil {
		d.scheduler.Stop()
	}
	if d.manager != nil {
		d.manager.RemoveObserver(d)
		if d.source != nil {
			d.manager.UnregisterBeginFrameSource(d.source)
		}
	}
	if d.output != nil {
		d.output.DetachFromClient()
		d.output = nil
	}
}

// FrameSinkID returns the display's frame sink.
func (d *Display) FrameSinkID() ids.FrameSinkID { return d.frameSinkID }

// Scheduler returns the scheduler pacing the display, or nil.
func (d *Display) Scheduler() *Scheduler { return d.scheduler }

// CurrentSurfaceID returns the root surface.
func (d *Display) CurrentSurfaceID() ids.SurfaceID { return d.currentSurfaceID }

// Size returns the current target size.
func (d *Display) Size() image.Point { return d.currentSize }

// LastOutcome returns the outcome of the most recent DrawAndSwap.
func (d *Display) LastOutcome() Outcome { return d.lastOutcome }

// SetSurfaceID makes id the root surface drawn at the given scale.
func (d *Display) SetSurfaceID(id ids.SurfaceID, scale float64) {
	if id == d.currentSurfaceID && scale == d.scaleFactor {
		return
	}
	d.currentSurfaceID = id
	d.scaleFactor = scale
	d.updateRootSurfaceResourcesLocked()
	if d.scheduler != nil {
		d.scheduler.SetNewRootSurface(id)
	}
}

// Resize sets the target size. Frames of another size are not swapped until
// the root surface catches up.
func (d *Display) Resize(size image.Point) {
	if size == d.currentSize {
		return
	}
	if d.settings.FinishRenderingOnResize && !d.swappedSinceResize && d.scheduler != nil {
		d.scheduler.ForceImmediateSwapIfPossible()
	}
	d.swappedSinceResize = false
	d.currentSize = size
	if d.scheduler != nil {
		d.scheduler.DisplayResized()
	}
}

// SetColorSpace sets the output color space.
func (d *Display) SetColorSpace(cs ColorSpace) { d.colorSpace = cs }

// SetOutputIsSecure marks the output as secure. Changing it forces a full
// redraw.
func (d *Display) SetOutputIsSecure(secure bool) {
	if secure == d.outputIsSecure {
		return
	}
	d.outputIsSecure = secure
	if d.aggregator != nil && d.currentSurfaceID.IsValid() {
		d.aggregator.SetFullDamageForSurface(d.currentSurfaceID)
	}
}

// SetVisible shows or hides the display. Renderer resources are dropped
// while hidden, so becoming hidden forces a full redraw on return.
func (d *Display) SetVisible(visible bool) {
	if d.renderer != nil {
		d.renderer.SetVisible(visible)
	}
	if d.scheduler != nil {
		d.scheduler.SetVisible(visible)
	}
	d.visible = visible
	if !visible && d.aggregator != nil && d.currentSurfaceID.IsValid() {
		d.aggregator.SetFullDamageForSurface(d.currentSurfaceID)
	}
}

// Visible reports whether the display is visible.
func (d *Display) Visible() bool { return d.visible }

// ForceImmediateDrawAndSwapIfPossible asks the scheduler to draw now.
func (d *Display) ForceImmediateDrawAndSwapIfPossible() {
	if d.scheduler != nil {
		d.scheduler.ForceImmediateSwapIfPossible()
	}
}

// DrawAndSwap makes one draw attempt. It returns false when nothing could be
// aggregated: no root surface, no output surface or no frame. Otherwise it
// returns true, whether or not the frame was drawn or swapped; see
// LastOutcome.
func (d *Display) DrawAndSwap() bool {
	d.lastOutcome = OutcomeSkipped
	log := compositor.Logger()
	switch {
	case d.closed || !d.initialized:
		return false
	case !d.currentSurfaceID.IsValid():
		log.Debug("draw skipped: no root surface")
		return false
	case d.output == nil:
		log.Debug("draw skipped: no output surface")
		return false
	}

	f, ok := d.aggregator.Aggregate(d.currentSurfaceID)
	if !ok || f.IsEmpty() {
		log.Debug("draw skipped: empty aggregated frame", "surface", d.currentSurfaceID.String())
		return false
	}

	// Run callbacks early to allow pipelining.
	for id := range d.aggregator.PreviousContainedSurfaces() {
		if s := d.manager.SurfaceForID(id); s != nil {
			s.RunDrawCallbacks()
		}
	}

	f.Metadata.LatencyInfo = append(f.Metadata.LatencyInfo, d.storedLatency...)
	d.storedLatency = nil

	haveCopyRequests := f.HasCopyRequests()
	root := f.RootPass()
	if root.OutputRect.Size() != d.currentSize && root.DamageRect == root.OutputRect && d.currentSize != (image.Point{}) {
		// Snap to the display size so the draw is not skipped and the swap
		// does not stretch.
		root.OutputRect = image.Rectangle{Min: root.OutputRect.Min, Max: root.OutputRect.Min.Add(d.currentSize)}
		root.DamageRect = root.OutputRect
	}
	size := root.OutputRect.Size()
	haveDamage := !root.DamageRect.Empty()
	sizeMatches := size == d.currentSize
	if !sizeMatches {
		log.Debug("size mismatch", "frame", size, "display", d.currentSize)
	}
	suspended := d.output.SurfaceIsSuspendForRecycle()
	if suspended {
		log.Debug("output surface suspended for recycle")
	}
	decision := Decide(haveDamage, sizeMatches, haveCopyRequests, suspended)

	if d.client != nil {
		d.client.DisplayWillDrawAndSwap(decision.Draw, f.RenderPasses)
	}

	if decision.Draw {
		if err := d.renderer.DrawFrame(f, d.scaleFactor, d.colorSpace, d.currentSize); err != nil {
			log.Warn("draw failed", "surface", d.currentSurfaceID.String(), "err", err)
			d.DidLoseOutputSurface()
			return false
		}
	} else {
		log.Debug("draw skipped")
	}

	d.attempts++
	report := FrameReport{
		Sequence:         d.attempts,
		Surface:          d.currentSurfaceID.String(),
		Time:             d.now(),
		Outcome:          outcomeOf(decision),
		HaveDamage:       haveDamage,
		SizeMatches:      sizeMatches,
		HaveCopyRequests: haveCopyRequests,
		Suspended:        suspended,
		Size:             size,
		Damage:           root.DamageRect,
		RenderPasses:     len(f.RenderPasses),
		Quads:            countQuads(f),
		LatencyInfos:     len(f.Metadata.LatencyInfo),
	}

	if decision.Swap {
		d.swappedSinceResize = true
		for i := range f.Metadata.LatencyInfo {
			f.Metadata.LatencyInfo[i].Add(frame.LatencySwapped, report.Time)
		}
		d.renderer.SwapBuffers(f.Metadata)
		if d.scheduler != nil {
			d.scheduler.DidSwapBuffers()
		}
	} else {
		if haveDamage && !sizeMatches {
			d.aggregator.SetFullDamageForSurface(d.currentSurfaceID)
		}
		log.Debug("swap skipped", "surface", d.currentSurfaceID.String())
		d.storedLatency = append(d.storedLatency, f.Metadata.LatencyInfo...)
		if d.scheduler != nil {
			d.scheduler.DidSwapBuffers()
			d.scheduler.DidReceiveSwapBuffersAck()
		}
	}

	d.lastOutcome = report.Outcome
	if d.scheduler != nil {
		report.PendingSwaps = d.scheduler.PendingSwaps()
	}
	for _, r := range d.reporters {
		r.ReportFrame(report)
	}
	if d.client != nil {
		d.client.DisplayDidDrawAndSwap()
	}
	return true
}

// StoredLatencyInfo returns latency info carried over from skipped swaps.
func (d *Display) StoredLatencyInfo() []frame.LatencyInfo { return d.storedLatency }

// OnSurfaceCreated implements surface.Observer.
func (d *Display) OnSurfaceCreated(id ids.SurfaceID) {
	if id == d.currentSurfaceID {
		d.updateRootSurfaceResourcesLocked()
	}
}

// OnSurfaceDamaged implements surface.Observer. Damage counts as drawn by
// this display when the surface was part of the last aggregation or is the
// root surface.
func (d *Display) OnSurfaceDamaged(id ids.SurfaceID) bool {
	changed := false
	if (d.aggregator != nil && d.aggregator.Contains(id)) || id == d.currentSurfaceID {
		if d.scheduler != nil {
			d.scheduler.SurfaceDamaged(id)
		}
		changed = true
	}
	if id == d.currentSurfaceID {
		d.updateRootSurfaceResourcesLocked()
	}
	return changed
}

// DidSwapBuffersComplete implements OutputSurfaceClient.
func (d *Display) DidSwapBuffersComplete() {
	if d.scheduler != nil {
		d.scheduler.DidReceiveSwapBuffersAck()
	}
	if d.renderer != nil {
		d.renderer.SwapBuffersComplete()
	}
}

// DidLoseOutputSurface implements OutputSurfaceClient. The client is told
// once; it may close the display from inside the notification.
func (d *Display) DidLoseOutputSurface() {
	if d.lost {
		return
	}
	d.lost = true
	compositor.Logger().Warn("output surface lost", "frame_sink", d.frameSinkID.String())
	d.output = nil
	if d.scheduler != nil {
		d.scheduler.OutputSurfaceLost()
	}
	if d.client != nil {
		d.client.DisplayOutputSurfaceLost()
	}
}

// SetMemoryPolicy implements OutputSurfaceClient.
func (d *Display) SetMemoryPolicy(policy MemoryPolicy) {
	if d.client != nil {
		d.client.DisplaySetMemoryPolicy(policy)
	}
}

// SetNeedsRedrawRect implements OutputSurfaceClient: the output lost its
// contents and the root surface must be redrawn in full.
func (d *Display) SetNeedsRedrawRect(image.Rectangle) {
	if d.aggregator != nil {
		d.aggregator.SetFullDamageForSurface(d.currentSurfaceID)
	}
	if d.scheduler != nil {
		d.scheduler.SurfaceDamaged(d.currentSurfaceID)
	}
}

func (d *Display) updateRootSurfaceResourcesLocked() {
	if d.scheduler == nil || d.manager == nil {
		return
	}
	s := d.manager.SurfaceForID(d.currentSurfaceID)
	d.scheduler.SetRootSurfaceResourcesLocked(s == nil || !s.HasFrame())
}

func (d *Display) now() time.Duration {
	if d.runner == nil {
		return 0
	}
	return d.runner.Now()
}

func countQuads(f *frame.CompositorFrame) int {
	n := 0
	for _, p := range f.RenderPasses {
		n += len(p.Quads)
	}
	return n
}

var (
	_ surface.Observer    = (*Display)(nil)
	_ OutputSurfaceClient = (*Display)(nil)
	_ SchedulerClient     = (*Display)(nil)
)
