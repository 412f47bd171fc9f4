// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"image"
	"time"
)

// ResourceID identifies a resource within one client's namespace.
type ResourceID uint32

// TransferableResource is pixel content a client hands to the compositor
// with a frame. The compositor returns it once no drawn frame uses it.
type TransferableResource struct {
	ID     ResourceID
	Pixels *image.RGBA
}

// Size returns the resource dimensions.
func (r TransferableResource) Size() image.Point {
	if r.Pixels == nil {
		return image.Point{}
	}
	return r.Pixels.Bounds().Size()
}

// ReturnedResource tells a client it may reuse a resource.
type ReturnedResource struct {
	ID    ResourceID
	Count int
	Lost  bool
}

// ReturnAll builds returned entries for every resource in res.
func ReturnAll(res []TransferableResource) []ReturnedResource {
	if len(res) == 0 {
		return nil
	}
	out := make([]ReturnedResource, len(res))
	for i, r := range res {
		out[i] = ReturnedResource{ID: r.ID, Count: 1}
	}
	return out
}

// CopyOutputRequest asks for the drawn pixels of a pass. Result is called
// exactly once: with the pixels when the pass is drawn, or with nil when the
// request is dropped.
type CopyOutputRequest struct {
	// Area restricts the copy to part of the pass. Empty means the whole pass.
	Area image.Rectangle

	// ResultSize scales the copy. Zero means no scaling.
	ResultSize image.Point

	Result func(*image.RGBA)

	sent bool
}

// SendResult delivers img. Later calls are ignored.
func (r *CopyOutputRequest) SendResult(img *image.RGBA) {
	if r == nil || r.sent {
		return
	}
	r.sent = true
	if r.Result != nil {
		r.Result(img)
	}
}

// SendEmptyResult drops the request.
func (r *CopyOutputRequest) SendEmptyResult() { r.SendResult(nil) }

// Sent reports whether a result was delivered.
func (r *CopyOutputRequest) Sent() bool { return r != nil && r.sent }

// LatencyComponent marks a pipeline stage in a LatencyInfo.
type LatencyComponent uint8

const (
	LatencySubmitted LatencyComponent = iota
	LatencyAggregated
	LatencySwapped
	LatencySwapSkipped
)

func (c LatencyComponent) String() string {
	switch c {
	case LatencySubmitted:
		return "submitted"
	case LatencyAggregated:
		return "aggregated"
	case LatencySwapped:
		return "swapped"
	case LatencySwapSkipped:
		return "swap-skipped"
	default:
		return "unknown"
	}
}

// LatencyEvent is one timestamped component.
type LatencyEvent struct {
	Component LatencyComponent
	Time      time.Duration
}

// LatencyInfo tracks one input event from submission to presentation.
type LatencyInfo struct {
	TraceID uint64
	Events  []LatencyEvent
}

// Add appends a component stamped at t.
func (l *LatencyInfo) Add(c LatencyComponent, t time.Duration) {
	l.Events = append(l.Events, LatencyEvent{Component: c, Time: t})
}

// Has reports whether component c was recorded.
func (l LatencyInfo) Has(c LatencyComponent) bool {
	for _, e := range l.Events {
		if e.Component == c {
			return true
		}
	}
	return false
}
