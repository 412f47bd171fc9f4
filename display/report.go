// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"image"
	"time"
)

// FrameReport describes one DrawAndSwap attempt that aggregated a frame.
type FrameReport struct {
	Sequence uint64        `json:"sequence"`
	Surface  string        `json:"surface"`
	Time     time.Duration `json:"time_ns"`
	Outcome  Outcome       `json:"outcome"`

	HaveDamage       bool `json:"have_damage"`
	SizeMatches      bool `json:"size_matches"`
	HaveCopyRequests bool `json:"have_copy_requests"`
	Suspended        bool `json:"suspended"`

	Size         image.Point     `json:"size"`
	Damage       image.Rectangle `json:"damage"`
	RenderPasses int             `json:"render_passes"`
	Quads        int             `json:"quads"`
	LatencyInfos int             `json:"latency_infos"`
	PendingSwaps int             `json:"pending_swaps"`
}

// Reporter receives a FrameReport for every attempt. Reporters run on the
// compositor thread and must not block.
type Reporter interface {
	ReportFrame(r FrameReport)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(FrameReport)

// ReportFrame calls f.
func (f ReporterFunc) ReportFrame(r FrameReport) { f(r) }
