// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package metrics exports display frame reports as Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg, metrics.WithDroppedBeginFrames(d.Scheduler().DroppedBeginFrames))
//	d := display.New(id, out, r, display.WithReporter(m))
//	http.Handle("/metrics", metrics.Handler(reg))
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gogpu/compositor/display"
)

const namespace = "compositor"

// FrameMetrics is a display.Reporter recording every draw attempt.
type FrameMetrics struct {
	attempts     *prometheus.CounterVec
	swaps        prometheus.Counter
	copyFrames   prometheus.Counter
	sizeMismatch prometheus.Counter
	damage       prometheus.Histogram
	quads        prometheus.Histogram
	pendingSwaps prometheus.Gauge
	lastSequence prometheus.Gauge
}

// Option configures FrameMetrics.
type Option func(*options)

type options struct {
	dropped func() int
	labels  prometheus.Labels
}

// WithDroppedBeginFrames exports fn as the number of unused BeginFrames.
func WithDroppedBeginFrames(fn func() int) Option {
	return func(o *options) { o.dropped = fn }
}

// WithDisplayLabel adds a constant display label, for processes running
// more than one display.
func WithDisplayLabel(name string) Option {
	return func(o *options) { o.labels = prometheus.Labels{"display": name} }
}

// New registers the frame metrics with reg.
func New(reg prometheus.Registerer, opts ...Option) *FrameMetrics {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	f := promauto.With(reg)
	m := &FrameMetrics{
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "draw_attempts_total",
			Help:        "Draw attempts that aggregated a frame, by outcome.",
			ConstLabels: o.labels,
		}, []string{"outcome"}),
		swaps: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "swaps_total",
			Help:        "Frames presented to the output surface.",
			ConstLabels: o.labels,
		}),
		copyFrames: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "copy_request_frames_total",
			Help:        "Aggregated frames carrying copy output requests.",
			ConstLabels: o.labels,
		}),
		sizeMismatch: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "size_mismatch_frames_total",
			Help:        "Aggregated frames whose size did not match the display.",
			ConstLabels: o.labels,
		}),
		damage: f.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "damage_ratio",
			Help:        "Damaged fraction of the root pass per attempt.",
			Buckets:     []float64{0, 0.01, 0.05, 0.1, 0.25, 0.5, 0.75, 1},
			ConstLabels: o.labels,
		}),
		quads: f.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "quads_per_frame",
			Help:        "Quads in the aggregated frame.",
			Buckets:     prometheus.ExponentialBuckets(1, 4, 6),
			ConstLabels: o.labels,
		}),
		pendingSwaps: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "pending_swaps",
			Help:        "Swaps awaiting acknowledgement after the last attempt.",
			ConstLabels: o.labels,
		}),
		lastSequence: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_frame_sequence",
			Help:        "Sequence number of the last reported attempt.",
			ConstLabels: o.labels,
		}),
	}
	if o.dropped != nil {
		dropped := o.dropped
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "dropped_begin_frames",
			Help:        "BeginFrames delivered to the display scheduler and not used.",
			ConstLabels: o.labels,
		}, func() float64 { return float64(dropped()) })
	}
	return m
}

// ReportFrame implements display.Reporter.
func (m *FrameMetrics) ReportFrame(r display.FrameReport) {
	m.attempts.WithLabelValues(r.Outcome.String()).Inc()
	if r.Outcome == display.OutcomeDrawnAndSwapped {
		m.swaps.Inc()
	}
	if r.HaveCopyRequests {
		m.copyFrames.Inc()
	}
	if !r.SizeMatches {
		m.sizeMismatch.Inc()
	}
	m.damage.Observe(damageRatio(r))
	m.quads.Observe(float64(r.Quads))
	m.pendingSwaps.Set(float64(r.PendingSwaps))
	m.lastSequence.Set(float64(r.Sequence))
}

func damageRatio(r display.FrameReport) float64 {
	total := r.Size.X * r.Size.Y
	if total <= 0 {
		return 0
	}
	d := r.Damage.Dx() * r.Damage.Dy()
	return min(float64(d)/float64(total), 1)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ display.Reporter = (*FrameMetrics)(nil)
