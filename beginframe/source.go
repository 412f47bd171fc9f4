// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package beginframe

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gogpu/compositor/internal/contract"
	"github.com/gogpu/compositor/task"
)

// Source produces BeginFrame ticks for a set of observers.
//
// All methods must be called on the source's task runner. RemoveObserver and
// DidFinishFrame may be called from inside OnBeginFrame of the same source.
type Source interface {
	// AddObserver starts delivering ticks to obs. Adding an observer twice
	// is a contract violation.
	AddObserver(obs Observer)

	// RemoveObserver stops delivering ticks to obs. Removing an observer that
	// is not attached is a no-op.
	RemoveObserver(obs Observer)

	// DidFinishFrame tells the source obs finished the frame it was working
	// on and how many more frames it has queued.
	DidFinishFrame(obs Observer, remainingFrames int)

	// SourceID identifies the source in Args.SourceID.
	SourceID() uint64

	// ObserverCount returns the number of attached observers.
	ObserverCount() int
}

// Kind enumerates the synthetic scheduling strategies.
type Kind int

const (
	// KindBackToBack ticks again as soon as observers finish their frame.
	KindBackToBack Kind = iota

	// KindDelayBased ticks on a vsync-aligned timer.
	KindDelayBased
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBackToBack:
		return "back-to-back"
	case KindDelayBased:
		return "delay-based"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses the names returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "back-to-back", "backtoback", "b2b":
		return KindBackToBack, nil
	case "delay-based", "delaybased", "vsync":
		return KindDelayBased, nil
	default:
		return 0, fmt.Errorf("beginframe: unknown source kind %q", s)
	}
}

// SyntheticSource is a Source generated locally rather than by the display
// hardware. The set of implementations is closed: BackToBackSource and
// DelayBasedSource.
type SyntheticSource interface {
	Source

	// Kind reports the strategy.
	Kind() Kind

	// OnUpdateVSyncParameters rebases future ticks. Ignored by strategies
	// that are not timer driven.
	OnUpdateVSyncParameters(timebase, interval time.Duration)

	// SetAuthoritativeVSyncInterval pins the interval regardless of later
	// vsync updates. Zero unpins it.
	SetAuthoritativeVSyncInterval(interval time.Duration)

	synthetic()
}

// NewSyntheticSource creates the source for kind on runner.
func NewSyntheticSource(kind Kind, runner task.Runner, opts ...Option) SyntheticSource {
	switch kind {
	case KindBackToBack:
		return NewBackToBackSource(runner, opts...)
	case KindDelayBased:
		o := applyOptions(opts)
		ts := NewDelayBasedTimeSource(runner)
		s := NewDelayBasedSource(ts)
		s.OnUpdateVSyncParameters(o.timebase, o.interval)
		return s
	default:
		contract.Violation("unknown synthetic source kind %v", kind)
		return NewBackToBackSource(runner, opts...)
	}
}

var lastSourceID atomic.Uint64

func nextSourceID() uint64 { return lastSourceID.Add(1) }

// observerList is an insertion-ordered observer set. Iteration order is the
// order observers were added, which keeps notification order deterministic.
type observerList struct {
	items []Observer
}

func (l *observerList) contains(obs Observer) bool {
	for _, o := range l.items {
		if o == obs {
			return true
		}
	}
	return false
}

// add appends obs unless it is already present and reports whether it did.
func (l *observerList) add(obs Observer) bool {
	if l.contains(obs) {
		return false
	}
	l.items = append(l.items, obs)
	return true
}

// remove deletes obs and reports whether it was present.
func (l *observerList) remove(obs Observer) bool {
	for i, o := range l.items {
		if o == obs {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

func (l *observerList) len() int { return len(l.items) }

// snapshot returns a copy safe to iterate while the list changes.
func (l *observerList) snapshot() []Observer {
	return append([]Observer(nil), l.items...)
}

// take returns the current items and empties the list.
func (l *observerList) take() []Observer {
	items := l.items
	l.items = nil
	return items
}
