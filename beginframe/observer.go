// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package beginframe

import (
	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/internal/contract"
)

// Observer receives BeginFrame ticks from a Source.
//
// A source only holds a back-reference to its observers. The observer owns
// itself and must be removed from its source before it is discarded.
type Observer interface {
	// OnBeginFrame delivers one tick.
	OnBeginFrame(args Args)

	// LastUsedBeginFrameArgs returns the most recent args the observer used,
	// or the zero Args before the first one. Sources use it to avoid
	// delivering the same interval twice.
	LastUsedBeginFrameArgs() Args

	// OnBeginFrameSourcePausedChanged tells the observer whether its source
	// stopped producing ticks.
	OnBeginFrameSourcePausedChanged(paused bool)
}

// UseFunc handles a tick and reports whether the observer used it.
type UseFunc func(args Args) bool

// ObserverBase implements the bookkeeping shared by observers: frame time
// ordering, the last used args and the dropped frame count. Embed it and
// implement OnBeginFrameSourcePausedChanged.
//
//	type client struct {
//	    beginframe.ObserverBase
//	}
//
//	c := &client{}
//	c.ObserverBase = beginframe.NewObserverBase(c.produceFrame)
//
// Only ticks for which the UseFunc returns true become the last used args,
// so filtering or chaining observers never count a drop twice.
type ObserverBase struct {
	use      UseFunc
	lastUsed Args
	dropped  int
}

// NewObserverBase creates an ObserverBase that delegates ticks to use.
func NewObserverBase(use UseFunc) ObserverBase {
	return ObserverBase{use: use}
}

// OnBeginFrame checks ordering, then hands args to the UseFunc.
// A frame time earlier than the last used one is a contract violation and
// the tick is dropped.
func (b *ObserverBase) OnBeginFrame(args Args) {
	if !contract.Check(args.IsValid(), "invalid begin frame args delivered: %v", args) {
		return
	}
	if b.lastUsed.IsValid() && args.FrameTime < b.lastUsed.FrameTime {
		contract.Violation("begin frame time %v precedes last used frame time %v", args.FrameTime, b.lastUsed.FrameTime)
		b.dropped++
		return
	}
	if b.use != nil && b.use(args) {
		b.lastUsed = args
		return
	}
	b.dropped++
	compositor.Logger().Debug("begin frame dropped", "source", args.SourceID, "seq", args.SequenceNumber)
}

// LastUsedBeginFrameArgs returns the args of the last used tick.
func (b *ObserverBase) LastUsedBeginFrameArgs() Args { return b.lastUsed }

// DroppedBeginFrames returns how many delivered ticks were not used.
func (b *ObserverBase) DroppedBeginFrames() int { return b.dropped }
