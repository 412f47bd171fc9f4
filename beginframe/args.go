// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package beginframe

import (
	"fmt"
	"time"

	"github.com/gogpu/compositor/internal/contract"
)

// ArgsType distinguishes regular ticks from ticks synthesized late.
type ArgsType int

const (
	// ArgsInvalid marks the zero Args value.
	ArgsInvalid ArgsType = iota

	// ArgsNormal is a tick delivered on time.
	ArgsNormal

	// ArgsMissed is a tick delivered after its frame time, for example to an
	// observer that attached between two vsyncs.
	ArgsMissed
)

// String returns the type name.
func (t ArgsType) String() string {
	switch t {
	case ArgsInvalid:
		return "Invalid"
	case ArgsNormal:
		return "Normal"
	case ArgsMissed:
		return "Missed"
	default:
		return fmt.Sprintf("ArgsType(%d)", int(t))
	}
}

// StartingSequenceNumber is the sequence number of the first tick of a source.
const StartingSequenceNumber uint64 = 1

// DefaultInterval is the interval used when no vsync information is known.
const DefaultInterval = time.Second / 60

// Args describes one BeginFrame tick. Times are offsets from the task
// runner's epoch; Deadline is absolute, not relative to FrameTime.
//
// Args is a value type: it is copied when delivered and never changed after
// a source creates it.
type Args struct {
	SourceID       uint64
	SequenceNumber uint64
	FrameTime      time.Duration
	Deadline       time.Duration
	Interval       time.Duration
	Type           ArgsType
}

// NewArgs creates tick arguments. A negative interval or a deadline before the
// frame time is a contract violation; the interval is clamped to zero and the
// deadline to the frame time.
func NewArgs(sourceID, sequence uint64, frameTime, deadline, interval time.Duration, typ ArgsType) Args {
	if !contract.Check(interval >= 0, "begin frame interval %v is negative", interval) {
		interval = 0
	}
	if !contract.Check(deadline >= frameTime, "begin frame deadline %v precedes frame time %v", deadline, frameTime) {
		deadline = frameTime
	}
	return Args{
		SourceID:       sourceID,
		SequenceNumber: sequence,
		FrameTime:      frameTime,
		Deadline:       deadline,
		Interval:       interval,
		Type:           typ,
	}
}

// IsValid reports whether a was produced by a source.
func (a Args) IsValid() bool {
	return a.Type != ArgsInvalid && a.Interval >= 0
}

// AsMissed returns a copy of a marked as missed.
func (a Args) AsMissed() Args {
	a.Type = ArgsMissed
	return a
}

// String formats the args for logs.
func (a Args) String() string {
	return fmt.Sprintf("BeginFrame(src=%d seq=%d t=%v deadline=%v interval=%v %s)",
		a.SourceID, a.SequenceNumber, a.FrameTime, a.Deadline, a.Interval, a.Type)
}
