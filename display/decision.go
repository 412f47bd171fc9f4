// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import "fmt"

// Decision is the draw/swap decision for one aggregated frame.
type Decision struct {
	Draw bool
	Swap bool
}

// Decide computes the decision from the aggregated frame's state.
//
// A frame is drawn when it carries copy requests, or when it has damage and
// matches the display size. A frame of the wrong size may still be drawn to
// serve copy requests but is never swapped. Nothing is drawn while the
// output surface is suspended for recycle.
func Decide(haveDamage, sizeMatches, haveCopyRequests, suspended bool) Decision {
	draw := haveCopyRequests || (haveDamage && sizeMatches)
	if suspended {
		draw = false
	}
	return Decision{Draw: draw, Swap: draw && sizeMatches}
}

// Outcome is the result of one DrawAndSwap attempt.
type Outcome uint8

const (
	// OutcomeSkipped means nothing was drawn.
	OutcomeSkipped Outcome = iota

	// OutcomeDrawnNoSwap means the frame was drawn but not presented.
	OutcomeDrawnNoSwap

	// OutcomeDrawnAndSwapped means the frame was drawn and presented.
	OutcomeDrawnAndSwapped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeDrawnNoSwap:
		return "drawn-no-swap"
	case OutcomeDrawnAndSwapped:
		return "drawn-and-swapped"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText decodes a name written by MarshalText.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "skipped":
		*o = OutcomeSkipped
	case "drawn-no-swap":
		*o = OutcomeDrawnNoSwap
	case "drawn-and-swapped":
		*o = OutcomeDrawnAndSwapped
	default:
		return fmt.Errorf("display: unknown outcome %q", b)
	}
	return nil
}

func outcomeOf(d Decision) Outcome {
	switch {
	case d.Swap:
		return OutcomeDrawnAndSwapped
	case d.Draw:
		return OutcomeDrawnNoSwap
	default:
		return OutcomeSkipped
	}
}
