// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import "testing"

func TestDecide(t *testing.T) {
	tests := []struct {
		damage, matches, copies, suspended bool
		want                               Decision
	}{
		{false, false, false, false, Decision{}},
		{false, false, false, true, Decision{}},
		{false, false, true, false, Decision{Draw: true}},
		{false, false, true, true, Decision{}},
		{false, true, false, false, Decision{}},
		{false, true, false, true, Decision{}},
		{false, true, true, false, Decision{Draw: true, Swap: true}},
		{false, true, true, true, Decision{}},
		{true, false, false, false, Decision{}},
		{true, false, false, true, Decision{}},
		{true, false, true, false, Decision{Draw: true}},
		{true, false, true, true, Decision{}},
		{true, true, false, false, Decision{Draw: true, Swap: true}},
		{true, true, false, true, Decision{}},
		{true, true, true, false, Decision{Draw: true, Swap: true}},
		{true, true, true, true, Decision{}},
	}
	for _, tt := range tests {
		got := Decide(tt.damage, tt.matches, tt.copies, tt.suspended)
		if got != tt.want {
			t.Errorf("Decide(damage=%v, matches=%v, copies=%v, suspended=%v) = %+v, want %+v",
				tt.damage, tt.matches, tt.copies, tt.suspended, got, tt.want)
		}
		if got.Swap && !got.Draw {
			t.Errorf("Decide(%v, %v, %v, %v) swaps without drawing", tt.damage, tt.matches, tt.copies, tt.suspended)
		}
	}
}

func TestOutcomeText(t *testing.T) {
	for _, o := range []Outcome{OutcomeSkipped, OutcomeDrawnNoSwap, OutcomeDrawnAndSwapped} {
		b, err := o.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", o, err)
		}
		var got Outcome
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if got != o {
			t.Errorf("round trip of %v = %v", o, got)
		}
	}
	var o Outcome
	if err := o.UnmarshalText([]byte("exploded")); err == nil {
		t.Error("UnmarshalText accepted an unknown outcome")
	}
	if s := Outcome(9).String(); s != "Outcome(9)" {
		t.Errorf("Outcome(9).String() = %q", s)
	}
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		d    Decision
		want Outcome
	}{
		{Decision{}, OutcomeSkipped},
		{Decision{Draw: true}, OutcomeDrawnNoSwap},
		{Decision{Draw: true, Swap: true}, OutcomeDrawnAndSwapped},
	}
	for _, tt := range tests {
		if got := outcomeOf(tt.d); got != tt.want {
			t.Errorf("outcomeOf(%+v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}
