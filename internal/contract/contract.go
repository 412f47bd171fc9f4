// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package contract reports API contract violations: out-of-order frame
// times, double registration, unbalanced add/remove. These are bugs in the
// caller, never runtime conditions.
//
// Builds tagged compositor_debug panic on a violation. Other builds log it at
// warn level and the caller ignores the offending operation.
package contract

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/compositor"
)

var hook atomic.Pointer[func(string)]

// Violation reports a contract violation.
func Violation(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if h := hook.Load(); h != nil {
		(*h)(msg)
		return
	}
	if debugBuild {
		panic("contract violation: " + msg)
	}
	compositor.Logger().Warn("contract violation", "detail", msg)
}

// Check reports a violation when cond is false and returns cond.
func Check(cond bool, format string, args ...any) bool {
	if !cond {
		Violation(format, args...)
	}
	return cond
}

// SetHook routes violations to fn instead of the default handling until the
// returned restore function is called. Passing nil restores the default.
func SetHook(fn func(msg string)) (restore func()) {
	var prev *func(string)
	if fn == nil {
		prev = hook.Swap(nil)
	} else {
		prev = hook.Swap(&fn)
	}
	return func() { hook.Store(prev) }
}

// Debug reports whether violations are fatal in this build.
func Debug() bool { return debugBuild }
