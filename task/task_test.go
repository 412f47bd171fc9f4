// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package task

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestManualRunnerOrdering(t *testing.T) {
	r := NewManualRunner(0)
	var got []string
	r.PostDelayedTask(func() { got = append(got, "late") }, 20*time.Millisecond)
	r.PostTask(func() { got = append(got, "first") })
	r.PostDelayedTask(func() { got = append(got, "early") }, 10*time.Millisecond)
	r.PostTask(func() { got = append(got, "second") })

	if n := r.RunUntilIdle(); n != 4 {
		t.Fatalf("RunUntilIdle() = %d, want 4", n)
	}
	want := []string{"first", "second", "early", "late"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if r.Now() != 20*time.Millisecond {
		t.Errorf("Now() = %v, want 20ms", r.Now())
	}
}

func TestManualRunnerRunPendingTasks(t *testing.T) {
	r := NewManualRunner(time.Millisecond)
	runs := 0
	r.PostTask(func() {
		runs++
		r.PostTask(func() { runs++ })
	})
	r.PostDelayedTask(func() { runs++ }, time.Millisecond)

	if n := r.RunPendingTasks(); n != 1 {
		t.Errorf("RunPendingTasks() = %d, want 1", n)
	}
	if r.PendingTasks() != 2 {
		t.Errorf("PendingTasks() = %d, want 2", r.PendingTasks())
	}
	if n := r.RunPendingTasks(); n != 1 {
		t.Errorf("second RunPendingTasks() = %d, want 1", n)
	}
	r.Advance(time.Millisecond)
	if n := r.RunPendingTasks(); n != 1 {
		t.Errorf("RunPendingTasks() after Advance = %d, want 1", n)
	}
	if runs != 3 {
		t.Errorf("runs = %d, want 3", runs)
	}
}

func TestHandleCancel(t *testing.T) {
	r := NewManualRunner(0)
	ran := false
	h := r.PostTask(func() { ran = true })
	if !h.Pending() {
		t.Fatal("new handle should be pending")
	}
	h.Cancel()
	h.Cancel()
	if !h.Canceled() {
		t.Error("Canceled() = false after Cancel")
	}
	if r.HasPendingTasks() {
		t.Error("canceled task still counted as pending")
	}
	r.RunUntilIdle()
	if ran {
		t.Error("canceled task ran")
	}

	var nilHandle *Handle
	nilHandle.Cancel()
	if nilHandle.Pending() {
		t.Error("nil handle reported pending")
	}
}

func TestHandleCancelFromEarlierTask(t *testing.T) {
	r := NewManualRunner(0)
	ran := false
	var second *Handle
	r.PostTask(func() { second.Cancel() })
	second = r.PostTask(func() { ran = true })
	r.RunPendingTasks()
	if ran {
		t.Error("task canceled by an earlier task in the same batch still ran")
	}
}

func TestManualRunnerRunUntilTime(t *testing.T) {
	r := NewManualRunner(0)
	var at []time.Duration
	var tick func()
	tick = func() {
		at = append(at, r.Now())
		r.PostDelayedTask(tick, 10*time.Millisecond)
	}
	r.PostDelayedTask(tick, 10*time.Millisecond)

	r.RunUntilTime(35 * time.Millisecond)
	if len(at) != 3 {
		t.Fatalf("ticks = %v, want 3 ticks", at)
	}
	if at[2] != 30*time.Millisecond {
		t.Errorf("third tick at %v, want 30ms", at[2])
	}
	if r.Now() != 35*time.Millisecond {
		t.Errorf("Now() = %v, want 35ms", r.Now())
	}
	if next, ok := r.NextTaskTime(); !ok || next != 40*time.Millisecond {
		t.Errorf("NextTaskTime() = %v, %v; want 40ms, true", next, ok)
	}
}

func TestLoopRunnerRunsPostedTasks(t *testing.T) {
	r := NewLoopRunner()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []int
	r.PostDelayedTask(func() {
		got = append(got, 2)
		cancel()
	}, 5*time.Millisecond)
	r.PostTask(func() { got = append(got, 1) })
	canceled := r.PostTask(func() { got = append(got, 99) })
	canceled.Cancel()

	err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("ran %v, want [1 2]", got)
	}
}

func TestLoopRunnerCrossGoroutinePost(t *testing.T) {
	r := NewLoopRunner()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		time.Sleep(2 * time.Millisecond)
		r.PostTask(func() {
			close(done)
			cancel()
		})
	}()

	_ = r.Run(ctx)
	select {
	case <-done:
	default:
		t.Error("task posted from another goroutine did not run")
	}
}
