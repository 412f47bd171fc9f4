// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package task

import (
	"container/heap"
	"time"
)

type entry struct {
	at     time.Duration
	seq    uint64
	fn     Task
	handle *Handle
}

// queue is a min-heap ordered by run time, then posting order.
type queue struct {
	items   []*entry
	nextSeq uint64
}

func (q *queue) Len() int { return len(q.items) }

func (q *queue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.at != b.at {
		return a.at < b.at
	}
	return a.seq < b.seq
}

func (q *queue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *queue) Push(x any) { q.items = append(q.items, x.(*entry)) }

func (q *queue) Pop() any {
	old := q.items
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return e
}

func (q *queue) push(fn Task, at time.Duration) *Handle {
	h := &Handle{}
	heap.Push(q, &entry{at: at, seq: q.nextSeq, fn: fn, handle: h})
	q.nextSeq++
	return h
}

// prune drops canceled tasks from the head of the queue.
func (q *queue) prune() {
	for len(q.items) > 0 && !q.items[0].handle.Pending() {
		heap.Pop(q)
	}
}

// peek returns the next live entry without removing it.
func (q *queue) peek() *entry {
	q.prune()
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

func (q *queue) pop() *entry {
	q.prune()
	if len(q.items) == 0 {
		return nil
	}
	return heap.Pop(q).(*entry)
}

// live counts tasks that are still pending.
func (q *queue) live() int {
	n := 0
	for _, e := range q.items {
		if e.handle.Pending() {
			n++
		}
	}
	return n
}
