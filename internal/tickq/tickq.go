// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package tickq holds one-shot callbacks registered against a logical tick
// counter. Each registration fires once, on the tick it is due, and must be
// re-registered to fire again.
package tickq

import (
	"cmp"

	"github.com/addrummond/heap"
	"github.com/gammazero/deque"
)

// Queue is not safe for concurrent use. The zero value is ready to use and is
// positioned at tick zero.
type Queue struct {
	now     uint64
	seq     uint64
	count   int
	pending heap.Heap[entry, heap.Min]
}

type entry struct {
	due uint64
	seq uint64
	fn  func()
}

// Entries due on the same tick keep their registration order.
func (a *entry) Cmp(b *entry) int {
	if c := cmp.Compare(a.due, b.due); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

// Now returns the number of ticks advanced so far.
func (q *Queue) Now() uint64 {
	return q.now
}

// Len returns the number of registrations that have not yet fired.
func (q *Queue) Len() int {
	return q.count
}

// Schedule registers fn to fire `after` ticks from now. Zero is treated as one,
// since the current tick has already been dispatched.
func (q *Queue) Schedule(after uint64, fn func()) {
	if fn == nil {
		panic("nil tick callback")
	}
	if after == 0 {
		after = 1
	}
	q.seq++
	q.count++
	heap.PushOrderable(&q.pending, entry{
		due: q.now + after,
		seq: q.seq,
		fn:  fn,
	})
}

// Advance moves to the next tick and appends every callback now due to batch,
// in due order. The callbacks are not run, so that the caller can release any
// lock guarding the queue before running them; anything they schedule lands
// on a later tick.
func (q *Queue) Advance(batch *deque.Deque[func()]) {
	q.now++
	for {
		e, ok := heap.Peek(&q.pending)
		if !ok || e.due > q.now {
			return
		}
		_, _ = heap.PopOrderable(&q.pending)
		q.count--
		batch.PushBack(e.fn)
	}
}
