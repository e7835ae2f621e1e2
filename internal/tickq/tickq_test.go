// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package tickq_test

import (
	"testing"

	"github.com/gammazero/deque"
	"github.com/petenewcomb/excl-go/internal/tickq"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func drain(batch *deque.Deque[func()]) int {
	n := 0
	for batch.Len() > 0 {
		batch.PopFront()()
		n++
	}
	return n
}

func TestQueueNextTick(t *testing.T) {
	chk := require.New(t)
	var q tickq.Queue
	var batch deque.Deque[func()]

	fired := 0
	q.Schedule(1, func() { fired++ })
	chk.Equal(1, q.Len())

	q.Advance(&batch)
	chk.Equal(uint64(1), q.Now())
	chk.Equal(1, drain(&batch))
	chk.Equal(1, fired)
	chk.Equal(0, q.Len())

	// One-shot: nothing fires on the following tick.
	q.Advance(&batch)
	chk.Equal(0, drain(&batch))
	chk.Equal(1, fired)
}

func TestQueueZeroDelayMeansNextTick(t *testing.T) {
	chk := require.New(t)
	var q tickq.Queue
	var batch deque.Deque[func()]

	fired := false
	q.Schedule(0, func() { fired = true })
	chk.False(fired)
	q.Advance(&batch)
	drain(&batch)
	chk.True(fired)
}

func TestQueueOrder(t *testing.T) {
	chk := require.New(t)
	var q tickq.Queue
	var batch deque.Deque[func()]

	var order []string
	q.Schedule(2, func() { order = append(order, "b") })
	q.Schedule(1, func() { order = append(order, "a1") })
	q.Schedule(1, func() { order = append(order, "a2") })
	q.Schedule(3, func() { order = append(order, "c") })

	q.Advance(&batch)
	drain(&batch)
	chk.Equal([]string{"a1", "a2"}, order)

	q.Advance(&batch)
	q.Advance(&batch)
	drain(&batch)
	chk.Equal([]string{"a1", "a2", "b", "c"}, order)
}

func TestQueueRescheduleFromCallback(t *testing.T) {
	chk := require.New(t)
	var q tickq.Queue
	var batch deque.Deque[func()]

	fired := 0
	var fn func()
	fn = func() {
		fired++
		q.Schedule(1, fn)
	}
	q.Schedule(1, fn)

	for range 5 {
		q.Advance(&batch)
		// Re-registration during dispatch must not fire on the same tick.
		chk.Equal(1, drain(&batch))
	}
	chk.Equal(5, fired)
	chk.Equal(1, q.Len())
}

func TestQueueNilCallbackPanics(t *testing.T) {
	chk := require.New(t)
	var q tickq.Queue
	chk.PanicsWithValue("nil tick callback", func() {
		q.Schedule(1, nil)
	})
}

// TestQueueWithRapid checks that every registration fires exactly once, on
// exactly the tick it was due.
func TestQueueWithRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var q tickq.Queue
		var batch deque.Deque[func()]

		expected := make(map[int]uint64)
		firedAt := make(map[int]uint64)
		next := 0

		t.Repeat(map[string]func(*rapid.T){
			"schedule": func(t *rapid.T) {
				after := rapid.Uint64Range(1, 10).Draw(t, "after")
				id := next
				next++
				expected[id] = q.Now() + after
				q.Schedule(after, func() {
					if _, dup := firedAt[id]; dup {
						t.Fatalf("registration %d fired twice", id)
					}
					firedAt[id] = q.Now()
				})
			},
			"advance": func(t *rapid.T) {
				q.Advance(&batch)
				drain(&batch)
			},
			"": func(t *rapid.T) {
				pending := 0
				for id, due := range expected {
					at, fired := firedAt[id]
					switch {
					case fired && at != due:
						t.Fatalf("registration %d fired at %d, due %d", id, at, due)
					case !fired && due <= q.Now():
						t.Fatalf("registration %d due at %d not fired by %d", id, due, q.Now())
					case !fired:
						pending++
					}
				}
				if pending != q.Len() {
					t.Fatalf("Len() = %d, want %d", q.Len(), pending)
				}
			},
		})
	})
}
