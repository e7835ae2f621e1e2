// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package excl

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/petenewcomb/excl-go/internal/cond"
)

// A PeriodicTask counts the ticks of a [TickSource], optionally running a
// function on each, and re-arms itself after every tick until shut down.
//
// Teardown is a handshake with the tick callback: [PeriodicTask.Shutdown]
// records the request and parks until the next tick observes it, declines to
// re-arm, and signals back. Once Shutdown returns, the task is no longer
// registered with its tick source and will never run again, so the state the
// callback touches may be safely discarded.
type PeriodicTask struct {
	ticks atomic.Uint64

	period   uint64
	tickFunc func(count uint64)
	observer Observer

	mu                sync.Mutex
	cond              cond.Cond
	clock             TickSource
	armed             bool
	shutdownRequested bool
}

// A TaskOption customizes a PeriodicTask created by [NewPeriodicTask].
type TaskOption func(*PeriodicTask)

// WithTickFunc sets work to run on every tick, after the count is incremented
// and before the shutdown check. It receives the updated count and is never
// called concurrently with itself.
func WithTickFunc(fn func(count uint64)) TaskOption {
	return func(t *PeriodicTask) {
		t.tickFunc = fn
	}
}

// WithPeriod makes the task run every n ticks instead of every tick. A period
// greater than one requires the TickSource passed to Start to implement
// [DelayedTickSource]. Zero is treated as one.
func WithPeriod(n uint64) TaskOption {
	return func(t *PeriodicTask) {
		t.period = max(n, 1)
	}
}

// WithTaskObserver registers an Observer for the task's events.
func WithTaskObserver(o Observer) TaskOption {
	return func(t *PeriodicTask) {
		t.observer = o
	}
}

// NewPeriodicTask creates a task that has not yet been started.
func NewPeriodicTask(opts ...TaskOption) *PeriodicTask {
	t := &PeriodicTask{
		period: 1,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.observer == nil {
		t.observer = NopObserver{}
	}
	t.cond.Init(&t.mu)
	return t
}

// Start registers the task with clock and arms it for the next tick (or the
// first period). Panics if the task was already started or if the configured
// period needs a [DelayedTickSource] that clock does not provide.
func (t *PeriodicTask) Start(clock TickSource) {
	if clock == nil {
		panic("nil tick source")
	}
	if _, ok := clock.(DelayedTickSource); t.period > 1 && !ok {
		panic("tick source does not support periods longer than one tick")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.clock != nil {
		panic("periodic task was already started")
	}
	t.clock = clock
	t.armed = true
	t.arm()
}

// Must be called with t.mu held.
func (t *PeriodicTask) arm() {
	if t.period > 1 {
		t.clock.(DelayedTickSource).ScheduleAfter(t.period, t.onTick)
	} else {
		t.clock.Schedule(t.onTick)
	}
}

// onTick is the callback registered with the tick source.
func (t *PeriodicTask) onTick() {
	count := t.ticks.Add(1)
	if t.tickFunc != nil {
		t.tickFunc(count)
	}
	t.observer.TaskTicked(count)

	t.mu.Lock()
	if !t.shutdownRequested {
		t.arm()
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	// Still armed as far as Shutdown can tell, so it keeps waiting until the
	// observer has returned and the tick is truly over.
	t.observer.TaskStopped(count)

	t.mu.Lock()
	t.armed = false
	t.cond.Broadcast()
	t.mu.Unlock()
}

// Shutdown requests that the task stop and waits until its final tick has run
// and it has deregistered itself. At most one more tick is processed after the
// request. The wait cannot be interrupted, so the tick source must keep
// ticking until Shutdown returns. Shutdown returns immediately if the task was
// never started or has already stopped, and is safe to call concurrently.
func (t *PeriodicTask) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.shutdownRequested = true
	for t.armed {
		if err := t.cond.Wait(context.Background()); err != nil {
			// A background context never ends, so the wait primitive itself
			// is broken and the tick registration can no longer be trusted.
			panic(fmt.Sprintf("periodic task shutdown wait failed: %v", err))
		}
	}
}

// TickCount returns the number of ticks processed so far. It may be called at
// any time from any goroutine.
func (t *PeriodicTask) TickCount() uint64 {
	return t.ticks.Load()
}

// Armed reports whether the task is registered to run on a future tick.
func (t *PeriodicTask) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// ShutdownRequested reports whether Shutdown has been called.
func (t *PeriodicTask) ShutdownRequested() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shutdownRequested
}

// Status returns a snapshot of the task's counters.
func (t *PeriodicTask) Status() Status {
	return Status{
		TickCount: t.TickCount(),
	}
}

// Status is the read-only report exposed by a [PeriodicTask].
type Status struct {
	TickCount uint64
}

func (s Status) String() string {
	return fmt.Sprintf("Timer called %d times so far", s.TickCount)
}
