// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package excl

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gammazero/deque"
	"github.com/petenewcomb/excl-go/internal/tickq"
)

// A TickSource is an external clock that runs one-shot callbacks.
//
// Schedule arranges for fn to be called exactly once, on the next tick. A
// callback that wants to run again must re-register itself. Implementations
// must never run callbacks concurrently with one another.
type TickSource interface {
	Schedule(fn func())
}

// A DelayedTickSource can also register a callback further in the future.
// ScheduleAfter(1, fn) is equivalent to Schedule(fn); zero is treated as one.
type DelayedTickSource interface {
	TickSource
	ScheduleAfter(ticks uint64, fn func())
}

var (
	_ DelayedTickSource = (*ManualClock)(nil)
	_ DelayedTickSource = (*TickerClock)(nil)
)

// ManualClock is a [DelayedTickSource] that ticks only when [ManualClock.Tick]
// is called. The zero value is ready to use.
type ManualClock struct {
	mu    sync.Mutex
	queue tickq.Queue

	// Serializes dispatch so that callbacks never overlap even if Tick is
	// called from several goroutines.
	tickMu sync.Mutex
	batch  deque.Deque[func()]
}

// NewManualClock returns a clock positioned at tick zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) Schedule(fn func()) {
	c.ScheduleAfter(1, fn)
}

func (c *ManualClock) ScheduleAfter(ticks uint64, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.Schedule(ticks, fn)
}

// Tick advances the clock by one tick and runs, in the calling goroutine, every
// callback that has become due. It returns the number of callbacks run.
// Callbacks registered while the tick is being dispatched run on a later tick.
// Callbacks must not call Tick themselves.
func (c *ManualClock) Tick() int {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()

	c.mu.Lock()
	c.queue.Advance(&c.batch)
	c.mu.Unlock()

	n := 0
	for c.batch.Len() > 0 {
		fn := c.batch.PopFront()
		fn()
		n++
	}
	return n
}

// Now returns the number of ticks issued so far.
func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Now()
}

// Pending returns the number of registered callbacks that have not yet run.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Len()
}

// TickerClock is a [DelayedTickSource] that ticks at a fixed interval from a
// background goroutine between calls to [TickerClock.Start] and
// [TickerClock.Stop].
type TickerClock struct {
	manual   ManualClock
	interval time.Duration
	clock    clock.Clock

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// A TickerOption customizes a TickerClock created by [NewTickerClock].
type TickerOption func(*TickerClock)

// WithClock sets the time source used to create the ticker, for instance a
// [clock.Mock] in tests. The default is the wall clock.
func WithClock(c clock.Clock) TickerOption {
	return func(tc *TickerClock) {
		tc.clock = c
	}
}

// NewTickerClock creates a stopped clock that will tick every interval once
// started. Panics if interval is not positive.
func NewTickerClock(interval time.Duration, opts ...TickerOption) *TickerClock {
	if interval <= 0 {
		panic("tick interval must be positive")
	}
	c := &TickerClock{
		interval: interval,
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TickerClock) Schedule(fn func()) {
	c.manual.Schedule(fn)
}

func (c *TickerClock) ScheduleAfter(ticks uint64, fn func()) {
	c.manual.ScheduleAfter(ticks, fn)
}

// Now returns the number of ticks issued so far.
func (c *TickerClock) Now() uint64 {
	return c.manual.Now()
}

// Start launches the ticking goroutine. It has no effect if the clock is
// already running.
func (c *TickerClock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop != nil {
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(c.clock.Ticker(c.interval), c.stop, c.done)
}

// Stop halts ticking and waits for any in-progress tick to finish. Callbacks
// still registered stay registered and run after a later Start. Stop must not
// be called from a tick callback, and a [PeriodicTask] driven by this clock
// must be shut down before the clock is stopped.
func (c *TickerClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.done
	c.stop = nil
	c.done = nil
}

func (c *TickerClock) run(ticker *clock.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.manual.Tick()
		case <-stop:
			return
		}
	}
}
