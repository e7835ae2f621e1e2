// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package excl

import (
	"context"
	"time"
)

// An Observer is notified of [Gate] and [PeriodicTask] lifecycle events. See
// the otexcl package for logging, metrics, and tracing implementations.
//
// Methods are never called with internal locks held, but they are called
// synchronously from the goroutine performing the operation and so should
// return promptly.
type Observer interface {
	// GateAcquired is called after a session is admitted. waited is how long
	// Acquire took, including time spent parked.
	GateAcquired(ctx context.Context, session uint64, waited time.Duration)

	// GateRejected is called when Acquire fails with ErrBusy, ErrGateClosed,
	// or an interrupted error.
	GateRejected(ctx context.Context, mode Mode, err error)

	// GateReleased is called after a session releases the gate.
	GateReleased(session uint64, held time.Duration)

	// TaskTicked is called once per tick of a PeriodicTask, with the updated
	// tick count.
	TaskTicked(count uint64)

	// TaskStopped is called from the final tick of a PeriodicTask, after it
	// has observed the shutdown request and declined to re-arm. Shutdown
	// does not return until TaskStopped has.
	TaskStopped(count uint64)
}

// NopObserver ignores all events. Embed it to implement only some methods.
type NopObserver struct{}

func (NopObserver) GateAcquired(context.Context, uint64, time.Duration) {}
func (NopObserver) GateRejected(context.Context, Mode, error)           {}
func (NopObserver) GateReleased(uint64, time.Duration)                  {}
func (NopObserver) TaskTicked(uint64)                                   {}
func (NopObserver) TaskStopped(uint64)                                  {}

// MultiObserver returns an Observer that forwards each event to every non-nil
// member of observers, in order.
func MultiObserver(observers ...Observer) Observer {
	m := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

type multiObserver []Observer

func (m multiObserver) GateAcquired(ctx context.Context, session uint64, waited time.Duration) {
	for _, o := range m {
		o.GateAcquired(ctx, session, waited)
	}
}

func (m multiObserver) GateRejected(ctx context.Context, mode Mode, err error) {
	for _, o := range m {
		o.GateRejected(ctx, mode, err)
	}
}

func (m multiObserver) GateReleased(session uint64, held time.Duration) {
	for _, o := range m {
		o.GateReleased(session, held)
	}
}

func (m multiObserver) TaskTicked(count uint64) {
	for _, o := range m {
		o.TaskTicked(count)
	}
}

func (m multiObserver) TaskStopped(count uint64) {
	for _, o := range m {
		o.TaskStopped(count)
	}
}
