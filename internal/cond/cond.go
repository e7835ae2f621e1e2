// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package cond provides a broadcast-only condition variable whose Wait can be
// abandoned through a [context.Context].
//
// Unlike [sync.Cond], there is no Signal: every notification wakes every
// waiter, and each waiter is expected to re-check its predicate in a loop.
package cond

import (
	"context"
	"sync"
)

// Cond must be initialized with [Cond.Init] before use and must not be copied
// afterward. All methods must be called with L held.
type Cond struct {
	L sync.Locker

	// Closed and replaced by Broadcast. Created lazily by the first waiter of
	// each generation so that a Broadcast with no waiters costs nothing.
	wake chan struct{}
}

func (c *Cond) Init(l sync.Locker) {
	c.L = l
	c.wake = nil
}

// Wait atomically unlocks c.L and suspends the calling goroutine until the
// next Broadcast or until ctx is done, then re-locks c.L before returning. The
// returned error is nil after a Broadcast and ctx.Err() otherwise. If both
// happen at once either may be reported, so callers must re-check their
// predicate regardless.
func (c *Cond) Wait(ctx context.Context) error {
	if c.wake == nil {
		c.wake = make(chan struct{})
	}
	wake := c.wake

	c.L.Unlock()
	defer c.L.Lock()

	select {
	case <-wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Broadcast wakes all goroutines currently parked in Wait.
func (c *Cond) Broadcast() {
	if c.wake != nil {
		close(c.wake)
		c.wake = nil
	}
}
