// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package cond_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/petenewcomb/excl-go/internal/cond"
	"github.com/stretchr/testify/require"
)

func TestBroadcastWakesAllWaiters(t *testing.T) {
	chk := require.New(t)

	var mu sync.Mutex
	var c cond.Cond
	c.Init(&mu)

	const waiterCount = 8
	ready := false
	parked := 0
	var wg sync.WaitGroup
	for range waiterCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu.Lock()
			defer mu.Unlock()
			parked++
			for !ready {
				if err := c.Wait(context.Background()); err != nil {
					t.Errorf("unexpected wait error: %v", err)
					return
				}
			}
		}()
	}

	chk.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return parked == waiterCount
	}, time.Second, time.Millisecond)

	mu.Lock()
	ready = true
	c.Broadcast()
	mu.Unlock()

	wg.Wait()
}

func TestBroadcastWithoutWaiters(t *testing.T) {
	var mu sync.Mutex
	var c cond.Cond
	c.Init(&mu)

	mu.Lock()
	c.Broadcast()
	c.Broadcast()
	mu.Unlock()
}

func TestWaitCanceled(t *testing.T) {
	chk := require.New(t)

	var mu sync.Mutex
	var c cond.Cond
	c.Init(&mu)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	mu.Lock()
	err := c.Wait(ctx)
	// The lock must be held again on return.
	chk.False(mu.TryLock())
	mu.Unlock()

	chk.ErrorIs(err, context.Canceled)
}

func TestWaitAlreadyCanceled(t *testing.T) {
	chk := require.New(t)

	var mu sync.Mutex
	var c cond.Cond
	c.Init(&mu)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mu.Lock()
	defer mu.Unlock()
	chk.ErrorIs(c.Wait(ctx), context.Canceled)
}

func TestBroadcastDoesNotWakeLaterGeneration(t *testing.T) {
	chk := require.New(t)

	var mu sync.Mutex
	var c cond.Cond
	c.Init(&mu)

	mu.Lock()
	c.Broadcast()
	mu.Unlock()

	// A waiter arriving after the Broadcast must not see it.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	mu.Lock()
	err := c.Wait(ctx)
	mu.Unlock()
	chk.ErrorIs(err, context.DeadlineExceeded)
}
