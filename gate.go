// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package excl

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/petenewcomb/excl-go/internal/cond"
	"github.com/petenewcomb/excl-go/internal/msgbuf"
)

// Mode selects what [Gate.Acquire] does when the gate is already held.
type Mode int

const (
	// Blocking parks the caller until the gate is released or the caller's
	// context ends.
	Blocking Mode = iota
	// NonBlocking fails immediately with [ErrBusy].
	NonBlocking
)

func (m Mode) String() string {
	switch m {
	case Blocking:
		return "blocking"
	case NonBlocking:
		return "non-blocking"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// DefaultMessageCapacity is the size of a gate's message buffer, including the
// terminator, unless overridden with [WithMessageCapacity].
const DefaultMessageCapacity = msgbuf.DefaultCapacity

// readLabel prefixes every snapshot returned by Read.
const readLabel = "Last input:"

// A Gate admits at most one [Session] at a time to a shared message buffer.
//
// Callers that find the gate held either park until it is released or fail
// immediately, depending on the [Mode] passed to [Gate.Acquire]. Every release
// wakes all parked callers; each re-checks the gate and exactly one of them
// wins admission while the rest park again. No ordering among parked callers
// is guaranteed.
//
// A Gate must be created with [NewGate]. Before discarding a Gate that might
// still have parked callers, call [Gate.Close] to drain them.
type Gate struct {
	mu       sync.Mutex
	cond     cond.Cond
	holder   *Session
	waiting  int
	closed   bool
	lastID   uint64
	message  msgbuf.Buffer
	observer Observer
}

// A GateOption customizes a Gate created by [NewGate].
type GateOption func(*gateConfig)

type gateConfig struct {
	capacity int
	observer Observer
}

// WithMessageCapacity sets the message buffer size including its terminator,
// so at most capacity-1 bytes of each write are kept. Panics in NewGate if
// capacity is less than two.
func WithMessageCapacity(capacity int) GateOption {
	return func(c *gateConfig) {
		c.capacity = capacity
	}
}

// WithObserver registers an Observer for the gate's events.
func WithObserver(o Observer) GateOption {
	return func(c *gateConfig) {
		c.observer = o
	}
}

// NewGate creates an unheld, open gate with an empty message.
func NewGate(opts ...GateOption) *Gate {
	cfg := gateConfig{
		capacity: DefaultMessageCapacity,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.observer == nil {
		cfg.observer = NopObserver{}
	}

	g := &Gate{
		observer: cfg.observer,
	}
	g.cond.Init(&g.mu)
	g.message.Init(cfg.capacity)
	return g
}

// Acquire admits the caller to the gate and returns the session that now holds
// it. The session must eventually be passed to [Gate.Release] (or closed).
//
// If the gate is held, a [NonBlocking] call returns [ErrBusy] without waiting.
// A [Blocking] call parks until the gate is free; if ctx ends first, or if the
// gate is closed in the meantime, it returns an error matching
// [ErrInterrupted] that also matches ctx.Err() or [ErrGateClosed]
// respectively. A caller that is interrupted is never admitted.
//
// Once [Gate.Close] has been called, Acquire returns [ErrGateClosed].
func (g *Gate) Acquire(ctx context.Context, mode Mode) (*Session, error) {
	start := time.Now()
	s, err := g.acquire(ctx, mode)
	if err != nil {
		g.observer.GateRejected(ctx, mode, err)
		return nil, err
	}
	g.observer.GateAcquired(ctx, s.id, s.acquired.Sub(start))
	return s, nil
}

func (g *Gate) acquire(ctx context.Context, mode Mode) (*Session, error) {
	if mode != Blocking && mode != NonBlocking {
		panic("invalid gate mode")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, ErrGateClosed
	}
	if g.holder != nil {
		if mode == NonBlocking {
			return nil, ErrBusy
		}
		if err := g.awaitFree(ctx); err != nil {
			return nil, err
		}
	}

	g.lastID++
	s := &Session{
		gate:     g,
		id:       g.lastID,
		acquired: time.Now(),
	}
	g.holder = s
	return s, nil
}

// awaitFree parks until the gate has no holder. Must be called with g.mu held.
func (g *Gate) awaitFree(ctx context.Context) error {
	g.waiting++
	defer func() {
		g.waiting--
		if g.closed {
			// Close is waiting for the wait set to empty.
			g.cond.Broadcast()
		}
	}()

	for g.holder != nil {
		if err := g.cond.Wait(ctx); err != nil {
			return interrupted(err)
		}
		if g.closed {
			return interrupted(ErrGateClosed)
		}
	}
	return nil
}

// Release frees the gate and wakes every parked caller. It returns
// [ErrInvalidHandle] if s is nil, belongs to another gate, or has already been
// released.
func (g *Gate) Release(s *Session) error {
	g.mu.Lock()
	if err := g.checkHolder(s); err != nil {
		g.mu.Unlock()
		return err
	}
	g.holder = nil
	g.cond.Broadcast()
	g.mu.Unlock()

	g.observer.GateReleased(s.id, time.Since(s.acquired))
	return nil
}

// Write replaces the gate's message with p, keeping at most capacity-1 bytes,
// and returns how many bytes were kept. Excess input is dropped without
// error. A successful write makes the next Read return a fresh snapshot.
func (g *Gate) Write(s *Session, p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkHolder(s); err != nil {
		return 0, err
	}
	n := g.message.Set(p)
	s.finished = false
	s.pending = nil
	return n, nil
}

// Read returns "Last input:" followed by the current message and a newline.
// The following Read returns an empty slice to mark the end of the data, after
// which the cycle repeats. Read discards any part of a snapshot left unread by
// [Session.Read].
func (g *Gate) Read(s *Session) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkHolder(s); err != nil {
		return nil, err
	}
	s.pending = nil
	return g.snapshot(s), nil
}

// readStream serves s's snapshot to an io.Reader caller, carrying the unread
// remainder over to later calls. It returns io.EOF at the end-of-data marker.
func (g *Gate) readStream(s *Session, p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkHolder(s); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if len(s.pending) == 0 {
		s.pending = g.snapshot(s)
		if len(s.pending) == 0 {
			return 0, io.EOF
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// snapshot toggles s's end-of-data marker and returns the snapshot, or nil
// if the marker was set. Must be called with g.mu held.
func (g *Gate) snapshot(s *Session) []byte {
	if s.finished {
		s.finished = false
		return nil
	}
	s.finished = true

	msg := g.message.Bytes()
	out := make([]byte, 0, len(readLabel)+g.message.Len()+1)
	out = append(out, readLabel...)
	out = append(out, msg...)
	out = append(out, '\n')
	return out
}

// MessageCapacity returns the size of the gate's message buffer including its
// terminator; at most MessageCapacity()-1 bytes of each write are kept.
func (g *Gate) MessageCapacity() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.message.Cap()
}

// Must be called with g.mu held.
func (g *Gate) checkHolder(s *Session) error {
	if s == nil || s.gate != g || g.holder != s {
		return ErrInvalidHandle
	}
	return nil
}

// Held reports whether a session currently holds the gate.
func (g *Gate) Held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holder != nil
}

// Waiting returns the number of callers currently parked in Acquire.
func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiting
}

// Closed reports whether Close has been called.
func (g *Gate) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Close drains the gate. It rejects all later calls to Acquire with
// [ErrGateClosed], interrupts every parked caller, and then waits until the
// current holder, if any, has released. The holder may continue to read and
// write until it does.
//
// If ctx ends before the gate is drained, Close returns ctx.Err() and the gate
// remains closed; Close may be called again to resume waiting. Close returns
// nil once no session holds the gate and no caller is parked in Acquire.
func (g *Gate) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.closed {
		g.closed = true
		g.cond.Broadcast()
	}
	for g.holder != nil || g.waiting > 0 {
		if err := g.cond.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
