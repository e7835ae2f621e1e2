// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package excl

import (
	"io"
	"time"
)

// A Session is the handle returned by [Gate.Acquire]. It is valid until
// released, after which all operations on it fail with [ErrInvalidHandle].
//
// Session implements [io.ReadWriteCloser] over the gate's message, so that it
// can be handed to code that expects a file.
type Session struct {
	gate     *Gate
	id       uint64
	acquired time.Time

	// Guarded by gate.mu. finished is set by a snapshot read so that the
	// next read reports end of data; pending is the part of that snapshot
	// not yet returned by Read.
	finished bool
	pending  []byte
}

var _ io.ReadWriteCloser = (*Session)(nil)

// ID returns a number identifying the session, unique within its gate.
func (s *Session) ID() uint64 {
	return s.id
}

// Read copies the gate's current snapshot into p. A snapshot larger than p
// is returned across several calls; the call after its last byte returns
// io.EOF, and the one after that starts a new snapshot. A write discards any
// unread remainder.
func (s *Session) Read(p []byte) (int, error) {
	if s == nil || s.gate == nil {
		return 0, ErrInvalidHandle
	}
	return s.gate.readStream(s, p)
}

// Write is equivalent to [Gate.Write].
func (s *Session) Write(p []byte) (int, error) {
	if s == nil || s.gate == nil {
		return 0, ErrInvalidHandle
	}
	return s.gate.Write(s, p)
}

// Close releases the gate; see [Gate.Release].
func (s *Session) Close() error {
	if s == nil || s.gate == nil {
		return ErrInvalidHandle
	}
	return s.gate.Release(s)
}
