// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package msgbuf implements the fixed-capacity message buffer shared by the
// holders of an exclusive gate.
package msgbuf

// DefaultCapacity is the buffer size, in bytes, including the terminator.
const DefaultCapacity = 80

// Buffer holds the most recent input, always zero-terminated within its
// capacity. The zero value is not usable; call [Buffer.Init]. Buffer is not
// safe for concurrent use.
type Buffer struct {
	data []byte
	n    int
}

// Init allocates the buffer. Panics if capacity is less than two, since at
// least one byte of content plus the terminator must fit.
func (b *Buffer) Init(capacity int) {
	if capacity < 2 {
		panic("message capacity must be at least 2")
	}
	b.data = make([]byte, capacity)
	b.n = 0
}

// Cap returns the capacity including the terminator.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Set replaces the content with the first min(len(p), Cap()-1) bytes of p and
// returns how many were stored. Input beyond that is dropped without error.
func (b *Buffer) Set(p []byte) int {
	n := copy(b.data[:len(b.data)-1], p)
	b.data[n] = 0
	b.n = n
	return n
}

// Bytes returns the content without the terminator. The slice aliases the
// buffer and is only valid until the next Set.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.n]
}

// Len returns the content length, not counting the terminator.
func (b *Buffer) Len() int {
	return b.n
}
