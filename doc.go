// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package excl provides two small coordination primitives for components that
// expose a shared resource to concurrent callers.
//
// A [Gate] admits one caller at a time to a shared message buffer. Callers that
// find it held either wait, abandoning the wait if their context ends, or fail
// immediately with [ErrBusy]. Releasing the gate wakes every waiter so that
// they can race to re-check it. [Gate.Close] drains the gate before it is
// discarded by interrupting all waiters and waiting for the holder to leave.
//
// A [PeriodicTask] runs once per tick of an external [TickSource] and re-arms
// itself after every tick. [PeriodicTask.Shutdown] performs a handshake with
// the final tick so that, once it returns, the task is guaranteed to be neither
// running nor registered to run.
//
// An [Endpoint] combines the two behind a file-like open/read/write/close
// surface with a status report and a simple write permission check.
package excl
