// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package excl

import (
	"errors"

	"github.com/petenewcomb/excl-go/internal/cerr"
)

// ErrBusy is returned by a [NonBlocking] [Gate.Acquire] when the gate is held.
const ErrBusy = cerr.Error("resource busy")

// ErrInterrupted matches errors returned by a [Blocking] [Gate.Acquire] that
// was abandoned before admission, either because its context ended or because
// the gate was closed.
const ErrInterrupted = cerr.Error("interrupted")

// ErrInvalidHandle is returned when a session that does not currently hold
// the gate is used to release, read, or write.
const ErrInvalidHandle = cerr.Error("invalid handle")

// ErrPermissionDenied is returned by [CheckPermission] and by writes through
// an unprivileged [Handle].
const ErrPermissionDenied = cerr.Error("permission denied")

// ErrGateClosed is returned by [Gate.Acquire] once [Gate.Close] has begun.
const ErrGateClosed = cerr.Error("gate closed")

// interrupted reports an abandoned wait along with what caused it, so that
// callers can match either ErrInterrupted or the cause (e.g. context.Canceled)
// with errors.Is.
func interrupted(cause error) error {
	return ErrInterrupted.With(cause)
}

// IsInterrupted is shorthand for errors.Is(err, ErrInterrupted).
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted)
}
