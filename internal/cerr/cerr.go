// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package cerr defines constant error values and a way to attach a cause to
// one without losing the ability to match either with errors.Is.
package cerr

// Error is a string usable as a constant error value.
type Error string

func (e Error) Error() string {
	return string(e)
}

// Caused reports Kind, explaining it with Cause. It matches Kind with
// errors.Is and unwraps to Cause.
type Caused struct {
	Kind  Error
	Cause error
}

// With returns a Caused error of kind e. If cause is nil, e itself is
// returned.
func (e Error) With(cause error) error {
	if cause == nil {
		return e
	}
	return Caused{Kind: e, Cause: cause}
}

func (c Caused) Error() string {
	return string(c.Kind) + ": " + c.Cause.Error()
}

func (c Caused) Is(target error) bool {
	return target == c.Kind
}

func (c Caused) Unwrap() error {
	return c.Cause
}
