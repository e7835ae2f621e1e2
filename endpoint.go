// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package excl

import (
	"context"
)

// An Endpoint bundles a [Gate] and a running [PeriodicTask] behind the
// file-like surface a host exposes to its callers: open, read, write, close,
// plus a status report. Writes are restricted to privileged callers, as
// decided by [CheckPermission].
type Endpoint struct {
	gate *Gate
	task *PeriodicTask
}

// An EndpointOption customizes an Endpoint created by [NewEndpoint].
type EndpointOption func(*endpointConfig)

type endpointConfig struct {
	gateOpts []GateOption
	taskOpts []TaskOption
}

// WithGateOptions passes options through to the endpoint's [NewGate] call.
func WithGateOptions(opts ...GateOption) EndpointOption {
	return func(c *endpointConfig) {
		c.gateOpts = append(c.gateOpts, opts...)
	}
}

// WithTaskOptions passes options through to the endpoint's [NewPeriodicTask]
// call.
func WithTaskOptions(opts ...TaskOption) EndpointOption {
	return func(c *endpointConfig) {
		c.taskOpts = append(c.taskOpts, opts...)
	}
}

// NewEndpoint creates an endpoint and starts its periodic task on clock. The
// caller must eventually call [Endpoint.Close] while clock is still ticking.
func NewEndpoint(clock TickSource, opts ...EndpointOption) *Endpoint {
	var cfg endpointConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &Endpoint{
		gate: NewGate(cfg.gateOpts...),
		task: NewPeriodicTask(cfg.taskOpts...),
	}
	e.task.Start(clock)
	return e
}

// OpenFlags describe the caller of [Endpoint.Open].
type OpenFlags struct {
	// NonBlock makes Open fail with ErrBusy instead of waiting when the
	// endpoint is already open.
	NonBlock bool

	// Privileged callers may write.
	Privileged bool
}

// Open admits the caller to the endpoint's gate; see [Gate.Acquire].
func (e *Endpoint) Open(ctx context.Context, flags OpenFlags) (*Handle, error) {
	mode := Blocking
	if flags.NonBlock {
		mode = NonBlocking
	}
	s, err := e.gate.Acquire(ctx, mode)
	if err != nil {
		return nil, err
	}
	return &Handle{
		session:    s,
		privileged: flags.Privileged,
	}, nil
}

// Status reports the periodic task's tick count.
func (e *Endpoint) Status() Status {
	return e.task.Status()
}

// Gate returns the gate guarding the endpoint's message.
func (e *Endpoint) Gate() *Gate {
	return e.gate
}

// Task returns the endpoint's periodic task, already started on its tick
// source.
func (e *Endpoint) Task() *PeriodicTask {
	return e.task
}

// Close shuts down the periodic task, waiting for its final tick regardless
// of ctx, and then drains the gate, waiting for open handles to close until
// ctx ends. See [PeriodicTask.Shutdown] and [Gate.Close].
func (e *Endpoint) Close(ctx context.Context) error {
	e.task.Shutdown()
	return e.gate.Close(ctx)
}

// A Handle is an open endpoint, carrying the caller's privilege along with
// its gate [Session].
type Handle struct {
	session    *Session
	privileged bool
}

// Session returns the gate session underlying h.
func (h *Handle) Session() *Session {
	return h.session
}

// Read returns the endpoint's current snapshot; see [Session.Read].
func (h *Handle) Read(p []byte) (int, error) {
	if err := CheckPermission(OpRead, h.privileged); err != nil {
		return 0, err
	}
	return h.session.Read(p)
}

// Write stores p as the endpoint's message, or fails with
// [ErrPermissionDenied] if the handle was not opened as privileged.
func (h *Handle) Write(p []byte) (int, error) {
	if err := CheckPermission(OpWrite, h.privileged); err != nil {
		return 0, err
	}
	return h.session.Write(p)
}

// Close releases the endpoint for the next caller.
func (h *Handle) Close() error {
	return h.session.Close()
}
