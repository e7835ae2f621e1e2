// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otexcl

import (
	"context"
	"time"

	"github.com/petenewcomb/excl-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanGateAcquire  = "excl.gate.acquire"
	SpanEndpointOpen = "excl.endpoint.open"
	SpanTaskTick     = "excl.task.tick"
)

func tracer() trace.Tracer {
	return otel.Tracer(component)
}

// TracedAcquire calls g.Acquire within a span, so that time spent parked shows
// up in traces.
func TracedAcquire(ctx context.Context, g *excl.Gate, mode excl.Mode) (*excl.Session, error) {
	ctx, span := tracer().Start(ctx, SpanGateAcquire,
		trace.WithAttributes(attribute.String("excl.mode", mode.String())))
	defer span.End()

	s, err := g.Acquire(ctx, mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int64("excl.session", int64(s.ID())))
	return s, nil
}

// TracedOpen calls e.Open within a span.
func TracedOpen(ctx context.Context, e *excl.Endpoint, flags excl.OpenFlags) (*excl.Handle, error) {
	ctx, span := tracer().Start(ctx, SpanEndpointOpen,
		trace.WithAttributes(
			attribute.Bool("excl.nonblock", flags.NonBlock),
			attribute.Bool("excl.privileged", flags.Privileged),
		))
	defer span.End()

	h, err := e.Open(ctx, flags)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int64("excl.session", int64(h.Session().ID())))
	return h, nil
}

// TracingObserver annotates the span active in the caller's context with gate
// events. Events that carry no context are ignored.
type TracingObserver struct {
	excl.NopObserver
}

var _ excl.Observer = TracingObserver{}

func (TracingObserver) GateAcquired(ctx context.Context, session uint64, waited time.Duration) {
	trace.SpanFromContext(ctx).AddEvent("gate acquired", trace.WithAttributes(
		attribute.Int64("excl.session", int64(session)),
		attribute.Float64("excl.waited_seconds", waited.Seconds()),
	))
}

func (TracingObserver) GateRejected(ctx context.Context, mode excl.Mode, err error) {
	trace.SpanFromContext(ctx).AddEvent("gate rejected", trace.WithAttributes(
		attribute.String("excl.mode", mode.String()),
		attribute.String("excl.reason", rejectReason(err)),
	))
}
