// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otexcl

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracedTickFunc wraps a periodic task's tick function so that each tick runs
// in its own root span. Ticks are driven by the clock rather than by a caller,
// so each span is linked to the span active in ctx, typically the one that
// created the task, instead of being parented by it. fn may be nil.
//
// Use the result with excl.WithTickFunc.
func TracedTickFunc(ctx context.Context, fn func(count uint64)) func(count uint64) {
	origin := trace.SpanContextFromContext(ctx)
	return func(count uint64) {
		opts := []trace.SpanStartOption{
			trace.WithNewRoot(),
			trace.WithAttributes(attribute.Int64("excl.tick", int64(count))),
		}
		if origin.IsValid() {
			opts = append(opts, trace.WithLinks(trace.Link{SpanContext: origin}))
		}
		_, span := tracer().Start(context.Background(), SpanTaskTick, opts...)
		defer span.End()
		if fn != nil {
			fn(count)
		}
	}
}
