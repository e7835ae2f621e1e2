// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otexcl

import (
	"context"
	"errors"
	"time"

	"github.com/petenewcomb/excl-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"
)

// Instrument names recorded by MetricsObserver.
const (
	MetricGateAcquired = "excl.gate.acquired"
	MetricGateRejected = "excl.gate.rejected"
	MetricGateReleased = "excl.gate.released"
	MetricGateWait     = "excl.gate.wait.duration"
	MetricGateHold     = "excl.gate.hold.duration"
	MetricTaskTicks    = "excl.task.ticks"
)

// MetricsObserver records gate and task events as OpenTelemetry metrics.
type MetricsObserver struct {
	acquired metric.Int64Counter
	rejected metric.Int64Counter
	released metric.Int64Counter
	wait     metric.Float64Histogram
	hold     metric.Float64Histogram
	ticks    metric.Int64Counter
}

var _ excl.Observer = (*MetricsObserver)(nil)

// NewMetricsObserver creates the observer's instruments using provider, or the
// global meter provider if provider is nil.
func NewMetricsObserver(provider metric.MeterProvider) (*MetricsObserver, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(component)

	var o MetricsObserver
	var err, e error
	o.acquired, e = meter.Int64Counter(MetricGateAcquired,
		metric.WithDescription("Sessions admitted to the gate"))
	err = multierr.Append(err, e)
	o.rejected, e = meter.Int64Counter(MetricGateRejected,
		metric.WithDescription("Acquire calls that failed, by reason"))
	err = multierr.Append(err, e)
	o.released, e = meter.Int64Counter(MetricGateReleased,
		metric.WithDescription("Sessions released"))
	err = multierr.Append(err, e)
	o.wait, e = meter.Float64Histogram(MetricGateWait,
		metric.WithDescription("Time spent in Acquire before admission"),
		metric.WithUnit("s"))
	err = multierr.Append(err, e)
	o.hold, e = meter.Float64Histogram(MetricGateHold,
		metric.WithDescription("Time between admission and release"),
		metric.WithUnit("s"))
	err = multierr.Append(err, e)
	o.ticks, e = meter.Int64Counter(MetricTaskTicks,
		metric.WithDescription("Periodic task ticks processed"))
	err = multierr.Append(err, e)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (o *MetricsObserver) GateAcquired(ctx context.Context, session uint64, waited time.Duration) {
	o.acquired.Add(ctx, 1)
	o.wait.Record(ctx, waited.Seconds())
}

func (o *MetricsObserver) GateRejected(ctx context.Context, mode excl.Mode, err error) {
	o.rejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode.String()),
		attribute.String("reason", rejectReason(err)),
	))
}

func (o *MetricsObserver) GateReleased(session uint64, held time.Duration) {
	ctx := context.Background()
	o.released.Add(ctx, 1)
	o.hold.Record(ctx, held.Seconds())
}

func (o *MetricsObserver) TaskTicked(count uint64) {
	o.ticks.Add(context.Background(), 1)
}

func (o *MetricsObserver) TaskStopped(count uint64) {}

// rejectReason keeps the reason attribute to a small fixed set of values.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, excl.ErrBusy):
		return "busy"
	case errors.Is(err, excl.ErrGateClosed):
		return "closed"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	case errors.Is(err, excl.ErrInterrupted):
		return "interrupted"
	default:
		return "other"
	}
}
