// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otexcl

import (
	"github.com/petenewcomb/excl-go"
	"go.uber.org/zap"
)

// Instrumented returns an observer that logs to logger (the global zap logger
// if nil), records metrics with the global meter provider, and annotates the
// caller's active span. Pass it to both excl.WithObserver and
// excl.WithTaskObserver to cover the gate and the task.
func Instrumented(logger *zap.Logger) (excl.Observer, error) {
	metrics, err := NewMetricsObserver(nil)
	if err != nil {
		return nil, err
	}
	return excl.MultiObserver(
		NewLoggingObserver(logger),
		metrics,
		TracingObserver{},
	), nil
}
