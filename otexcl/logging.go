// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package otexcl provides logging, metrics, and OpenTelemetry tracing for the
// excl gate and periodic task. Most of it is delivered as [excl.Observer]
// implementations that can be combined with [excl.MultiObserver] or, more
// conveniently, with [Instrumented].
package otexcl

import (
	"context"
	"errors"
	"time"

	"github.com/petenewcomb/excl-go"
	"go.uber.org/zap"
)

const component = "otexcl"

// LoggingObserver writes gate and task events to a zap logger. Routine events
// are logged at debug level; rejections other than ErrBusy and task shutdown
// are logged at info level.
type LoggingObserver struct {
	logger *zap.Logger
}

var _ excl.Observer = (*LoggingObserver)(nil)

// NewLoggingObserver returns an observer that logs to logger, or to the global
// zap logger if logger is nil.
func NewLoggingObserver(logger *zap.Logger) *LoggingObserver {
	if logger == nil {
		logger = zap.L()
	}
	return &LoggingObserver{
		logger: logger.With(zap.String("component", component)),
	}
}

func (o *LoggingObserver) GateAcquired(ctx context.Context, session uint64, waited time.Duration) {
	o.logger.Debug("Gate acquired",
		zap.String("operation", "acquire"),
		zap.Uint64("session", session),
		zap.Duration("waited", waited))
}

func (o *LoggingObserver) GateRejected(ctx context.Context, mode excl.Mode, err error) {
	level := zap.InfoLevel
	if errors.Is(err, excl.ErrBusy) {
		level = zap.DebugLevel
	}
	o.logger.Log(level, "Gate acquire failed",
		zap.String("operation", "acquire"),
		zap.Stringer("mode", mode),
		zap.Error(err))
}

func (o *LoggingObserver) GateReleased(session uint64, held time.Duration) {
	o.logger.Debug("Gate released",
		zap.String("operation", "release"),
		zap.Uint64("session", session),
		zap.Duration("held", held))
}

func (o *LoggingObserver) TaskTicked(count uint64) {
	o.logger.Debug("Task ticked",
		zap.String("operation", "tick"),
		zap.Uint64("count", count))
}

func (o *LoggingObserver) TaskStopped(count uint64) {
	o.logger.Info("Task stopped",
		zap.String("operation", "shutdown"),
		zap.Uint64("count", count))
}
