// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petenewcomb/excl-go"
	"github.com/petenewcomb/excl-go/otexcl"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exclsim",
		Short: "Simulate concurrent clients of an exclusive endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	defineFlags(cmd.Flags())
	return cmd
}

// summary is what a run reports when it finishes.
type summary struct {
	Opened  int64
	Busy    int64
	Denied  int64
	Written int64
	Status  excl.Status
}

func (s summary) String() string {
	return fmt.Sprintf("opened=%d busy=%d denied=%d written=%d\n%s",
		s.Opened, s.Busy, s.Denied, s.Written, s.Status)
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg config, out io.Writer) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	logger, err := newLogger(cfg.Dev)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cfg.Trace {
		exporter, expErr := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
		if expErr != nil {
			return expErr
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(tp)
		defer func() {
			multierr.AppendInto(&err, tp.Shutdown(context.Background()))
		}()
	}

	observer, err := otexcl.Instrumented(logger)
	if err != nil {
		return err
	}

	clock := excl.NewTickerClock(cfg.Interval)
	clock.Start()
	defer clock.Stop()

	e := excl.NewEndpoint(clock,
		excl.WithGateOptions(
			excl.WithMessageCapacity(cfg.Capacity),
			excl.WithObserver(observer),
		),
		excl.WithTaskOptions(
			excl.WithPeriod(cfg.Period),
			excl.WithTaskObserver(observer),
			excl.WithTickFunc(otexcl.TracedTickFunc(ctx, nil)),
		),
	)

	logger.Debug("Endpoint ready",
		zap.Int("capacity", e.Gate().MessageCapacity()),
		zap.Uint64("period", cfg.Period))

	s, err := simulate(ctx, cfg, e, logger)
	s.Status = e.Status()

	// The endpoint must be closed while the clock is still running.
	multierr.AppendInto(&err, e.Close(ctx))

	fmt.Fprintln(out, s)
	return err
}

// simulate runs the configured clients against e and waits for all of them.
// Privileged clients (the even-numbered ones) write; the others only read.
func simulate(ctx context.Context, cfg config, e *excl.Endpoint, logger *zap.Logger) (summary, error) {
	var (
		s    summary
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error

		opened, busy, denied, written atomic.Int64
	)
	wg.Add(cfg.Clients)
	for id := range cfg.Clients {
		go func() {
			defer wg.Done()
			c := client{
				id:         id,
				privileged: id%2 == 0,
				cfg:        cfg,
				endpoint:   e,
				logger:     logger.With(zap.Int("client", id)),
			}
			for i := range cfg.Iterations {
				res, err := c.cycle(ctx, i)
				switch {
				case errors.Is(err, excl.ErrBusy):
					busy.Add(1)
					continue
				case err != nil:
					mu.Lock()
					errs = multierr.Append(errs, fmt.Errorf("client %d: %w", id, err))
					mu.Unlock()
					return
				}
				opened.Add(1)
				if res.denied {
					denied.Add(1)
				}
				if res.wrote {
					written.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	s.Opened = opened.Load()
	s.Busy = busy.Load()
	s.Denied = denied.Load()
	s.Written = written.Load()
	return s, errs
}

type client struct {
	id         int
	privileged bool
	cfg        config
	endpoint   *excl.Endpoint
	logger     *zap.Logger
}

type cycleResult struct {
	wrote  bool
	denied bool
}

// cycle opens the endpoint, writes (or attempts to), reads the snapshot back,
// holds the endpoint briefly, and closes it.
func (c *client) cycle(ctx context.Context, iteration int) (res cycleResult, err error) {
	h, err := otexcl.TracedOpen(ctx, c.endpoint, excl.OpenFlags{
		NonBlock:   c.cfg.NonBlock,
		Privileged: c.privileged,
	})
	if err != nil {
		return res, err
	}
	defer func() {
		multierr.AppendInto(&err, h.Close())
	}()

	msg := fmt.Sprintf("client %d iteration %d", c.id, iteration)
	_, err = io.WriteString(h, msg)
	switch {
	case errors.Is(err, excl.ErrPermissionDenied):
		res.denied = true
	case err != nil:
		return res, err
	default:
		res.wrote = true
	}

	data, err := io.ReadAll(h)
	if err != nil {
		return res, err
	}
	c.logger.Debug("Read snapshot",
		zap.Int("iteration", iteration),
		zap.ByteString("data", data))

	select {
	case <-time.After(c.cfg.Hold):
	case <-ctx.Done():
		return res, ctx.Err()
	}
	return res, nil
}
