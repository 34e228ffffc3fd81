// Package control runs the monitoring loop: fetch every input, forward its
// data to every output and hand failures to the error handler.
package control

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/input"
	"github.com/mklimuk/sensorhub/snsctx"
)

const DefaultInterval = 5 * time.Second

// Dispatcher renders envelopes on one output.
type Dispatcher interface {
	Device() sensorhub.Device
	Dispatch(ctx context.Context, data sensorhub.Data) sensorhub.ErrorCode
}

// ErrorHandler receives every failure of an iteration, from inputs and outputs alike.
type ErrorHandler func(ctx context.Context, e sensorhub.DeviceError)

type Loop struct {
	inputs      []input.Input
	dispatchers []Dispatcher
	onError     ErrorHandler
	clock       clock.Clock
	interval    time.Duration
	closers     []io.Closer
}

type Option func(*Loop)

func WithClock(c clock.Clock) Option {
	return func(l *Loop) {
		l.clock = c
	}
}

func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(l *Loop) {
		l.onError = h
	}
}

// WithCloser registers resources released by Close, in order.
func WithCloser(c ...io.Closer) Option {
	return func(l *Loop) {
		l.closers = append(l.closers, c...)
	}
}

func New(inputs []input.Input, dispatchers []Dispatcher, opts ...Option) *Loop {
	l := &Loop{
		inputs:      inputs,
		dispatchers: dispatchers,
		clock:       clock.New(),
		interval:    DefaultInterval,
	}
	l.onError = l.reportError
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// reportError logs e and shows it on every output as an error envelope.
// Failures to render the error envelope are only logged.
func (l *Loop) reportError(ctx context.Context, e sensorhub.DeviceError) {
	slog.Warn("device failure", "device", e.Device, "code", e.Code, "error", e.Err)
	data := sensorhub.NewErrorData(e)
	for _, d := range l.dispatchers {
		if code := d.Dispatch(ctx, data); code != sensorhub.ErrorCodeNone {
			slog.Error("could not report failure", "output", d.Device(), "code", code)
		}
	}
}

// Report hands e to the error handler, e.g. for failures found while the
// loop was being built.
func (l *Loop) Report(ctx context.Context, e sensorhub.DeviceError) {
	l.onError(ctx, e)
}

// RunOnce performs one iteration over all inputs. Only context
// cancellation stops it early; device failures go to the error handler.
func (l *Loop) RunOnce(ctx context.Context) error {
	for _, in := range l.inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := in.Fetch(snsctx.WithLogger(ctx, slog.With("input", in.Device().String())))
		if res.Data.Valid() {
			for _, d := range l.dispatchers {
				if code := d.Dispatch(ctx, res.Data); code != sensorhub.ErrorCodeNone {
					l.onError(ctx, sensorhub.DeviceError{Code: code, Device: d.Device()})
				}
			}
		}
		if res.Failed() {
			l.onError(ctx, res.Fault(in.Device()))
		}
	}
	return nil
}

// Run iterates immediately and then on every tick until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.Ticker(l.interval)
	defer ticker.Stop()
	slog.Info("monitoring started", "inputs", len(l.inputs), "outputs", len(l.dispatchers), "interval", l.interval)
	for {
		if err := l.RunOnce(ctx); err != nil {
			slog.Info("monitoring stopped")
			return nil
		}
		select {
		case <-ctx.Done():
			slog.Info("monitoring stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (l *Loop) Close() error {
	var err error
	for _, c := range l.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}
