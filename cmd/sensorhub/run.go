package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/cmd/sensorhub/console"
	"github.com/mklimuk/sensorhub/control"
	"github.com/mklimuk/sensorhub/snsctx"
)

var runCmd = cli.Command{
	Name:  "run",
	Usage: "poll the inputs and render them on the outputs until interrupted",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "override the polling interval",
			EnvVars: []string{"SENSORHUB_INTERVAL"},
		},
		&cli.BoolFlag{
			Name:  "once",
			Usage: "run a single iteration and exit",
		},
	},
	Action: func(c *cli.Context) error {
		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = snsctx.SetVerbose(ctx, c.Bool("verbose"))

		h, err := openHub(ctx, c)
		if err != nil {
			return err
		}
		inputs, inErr := h.inputs(ctx)
		dispatchers, outErr := h.outputs(ctx)
		if len(dispatchers) == 0 {
			_ = h.Close()
			return console.Exit(console.ExitFailure, "no usable output: %s", console.Red(multierr.Combine(inErr, outErr)))
		}

		interval := h.cfg.Monitor.Interval
		if c.IsSet("interval") {
			interval = c.Duration("interval")
		}
		loop := control.New(inputs, dispatchers, control.WithInterval(interval), control.WithCloser(h))
		defer func() {
			if err := loop.Close(); err != nil {
				slog.Warn("teardown failed", "error", err)
			}
		}()
		reportInitFailures(ctx, loop, multierr.Combine(inErr, outErr))

		if c.Bool("once") {
			return loop.RunOnce(ctx)
		}
		return loop.Run(ctx)
	},
}

// reportInitFailures shows every device which could not be initialized on the
// remaining outputs, the way runtime failures are shown.
func reportInitFailures(ctx context.Context, loop *control.Loop, err error) {
	for _, e := range multierr.Errors(err) {
		var de sensorhub.DeviceError
		if !errors.As(e, &de) {
			de = sensorhub.DeviceError{Code: sensorhub.ErrorCodeInitFailed, Device: sensorhub.Device{Component: sensorhub.IOUnused, ID: sensorhub.DeviceIDUnused}, Err: e}
		}
		loop.Report(ctx, de)
	}
}
