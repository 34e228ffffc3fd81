package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub/air"
	"github.com/mklimuk/sensorhub/cmd/sensorhub/console"
	"github.com/mklimuk/sensorhub/snsctx"
)

var airCmd = cli.Command{
	Name:  "air",
	Usage: "maintain the AGS02MA air quality sensor",
	Subcommands: cli.Commands{
		&airInfoCmd,
		&airCalibrateCmd,
	},
}

var airInfoCmd = cli.Command{
	Name:  "info",
	Usage: "print firmware version and sensing element resistance",
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		h, err := openHub(ctx, c)
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		s := air.NewAGS02MA(h.bus)
		version, err := s.Version(ctx)
		if err != nil {
			return console.Exit(console.ExitFailure, "could not read the version: %s", console.Red(err))
		}
		ohm, err := s.ReadResistance(ctx)
		if err != nil {
			return console.Exit(console.ExitFailure, "could not read the resistance: %s", console.Red(err))
		}
		console.PInfof(console.PictoTree, "firmware %s, resistance %s", console.White(version), console.White(float64(ohm)/1000, " kOhm"))
		return nil
	},
}

var airCalibrateCmd = cli.Command{
	Name:  "calibrate",
	Usage: "run the zero-point calibration; the sensor must be in clean air",
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		h, err := openHub(ctx, c)
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		if err := air.NewAGS02MA(h.bus).Calibrate(ctx); err != nil {
			return console.Exit(console.ExitFailure, "error calibrating: %s", console.Red(err))
		}
		console.PInfof(console.PictoTree, "calibrated")
		return nil
	},
}
