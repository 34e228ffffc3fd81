package main

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub/cmd/sensorhub/console"
	"github.com/mklimuk/sensorhub/config"
	"github.com/mklimuk/sensorhub/rtc"
	"github.com/mklimuk/sensorhub/snsctx"
)

var timeCmd = cli.Command{
	Name:  "time",
	Usage: "read the real-time clock",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "set",
			Usage: "set the DS3231 to the host time first",
		},
	},
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		h, err := openHub(ctx, c)
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		rc := h.cfg.Inputs.RTC
		if rc == nil {
			rc = &config.RTCConfig{Driver: config.RTCDriverDS3231}
		}
		if c.Bool("set") {
			if rc.Driver != config.RTCDriverDS3231 {
				return console.Exit(console.ExitFailure, "only the ds3231 clock can be set")
			}
			if err := rtc.NewDS3231(h.bus).Set(ctx, time.Now().UTC()); err != nil {
				return console.Exit(console.ExitFailure, "could not set the clock: %s", console.Red(err))
			}
		}
		clk, err := h.clock(ctx, rc)
		if err != nil {
			return console.Exit(console.ExitFailure, "%s", console.Red(err))
		}
		now, err := clk.Now(ctx)
		if err != nil {
			return console.Exit(console.ExitFailure, "could not read the clock: %s", console.Red(err))
		}
		console.PInfof(console.PictoCalendar, "%s", console.White(now))
		return nil
	},
}
