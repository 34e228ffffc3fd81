package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub/cmd/sensorhub/console"
	"github.com/mklimuk/sensorhub/config"
	"github.com/mklimuk/sensorhub/input"
	"github.com/mklimuk/sensorhub/output"
	"github.com/mklimuk/sensorhub/snsctx"
)

var sensorCmd = cli.Command{
	Name:    "sensor",
	Aliases: []string{"read"},
	Usage:   "read the configured sensors once",
	Flags: []cli.Flag{
		&cli.UintFlag{
			Name:  "id",
			Usage: "read only the sensor with this id",
		},
	},
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		h, err := openHub(ctx, c)
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		failed := 0
		for _, sc := range h.cfg.Inputs.Sensors {
			if c.IsSet("id") && uint(sc.ID) != c.Uint("id") {
				continue
			}
			s, err := h.sensor(ctx, sc)
			if err != nil {
				console.Errorf("sensor %d (%s): %s", sc.ID, sc.Driver, console.Red(err))
				failed++
				continue
			}
			res := input.NewSensorInput(sc.ID, s).Fetch(ctx)
			if res.Failed() {
				console.Errorf("sensor %d (%s): %s: %v", sc.ID, sc.Driver, console.Red(res.Code), res.Err)
				failed++
				continue
			}
			text, _ := output.Format(res.Data)
			console.PInfof(picto(sc), "%s", console.White(text))
		}
		if failed > 0 {
			return console.Exit(console.ExitFailure, "%d sensor(s) failed", failed)
		}
		return nil
	},
}

func picto(sc config.SensorConfig) string {
	switch {
	case sc.Quantity == config.QuantityHumidity:
		return console.PictoHumidity
	case sc.Quantity == config.QuantityTemperature, sc.Driver == config.DriverTC74:
		return console.PictoThermometer
	default:
		return console.PictoPin
	}
}

