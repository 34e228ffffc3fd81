package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub/cmd/sensorhub/console"
	"github.com/mklimuk/sensorhub/scan"
	"github.com/mklimuk/sensorhub/snsctx"
)

var scanCmd = cli.Command{
	Name:  "scan",
	Usage: "list devices answering on the I2C bus",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "walk",
			Aliases: []string{"w"},
			Usage:   "step through found devices one at a time",
		},
	},
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		h, err := openHub(ctx, c)
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		r, err := scan.NewScanner(h.bus).Scan(ctx, scan.ModeScanAll)
		if err != nil {
			// the reading is still complete up to the failure
			console.Warnf("scan reported a bus fault: %s", console.Yellow(err))
		}
		if r.Addresses.Empty() {
			console.PInfof(console.PictoGhost, "no devices found")
			return nil
		}
		if c.Bool("walk") {
			return walk(ctx, &r)
		}
		printGrid(&r)
		return nil
	},
}

// walk moves the reading cursor one device at a time, as an output would.
func walk(ctx context.Context, r *scan.Reading) error {
	for addr, ok := r.Next(); ok; addr, ok = r.Next() {
		console.PInfof(console.PictoPin, "device at %s", console.White(hexAddr(addr)))
		answer, err := console.Prompt("next device?", console.Yes, console.Quit)
		if err != nil {
			return console.Exit(console.ExitFailure, "prompt error: %s", console.Red(err))
		}
		if answer == console.Quit || ctx.Err() != nil {
			return nil
		}
	}
	console.Infof("no more devices after %s", hexAddr(r.Current()))
	return nil
}

// printGrid prints an i2cdetect style map of the bus.
func printGrid(r *scan.Reading) {
	var b strings.Builder
	b.WriteString("     0  1  2  3  4  5  6  7  8  9  a  b  c  d  e  f\n")
	for row := 0; row < 8; row++ {
		b.WriteString(hexAddr(byte(row * 16))[2:] + ":")
		for col := 0; col < 16; col++ {
			addr := byte(row*16 + col)
			switch {
			case addr == 0 || addr > scan.MaxDevices:
				b.WriteString("   ")
			case r.Addresses.Has(addr):
				b.WriteString(" " + console.Green(hexAddr(addr)[2:]))
			default:
				b.WriteString(" " + console.Faint("--"))
			}
		}
		b.WriteString("\n")
	}
	console.Printf("%s", b.String())
	console.Infof("%d device(s) found", r.Addresses.Count())
}
