package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/cmd/sensorhub/console"
	"github.com/mklimuk/sensorhub/scan"
	"github.com/mklimuk/sensorhub/snsctx"
)

func hexAddr(addr byte) string {
	return fmt.Sprintf("0x%02X", addr)
}

func parseAddr(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || v == 0 || v > scan.MaxDevices {
		return 0, fmt.Errorf("%q is not a 7-bit device address", s)
	}
	return byte(v), nil
}

var probeCmd = cli.Command{
	Name:      "probe",
	Usage:     "check whether a device answers on an address",
	ArgsUsage: "<address>",
	Action: func(c *cli.Context) error {
		addr, err := parseAddr(c.Args().First())
		if err != nil {
			return console.Exit(console.ExitFailure, "%s", console.Red(err))
		}
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		h, err := openHub(ctx, c)
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		r, err := scan.NewScanner(h.bus).Scan(ctx, addr)
		if r.SingleDeviceStatus == scan.TxSuccess {
			console.PInfof(console.PictoPin, "%s %s", console.White(hexAddr(addr)), console.Green("present"))
			return nil
		}
		code := sensorhub.CodeFromTransmission(r.SingleDeviceStatus)
		return console.Exit(console.ExitFailure, "%s %s (%s): %v", hexAddr(addr), console.Red(r.SingleDeviceStatus), code, err)
	},
}
