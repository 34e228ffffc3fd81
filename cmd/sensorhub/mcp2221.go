package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/sensorhub/adapter"
	"github.com/mklimuk/sensorhub/cmd/sensorhub/console"
	"github.com/mklimuk/sensorhub/snsctx"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "inspect MCP2221 USB bridges",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "index",
			Value: -1,
			Usage: "bridge index when several are connected",
		},
	},
	Subcommands: cli.Commands{
		&mcp2221ListCmd,
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
		&mcp2221GPIOCmd,
	},
}

var mcp2221ListCmd = cli.Command{
	Name:  "list",
	Usage: "list connected bridges",
	Action: func(c *cli.Context) error {
		devices := hid.Enumerate(adapter.VendorID, adapter.ProductID)
		if len(devices) == 0 {
			console.PInfof(console.PictoGhost, "no MCP2221 connected")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 8, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "INDEX\tPATH\tSERIAL\tPRODUCT\n")
		for i, dev := range devices {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, dev.Path, dev.Serial, dev.Product)
		}
		_ = w.Flush()
		return nil
	},
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Usage: "print the I2C engine status",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		status, err := a.Status(ctx)
		if err != nil {
			return console.Exit(console.ExitBus, "adapter communication error: %s", console.Red(err))
		}
		return printYAML(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current transfer and release the bus",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		status, err := a.ReleaseBus(ctx)
		if err != nil {
			return console.Exit(console.ExitBus, "adapter communication error: %s", console.Red(err))
		}
		return printYAML(status)
	},
}

var mcp2221GPIOCmd = cli.Command{
	Name:  "gpio",
	Usage: "print GP pin settings and current values",
	Flags: []cli.Flag{
		&cli.IntSliceFlag{
			Name:  "set-input",
			Usage: "configure the given GP pins as GPIO inputs (applied after power cycle)",
		},
	},
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		settings, err := a.GetGPIOParameters(ctx)
		if err != nil {
			return console.Exit(console.ExitBus, "adapter communication error: %s", console.Red(err))
		}
		if pins := c.IntSlice("set-input"); len(pins) > 0 {
			for _, gp := range pins {
				if gp < 0 || gp >= adapter.GPIOPins {
					return console.Exit(console.ExitFailure, "no pin GP%d", gp)
				}
				settings[gp] = adapter.GPIOSettings{Mode: adapter.GPIOModeIn, Designation: adapter.GPIOOperation}
			}
			if err := a.SetGPIOParameters(ctx, settings); err != nil {
				return console.Exit(console.ExitBus, "could not store GP settings: %s", console.Red(err))
			}
		}
		values, err := a.ReadGPIO(ctx)
		if err != nil {
			return console.Exit(console.ExitBus, "adapter communication error: %s", console.Red(err))
		}
		return printYAML(map[string]any{"settings": settings, "values": values})
	},
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer func() { _ = enc.Close() }()
	if err := enc.Encode(v); err != nil {
		return console.Exit(console.ExitFailure, "encoding error: %s", console.Red(err))
	}
	return nil
}
