package i2c

import (
	"context"
	"fmt"

	gobot "gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/scan"
)

var _ sensorhub.ScanBus = &GobotBus{}

// GobotBus talks to devices through a gobot I2C adaptor (e.g. the NanoPi NEO
// adaptor). A short lived generic driver is started per transfer.
type GobotBus struct {
	adaptor gobot.Connector
	bus     int
}

func NewGobotBus(adaptor gobot.Connector, bus int) *GobotBus {
	return &GobotBus{adaptor: adaptor, bus: bus}
}

func (b *GobotBus) driver(address byte) (*gobot.GenericDriver, error) {
	d := gobot.NewGenericDriver(b.adaptor, "sensorhub", int(address), func(c gobot.Config) {
		c.SetBus(b.bus)
	})
	if err := d.Start(); err != nil {
		return nil, fmt.Errorf("could not start driver for %x: %w", address, err)
	}
	return d, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d, err := b.driver(address)
	if err != nil {
		return err
	}
	defer func() { _ = d.Halt() }()
	if err := d.Read(buffer); err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d, err := b.driver(address)
	if err != nil {
		return err
	}
	defer func() { _ = d.Halt() }()
	if err := d.Write(buffer); err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GobotBus) Probe(ctx context.Context, address byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.ReadFromAddr(ctx, address, make([]byte, 1))
	if err != nil && scan.Classify(err) == scan.TxNackAddress {
		return fmt.Errorf("%w: %v", scan.ErrAddressNack, err)
	}
	return err
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}
