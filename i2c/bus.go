// Package i2c provides I2C transports for Linux hosts.
package i2c

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/scan"
	"github.com/mklimuk/sensorhub/snsctx"
)

var _ sensorhub.ScanBus = &GenericBus{}

// GenericBus is an I2C bus opened through periph.io (e.g. /dev/i2c-1 or "1").
type GenericBus struct {
	bus i2c.BusCloser
}

func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %q: %w", dev, err)
	}
	return &GenericBus{
		bus: bus,
	}, nil
}

// SetSpeed sets the bus clock in Hz.
func (b *GenericBus) SetSpeed(hz int64) error {
	return b.bus.SetSpeed(physic.Frequency(hz) * physic.Hertz)
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	if snsctx.IsVerbose(ctx) {
		slog.Debug("i2c read", "address", fmt.Sprintf("%#x", address), "data", hex.EncodeToString(buffer))
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if snsctx.IsVerbose(ctx) {
		slog.Debug("i2c write", "address", fmt.Sprintf("%#x", address), "data", hex.EncodeToString(buffer))
	}
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// Probe reads a single byte from address, the way i2cdetect does for most ranges.
func (b *GenericBus) Probe(ctx context.Context, address byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.bus.Tx(uint16(address), nil, make([]byte, 1))
	if err == nil {
		return nil
	}
	if scan.Classify(err) == scan.TxNackAddress {
		return fmt.Errorf("probe %x: %w: %v", address, scan.ErrAddressNack, err)
	}
	return fmt.Errorf("probe %x: %w", address, err)
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
