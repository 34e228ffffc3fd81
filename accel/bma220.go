// Package accel drives accelerometers used as motion indicators.
package accel

import (
	"context"
	"fmt"

	"github.com/mklimuk/sensorhub"
)

const (
	regRange         = 0x22
	regLatch         = 0x1C
	regSlopeSettings = 0x12
	regSlopeDet      = 0x1A
	regWatchdog      = 0x2E
	regInterrupts    = 0x18
)

const BMA220Address = 0x0A

// BMA220 represents Bosch BMA220 accelerometer
type BMA220 struct {
	transport sensorhub.I2CBus
	address   byte
}

var _ sensorhub.Sensor = &BMA220{}

func NewBMA220(trans sensorhub.I2CBus) *BMA220 {
	return &BMA220{transport: trans, address: BMA220Address}
}

func (b *BMA220) write(ctx context.Context, reg, value byte, what string) error {
	err := b.transport.WriteToAddr(ctx, b.address, []byte{reg, value})
	if err != nil {
		return fmt.Errorf("bma220: could not set %s: %w", what, err)
	}
	return nil
}

/*
en_slope_x/y/z (0x1A.5-3) enable slope detection per axis
slope_th (0x12[5:2]) threshold, 1 LSB of acc_data
slope_dur (0x12[1:0]) consecutive points above slope_th required (00 = 1 .. 11 = 4)
slope_filt (0x12.6) filtered ('1') or unfiltered ('0') data
*/
func (b *BMA220) InitMotionDetection(ctx context.Context) error {
	steps := []struct {
		reg, value byte
		what       string
	}{
		{regRange, 0x03, "detection sensitivity"},
		// permanent interrupt latch lat_int[2:0] = 111
		{regLatch, 0b01110000, "interrupt latch"},
		{regSlopeDet, 0b00111000, "slope detection"},
		{regSlopeSettings, 0x45, "slope detection parameters"},
		{regWatchdog, 0x06, "watchdog"},
	}
	for _, s := range steps {
		if err := b.write(ctx, s.reg, s.value, s.what); err != nil {
			return err
		}
	}
	return nil
}

// CheckMotionInterrupt reports whether slope detection fired since the last reset.
func (b *BMA220) CheckMotionInterrupt(ctx context.Context) (bool, error) {
	err := b.transport.WriteToAddr(ctx, b.address, []byte{regInterrupts})
	if err != nil {
		return false, fmt.Errorf("bma220: could not set register pointer: %w", err)
	}
	buf := []byte{0x00}
	err = b.transport.ReadFromAddr(ctx, b.address, buf)
	if err != nil {
		return false, fmt.Errorf("bma220: could not read interrupts: %w", err)
	}
	// slope detection is on bit 0
	return buf[0]&0x01 != 0, nil
}

func (b *BMA220) ResetMotionInterrupt(ctx context.Context) error {
	return b.write(ctx, regLatch, 0b11110000, "interrupt reset")
}

// Read reports motion as an indication and re-arms the latched interrupt once it fired.
func (b *BMA220) Read(ctx context.Context) (sensorhub.SensorReading, error) {
	moved, err := b.CheckMotionInterrupt(ctx)
	if err != nil {
		return sensorhub.SensorReading{}, err
	}
	if moved {
		if err := b.ResetMotionInterrupt(ctx); err != nil {
			return sensorhub.SensorReading{}, err
		}
	}
	return sensorhub.IndicationReading(moved), nil
}
