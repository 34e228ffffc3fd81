package environment

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/mklimuk/sensorhub"
)

const BH1750AddrHigh = 0b1011100
const BH1750AddrLow = 0b0100011

const opCodeSingleLowResolution = 0b00100011

// BH1750 is a ROHM ambient light sensor.
type BH1750 struct {
	transport sensorhub.I2CBus
	addr      byte
	buf       []byte
}

var _ sensorhub.Sensor = &BH1750{}

func NewBH1750(transport sensorhub.I2CBus, addr byte) *BH1750 {
	return &BH1750{
		addr:      addr,
		transport: transport,
		buf:       make([]byte, 2),
	}
}

func (s *BH1750) GetLux(ctx context.Context) (float32, error) {
	err := s.transport.WriteToAddr(ctx, s.addr, []byte{opCodeSingleLowResolution})
	if err != nil {
		return 0, fmt.Errorf("bh1750: could not write command: %w", err)
	}
	// measurement takes 16ms typically, 24ms max
	time.Sleep(25 * time.Millisecond)
	err = s.transport.ReadFromAddr(ctx, s.addr, s.buf)
	if err != nil {
		return 0, fmt.Errorf("bh1750: could not read data: %w", err)
	}
	return float32(binary.BigEndian.Uint16(s.buf)) / 1.2, nil
}

func (s *BH1750) Read(ctx context.Context) (sensorhub.SensorReading, error) {
	lux, err := s.GetLux(ctx)
	if err != nil {
		return sensorhub.SensorReading{}, err
	}
	return sensorhub.ValueReading(lux), nil
}
