package environment

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/internal/crc8"
)

// SHTC3 I2C address (7-bit)
const shtc3Address = 0x70

// Commands (Big Endian on the wire)
const (
	shtc3CmdWake  uint16 = 0x3517
	shtc3CmdSleep uint16 = 0xB098
	// normal power, clock stretching disabled, T first
	shtc3CmdMeasureTFirstNoCS uint16 = 0x7866
)

var ErrCRCMismatch = errors.New("crc mismatch")

// SHTC3 represents Sensirion SHTC3 Temperature/Humidity sensor.
// One measurement yields both quantities; Temperature and Humidity expose
// them as separate sensor inputs.
type SHTC3 struct {
	transport sensorhub.I2CBus
	wakeDelay time.Duration
	measDelay time.Duration
	lastTemp  float32
	lastHum   float32
}

func NewSHTC3(trans sensorhub.I2CBus) *SHTC3 {
	return &SHTC3{
		transport: trans,
		wakeDelay: time.Millisecond,
		measDelay: 15 * time.Millisecond,
	}
}

func (s *SHTC3) GetTempAndHum(ctx context.Context) (float32, float32, error) {
	if err := s.measure(ctx); err != nil {
		return 0, 0, err
	}
	return s.lastTemp, s.lastHum, nil
}

// Temperature exposes temperature in Celsius as a sensor input.
func (s *SHTC3) Temperature() sensorhub.Sensor {
	return sensorhub.ValueSensor(func(ctx context.Context) (float32, error) {
		t, _, err := s.GetTempAndHum(ctx)
		return t, err
	})
}

// Humidity exposes relative humidity in %RH as a sensor input.
func (s *SHTC3) Humidity() sensorhub.Sensor {
	return sensorhub.ValueSensor(func(ctx context.Context) (float32, error) {
		_, h, err := s.GetTempAndHum(ctx)
		return h, err
	})
}

func (s *SHTC3) measure(ctx context.Context) error {
	if err := s.writeCmd(ctx, shtc3CmdWake); err != nil {
		return fmt.Errorf("shtc3: wake failed: %w", err)
	}
	time.Sleep(s.wakeDelay)
	if err := s.writeCmd(ctx, shtc3CmdMeasureTFirstNoCS); err != nil {
		return fmt.Errorf("shtc3: measure command failed: %w", err)
	}
	// typical measurement time is 12.1 ms in normal mode
	time.Sleep(s.measDelay)

	// T[0:2], CRC, RH[3:5], CRC
	buf := make([]byte, 6)
	if err := s.transport.ReadFromAddr(ctx, shtc3Address, buf); err != nil {
		return fmt.Errorf("shtc3: read failed: %w", err)
	}
	if !crc8.Valid(buf[0:3]) {
		return fmt.Errorf("shtc3: temperature: %w", ErrCRCMismatch)
	}
	if !crc8.Valid(buf[3:6]) {
		return fmt.Errorf("shtc3: humidity: %w", ErrCRCMismatch)
	}
	s.lastTemp = -45.0 + 175.0*float32(binary.BigEndian.Uint16(buf[0:2]))/65535.0
	s.lastHum = 100.0 * float32(binary.BigEndian.Uint16(buf[3:5])) / 65535.0

	if err := s.writeCmd(ctx, shtc3CmdSleep); err != nil {
		return fmt.Errorf("shtc3: sleep failed: %w", err)
	}
	return nil
}

func (s *SHTC3) writeCmd(ctx context.Context, cmd uint16) error {
	var out [2]byte
	binary.BigEndian.PutUint16(out[:], cmd)
	return s.transport.WriteToAddr(ctx, shtc3Address, out[:])
}
