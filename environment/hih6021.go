package environment

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/mklimuk/sensorhub"
)

const hih6021Address = 0x27

var hihDivider = float32(1<<14 - 2)

var (
	ErrStaleData   = errors.New("stale data")
	ErrCommandMode = errors.New("device in command mode")
)

// HIH6021 represents Honeywell HumidIcon Digital Humidity/Temperature sensor
type HIH6021 struct {
	transport sensorhub.I2CBus
	lastTemp  float32
	lastHum   float32
}

func NewHIH6021(trans sensorhub.I2CBus) *HIH6021 {
	return &HIH6021{transport: trans}
}

func (s *HIH6021) GetTempAndHum(ctx context.Context) (float32, float32, error) {
	err := s.measure(ctx)
	return s.lastTemp, s.lastHum, err
}

func (s *HIH6021) Temperature() sensorhub.Sensor {
	return sensorhub.ValueSensor(func(ctx context.Context) (float32, error) {
		t, _, err := s.GetTempAndHum(ctx)
		return t, err
	})
}

func (s *HIH6021) Humidity() sensorhub.Sensor {
	return sensorhub.ValueSensor(func(ctx context.Context) (float32, error) {
		_, h, err := s.GetTempAndHum(ctx)
		return h, err
	})
}

func (s *HIH6021) measure(ctx context.Context) error {
	err := s.transport.WriteToAddr(ctx, hih6021Address, []byte{})
	if err != nil {
		return fmt.Errorf("hih6021: could not request measurement: %w", err)
	}
	// measurement cycle takes typically 36.65ms
	time.Sleep(50 * time.Millisecond)
	resp := make([]byte, 4)
	err = s.transport.ReadFromAddr(ctx, hih6021Address, resp)
	if err != nil {
		return fmt.Errorf("hih6021: could not read measurement: %w", err)
	}
	switch {
	case resp[0]&0x80 > 0:
		return fmt.Errorf("hih6021: %w", ErrCommandMode)
	case resp[0]&0x40 > 0:
		// already fetched since the last measurement
		return fmt.Errorf("hih6021: %w", ErrStaleData)
	}
	s.lastHum = convertHumidity(resp[0:2])
	s.lastTemp = convertTemperature(resp[2:4])
	return nil
}

func convertHumidity(resp []byte) float32 {
	hum := float32(binary.BigEndian.Uint16(resp)) / hihDivider * 100
	return min(hum, 100)
}

func convertTemperature(resp []byte) float32 {
	lsb := resp[1]>>2 | (resp[0]&0x03)<<6
	msb := resp[0] >> 2
	return float32(binary.BigEndian.Uint16([]byte{msb, lsb}))/hihDivider*165 - 40
}
