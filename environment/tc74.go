package environment

import (
	"context"
	"fmt"

	"github.com/mklimuk/sensorhub"
)

const TC74DefaultAddress = 0x4D

const (
	tc74TempRegister   = 0x00
	tc74ConfigRegister = 0x01
	tc74DataReady      = 0x40
)

// TC74 represents a Microchip TC74 Digital Temperature Sensor
// See: https://ww1.microchip.com/downloads/en/DeviceDoc/21462D.pdf
type TC74 struct {
	transport sensorhub.I2CBus
	address   byte
	lastTemp  float32
}

var _ sensorhub.Sensor = &TC74{}

type TC74Option func(*TC74)

func WithTC74Address(address byte) TC74Option {
	return func(s *TC74) {
		s.address = address
	}
}

func NewTC74(trans sensorhub.I2CBus, opts ...TC74Option) *TC74 {
	s := &TC74{transport: trans, address: TC74DefaultAddress}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TC74) readRegister(ctx context.Context, reg byte) (byte, error) {
	err := s.transport.WriteToAddr(ctx, s.address, []byte{reg})
	if err != nil {
		return 0, fmt.Errorf("tc74: could not select register %#x: %w", reg, err)
	}
	resp := make([]byte, 1)
	err = s.transport.ReadFromAddr(ctx, s.address, resp)
	if err != nil {
		return 0, fmt.Errorf("tc74: could not read register %#x: %w", reg, err)
	}
	return resp[0], nil
}

// GetTemperature reads the temperature in Celsius. While the sensor has no
// conversion ready the previous value is returned.
func (s *TC74) GetTemperature(ctx context.Context) (float32, error) {
	config, err := s.readRegister(ctx, tc74ConfigRegister)
	if err != nil {
		return 0, err
	}
	if config&tc74DataReady == 0 {
		return s.lastTemp, nil
	}
	raw, err := s.readRegister(ctx, tc74TempRegister)
	if err != nil {
		return 0, err
	}
	// 8-bit two's complement
	s.lastTemp = float32(int8(raw))
	return s.lastTemp, nil
}

func (s *TC74) Read(ctx context.Context) (sensorhub.SensorReading, error) {
	t, err := s.GetTemperature(ctx)
	if err != nil {
		return sensorhub.SensorReading{}, err
	}
	return sensorhub.ValueReading(t), nil
}
