package environment

import (
	"context"

	"github.com/mklimuk/sensorhub"
)

// ValueBehaviorFunc produces a numeric measurement or an error.
type ValueBehaviorFunc func(ctx context.Context) (float32, error)

// IndicationBehaviorFunc produces an on/off indication or an error.
type IndicationBehaviorFunc func(ctx context.Context) (bool, error)

// MockSensor is a sensor input driven by a behavior function, usable
// wherever real hardware is not available.
//
// Example usage:
//
//	// static value
//	s := NewMockValueSensor(func(ctx context.Context) (float32, error) { return 22.5, nil })
//
//	// rain detector failing every other read
//	n := 0
//	s := NewMockIndicationSensor(func(ctx context.Context) (bool, error) {
//		n++
//		if n%2 == 0 {
//			return false, fmt.Errorf("sensor malfunction")
//		}
//		return true, nil
//	})
type MockSensor struct {
	value      ValueBehaviorFunc
	indication IndicationBehaviorFunc
	calls      int
}

var _ sensorhub.Sensor = &MockSensor{}

func NewMockValueSensor(behavior ValueBehaviorFunc) *MockSensor {
	return &MockSensor{value: behavior}
}

func NewMockIndicationSensor(behavior IndicationBehaviorFunc) *MockSensor {
	return &MockSensor{indication: behavior}
}

func (m *MockSensor) Read(ctx context.Context) (sensorhub.SensorReading, error) {
	m.calls++
	if m.indication != nil {
		on, err := m.indication(ctx)
		if err != nil {
			return sensorhub.SensorReading{}, err
		}
		return sensorhub.IndicationReading(on), nil
	}
	v, err := m.value(ctx)
	if err != nil {
		return sensorhub.SensorReading{}, err
	}
	return sensorhub.ValueReading(v), nil
}

// Calls returns how many times the sensor has been read.
func (m *MockSensor) Calls() int {
	return m.calls
}
