package sensorhub

import (
	"context"
	"fmt"
	"time"
)

// MeasurementType tells which field of a SensorReading is meaningful.
type MeasurementType uint8

const (
	MeasurementValue MeasurementType = iota
	MeasurementIndication
)

func (t MeasurementType) String() string {
	switch t {
	case MeasurementValue:
		return "value"
	case MeasurementIndication:
		return "indication"
	default:
		return fmt.Sprintf("measurement(%d)", uint8(t))
	}
}

// SensorReading is a single sensor measurement: either a numeric value or an
// on/off indication (e.g. raining / not raining), never both.
type SensorReading struct {
	Value      float32
	Indication bool
	Type       MeasurementType
}

func ValueReading(v float32) SensorReading {
	return SensorReading{Value: v, Type: MeasurementValue}
}

func IndicationReading(on bool) SensorReading {
	return SensorReading{Indication: on, Type: MeasurementIndication}
}

// Valid reports whether the measurement type is a known one.
func (r SensorReading) Valid() bool {
	return r.Type == MeasurementValue || r.Type == MeasurementIndication
}

// RTCReading is a wall clock reading. Fields are passed through as the
// clock reported them; range checks are up to the driver.
type RTCReading struct {
	Year  uint16
	Month uint8
	Day   uint8
	Hour  uint8
	Mins  uint8
	Secs  uint8
}

func RTCReadingFromTime(t time.Time) RTCReading {
	return RTCReading{
		Year:  uint16(t.Year()),
		Month: uint8(t.Month()),
		Day:   uint8(t.Day()),
		Hour:  uint8(t.Hour()),
		Mins:  uint8(t.Minute()),
		Secs:  uint8(t.Second()),
	}
}

func (r RTCReading) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", r.Year, r.Month, r.Day, r.Hour, r.Mins, r.Secs)
}

// Sensor is implemented by every sensor driver exposed as an input.
type Sensor interface {
	Read(ctx context.Context) (SensorReading, error)
}

// SensorFunc adapts a function to the Sensor interface.
type SensorFunc func(ctx context.Context) (SensorReading, error)

func (f SensorFunc) Read(ctx context.Context) (SensorReading, error) {
	return f(ctx)
}

// ValueSensor exposes a numeric getter as a Sensor.
func ValueSensor(get func(ctx context.Context) (float32, error)) Sensor {
	return SensorFunc(func(ctx context.Context) (SensorReading, error) {
		v, err := get(ctx)
		if err != nil {
			return SensorReading{}, err
		}
		return ValueReading(v), nil
	})
}

// IndicationSensor exposes a boolean getter as a Sensor.
func IndicationSensor(get func(ctx context.Context) (bool, error)) Sensor {
	return SensorFunc(func(ctx context.Context) (SensorReading, error) {
		on, err := get(ctx)
		if err != nil {
			return SensorReading{}, err
		}
		return IndicationReading(on), nil
	})
}

// Clock is implemented by real-time clock drivers.
type Clock interface {
	Now(ctx context.Context) (RTCReading, error)
}
