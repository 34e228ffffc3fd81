package sensorhub

import (
	"fmt"

	"github.com/mklimuk/sensorhub/scan"
)

// payload is implemented only by the types a Data envelope can carry.
type payload interface {
	kind() IOComponent
}

func (SensorReading) kind() IOComponent { return InputSensors }
func (RTCReading) kind() IOComponent    { return InputRTC }
func (DeviceError) kind() IOComponent   { return InputError }

type scanPayload struct {
	reading scan.Reading
}

func (scanPayload) kind() IOComponent { return InputI2CScan }

// Data is a reading (or a failure) tagged with the device it comes from.
// The kind of a Data is derived from what it carries, so the tag and the
// payload always agree. The zero Data carries nothing and is not valid.
type Data struct {
	id      uint8
	payload payload
}

func NewSensorData(id uint8, r SensorReading) Data {
	return Data{id: id, payload: r}
}

func NewRTCData(id uint8, r RTCReading) Data {
	return Data{id: id, payload: r}
}

func NewI2CScanData(id uint8, r scan.Reading) Data {
	return Data{id: id, payload: scanPayload{reading: r}}
}

// NewErrorData wraps a failure. The envelope is tagged InputError and keeps
// the id of the failing device; the failing component travels in the DeviceError.
func NewErrorData(e DeviceError) Data {
	return Data{id: e.Device.ID, payload: e}
}

// Route builds an envelope for dev from a reading of the matching kind.
// A reading which does not match the device component is rejected.
func Route(dev Device, reading any) (Data, error) {
	var d Data
	switch r := reading.(type) {
	case SensorReading:
		d = NewSensorData(dev.ID, r)
	case RTCReading:
		d = NewRTCData(dev.ID, r)
	case scan.Reading:
		d = NewI2CScanData(dev.ID, r)
	case DeviceError:
		d = NewErrorData(r)
		d.id = dev.ID
	default:
		return Data{}, DeviceError{
			Code:   ErrorCodeInvalidInputType,
			Device: dev,
			Err:    fmt.Errorf("unsupported reading type %T", reading),
		}
	}
	if d.Kind() != dev.Component {
		return Data{}, DeviceError{
			Code:   ErrorCodeInvalidInputType,
			Device: dev,
			Err:    fmt.Errorf("%s reading cannot be routed from %s", d.Kind(), dev.Component),
		}
	}
	return d, nil
}

// Kind returns the input kind of the carried payload, IOUnused for an empty Data.
func (d Data) Kind() IOComponent {
	if d.payload == nil {
		return IOUnused
	}
	return d.payload.kind()
}

// Valid reports whether d carries a payload.
func (d Data) Valid() bool {
	return d.payload != nil
}

// Source returns the identity of the originating device.
func (d Data) Source() Device {
	return Device{Component: d.Kind(), ID: d.id}
}

func (d Data) Sensor() (SensorReading, bool) {
	r, ok := d.payload.(SensorReading)
	return r, ok
}

func (d Data) RTC() (RTCReading, bool) {
	r, ok := d.payload.(RTCReading)
	return r, ok
}

// I2CScan returns a copy of the scan reading; its cursor is independent of the envelope.
func (d Data) I2CScan() (scan.Reading, bool) {
	p, ok := d.payload.(scanPayload)
	return p.reading, ok
}

func (d Data) Fault() (DeviceError, bool) {
	e, ok := d.payload.(DeviceError)
	return e, ok
}

func (d Data) String() string {
	return fmt.Sprintf("%s: %v", d.Source(), d.payload)
}
