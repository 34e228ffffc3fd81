// Package output renders routed envelopes on the configured sinks.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/scan"
)

// Sink is a text output device such as a serial console or a character display.
type Sink interface {
	Render(ctx context.Context, kind sensorhub.IOComponent, text string) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, kind sensorhub.IOComponent, text string) error

func (f SinkFunc) Render(ctx context.Context, kind sensorhub.IOComponent, text string) error {
	return f(ctx, kind, text)
}

// Dispatcher formats envelopes for one sink. Only input kinds present in the
// capability set are rendered.
type Dispatcher struct {
	device sensorhub.Device
	caps   sensorhub.Capabilities
	sink   Sink
}

func NewDispatcher(dev sensorhub.Device, caps sensorhub.Capabilities, sink Sink) (*Dispatcher, error) {
	if !dev.Component.IsOutput() {
		return nil, fmt.Errorf("%s is not an output", dev)
	}
	if !caps.Has(dev.Component) {
		return nil, fmt.Errorf("%s is not enabled in %s", dev.Component, caps)
	}
	return &Dispatcher{device: dev, caps: caps, sink: sink}, nil
}

func (d *Dispatcher) Device() sensorhub.Device {
	return d.device
}

// Dispatch renders data on the sink. It returns ErrorCodeInvalidInputType
// without touching the sink when data is empty or of a kind that is not
// enabled, and the sink specific write code when rendering fails.
func (d *Dispatcher) Dispatch(ctx context.Context, data sensorhub.Data) sensorhub.ErrorCode {
	kind := data.Kind()
	if !data.Valid() || !kind.IsInput() || !d.caps.Has(kind) {
		slog.Debug("envelope not dispatched", "sink", d.device, "kind", kind)
		return sensorhub.ErrorCodeInvalidInputType
	}
	text, ok := Format(data)
	if !ok {
		return sensorhub.ErrorCodeInvalidInputType
	}
	if err := d.sink.Render(ctx, kind, text); err != nil {
		slog.Warn("render failed", "sink", d.device, "error", err)
		return d.writeFailed()
	}
	return sensorhub.ErrorCodeNone
}

func (d *Dispatcher) writeFailed() sensorhub.ErrorCode {
	if d.device.Component == sensorhub.OutputDisplay {
		return sensorhub.ErrorCodeDisplayWriteFailed
	}
	return sensorhub.ErrorCodeSerialWriteFailed
}

// Format renders the payload of data as a single line prefixed with its source.
func Format(data sensorhub.Data) (string, bool) {
	var body string
	switch data.Kind() {
	case sensorhub.InputSensors:
		r, _ := data.Sensor()
		body = formatSensor(r)
	case sensorhub.InputRTC:
		r, _ := data.RTC()
		body = r.String()
	case sensorhub.InputI2CScan:
		r, _ := data.I2CScan()
		body = formatScan(r)
	case sensorhub.InputError:
		e, _ := data.Fault()
		body = fmt.Sprintf("%s: %s (%d)", e.Device, e.Code, uint8(e.Code))
	default:
		return "", false
	}
	return fmt.Sprintf("%s: %s", data.Source(), body), true
}

func formatSensor(r sensorhub.SensorReading) string {
	if r.Type == sensorhub.MeasurementIndication {
		if r.Indication {
			return "on"
		}
		return "off"
	}
	return fmt.Sprintf("%.2f", r.Value)
}

// formatScan walks the cursor of its own copy of r.
func formatScan(r scan.Reading) string {
	if r.Mode() == scan.ModeProbe {
		if r.SingleDeviceStatus == scan.TxSuccess {
			return fmt.Sprintf("0x%02X present", r.DeviceAddress)
		}
		return fmt.Sprintf("0x%02X %s", r.DeviceAddress, r.SingleDeviceStatus)
	}
	r.Rewind()
	var addrs []string
	for addr, ok := r.Next(); ok; addr, ok = r.Next() {
		addrs = append(addrs, fmt.Sprintf("0x%02X", addr))
	}
	if len(addrs) == 0 {
		return "no devices found"
	}
	return fmt.Sprintf("%d device(s): %s", len(addrs), strings.Join(addrs, " "))
}
