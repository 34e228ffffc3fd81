// Package input turns sensors, clocks and bus scans into routed envelopes.
//
// Every Fetch returns both the data to forward and the status of the fetch.
// When a source fails, the last good reading is forwarded again so outputs
// keep showing something, and the failure travels separately in the code.
package input

import (
	"context"
	"errors"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/scan"
	"github.com/mklimuk/sensorhub/snsctx"
)

// Input is one data source of the monitoring loop.
type Input interface {
	Device() sensorhub.Device
	Fetch(ctx context.Context) sensorhub.InputData
}

// codeOr keeps a code already carried by err and falls back to def otherwise.
func codeOr(err error, def sensorhub.ErrorCode) sensorhub.ErrorCode {
	if code := sensorhub.CodeOf(err); code != sensorhub.ErrorCodeUnknown {
		return code
	}
	return def
}

type SensorInput struct {
	device sensorhub.Device
	sensor sensorhub.Sensor
	last   sensorhub.Data
}

var _ Input = &SensorInput{}

func NewSensorInput(id uint8, s sensorhub.Sensor) *SensorInput {
	return &SensorInput{
		device: sensorhub.Device{Component: sensorhub.InputSensors, ID: id},
		sensor: s,
	}
}

func (in *SensorInput) Device() sensorhub.Device {
	return in.device
}

func (in *SensorInput) Fetch(ctx context.Context) sensorhub.InputData {
	r, err := in.sensor.Read(ctx)
	if err == nil && !r.Valid() {
		err = sensorhub.DeviceError{Code: sensorhub.ErrorCodeInvalidInputType, Device: in.device, Err: errors.New("unknown measurement type")}
	}
	if err != nil {
		snsctx.Logger(ctx).Debug("sensor read failed", "error", err)
		return sensorhub.InputData{Data: in.last, Code: codeOr(err, sensorhub.ErrorCodeSensorReadFailed), Err: err}
	}
	in.last = sensorhub.NewSensorData(in.device.ID, r)
	return sensorhub.InputData{Data: in.last}
}

type RTCInput struct {
	device sensorhub.Device
	clock  sensorhub.Clock
	last   sensorhub.Data
}

var _ Input = &RTCInput{}

func NewRTCInput(id uint8, c sensorhub.Clock) *RTCInput {
	return &RTCInput{
		device: sensorhub.Device{Component: sensorhub.InputRTC, ID: id},
		clock:  c,
	}
}

func (in *RTCInput) Device() sensorhub.Device {
	return in.device
}

func (in *RTCInput) Fetch(ctx context.Context) sensorhub.InputData {
	r, err := in.clock.Now(ctx)
	if err != nil {
		snsctx.Logger(ctx).Debug("rtc read failed", "error", err)
		return sensorhub.InputData{Data: in.last, Code: codeOr(err, sensorhub.ErrorCodeRTCReadFailed), Err: err}
	}
	in.last = sensorhub.NewRTCData(in.device.ID, r)
	return sensorhub.InputData{Data: in.last}
}

// ScanInput runs a bus scan on every fetch. Mode is scan.ModeScanAll for a
// full sweep or a single address to probe.
type ScanInput struct {
	device  sensorhub.Device
	scanner *scan.Scanner
	mode    byte
}

var _ Input = &ScanInput{}

func NewScanInput(id uint8, s *scan.Scanner, mode byte) *ScanInput {
	return &ScanInput{
		device:  sensorhub.Device{Component: sensorhub.InputI2CScan, ID: id},
		scanner: s,
		mode:    mode,
	}
}

func (in *ScanInput) Device() sensorhub.Device {
	return in.device
}

// Fetch always forwards the scan reading, even a partial one, since it is
// fresh. A failed probe is reported through its transmission result.
func (in *ScanInput) Fetch(ctx context.Context) sensorhub.InputData {
	r, err := in.scanner.Scan(ctx, in.mode)
	res := sensorhub.InputData{Data: sensorhub.NewI2CScanData(in.device.ID, r), Err: err}
	var probeErr *scan.ProbeError
	switch {
	case err == nil:
	case errors.As(err, &probeErr):
		res.Code = sensorhub.CodeFromTransmission(probeErr.Result)
	case errors.Is(err, scan.ErrInvalidAddress):
		res.Code = sensorhub.ErrorCodeInvalidInputType
	default:
		res.Code = sensorhub.ErrorCodeI2CUnknown
	}
	return res
}
