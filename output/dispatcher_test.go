package output

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/scan"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Render(ctx context.Context, kind sensorhub.IOComponent, text string) error {
	return m.Called(ctx, kind, text).Error(0)
}

var consoleDev = sensorhub.Device{Component: sensorhub.OutputSerialConsole, ID: 0}

func newConsoleDispatcher(t *testing.T, sink Sink, caps sensorhub.Capabilities) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(consoleDev, caps, sink)
	require.NoError(t, err)
	return d
}

func scanOf(addrs ...byte) scan.Reading {
	var r scan.Reading
	for _, a := range addrs {
		r.Addresses.Set(a)
	}
	return r
}

func TestDispatcher_RendersEnabledKinds(t *testing.T) {
	caps := sensorhub.DefaultCapabilities.With(sensorhub.InputRTC)
	tests := []struct {
		name     string
		data     sensorhub.Data
		expected string
	}{
		{"value", sensorhub.NewSensorData(1, sensorhub.ValueReading(21.456)), "sensors#1: 21.46"},
		{"indication on", sensorhub.NewSensorData(2, sensorhub.IndicationReading(true)), "sensors#2: on"},
		{"indication off", sensorhub.NewSensorData(2, sensorhub.IndicationReading(false)), "sensors#2: off"},
		{"rtc", sensorhub.NewRTCData(0, sensorhub.RTCReading{Year: 2026, Month: 10, Day: 18, Hour: 7, Mins: 5, Secs: 9}), "rtc#0: 2026-10-18 07:05:09"},
		{"scan all", sensorhub.NewI2CScanData(0, scanOf(0x77, 0x08, 0x50)), "i2c_scan#0: 3 device(s): 0x08 0x50 0x77"},
		{"scan empty", sensorhub.NewI2CScanData(0, scan.Reading{}), "i2c_scan#0: no devices found"},
		{"probe present", sensorhub.NewI2CScanData(0, scan.Reading{DeviceAddress: 0x50}), "i2c_scan#0: 0x50 present"},
		{"probe nack", sensorhub.NewI2CScanData(0, scan.Reading{DeviceAddress: 0x50, SingleDeviceStatus: scan.TxNackAddress}), "i2c_scan#0: 0x50 address NACK"},
		{
			"error",
			sensorhub.NewErrorData(sensorhub.DeviceError{Code: sensorhub.ErrorCodeSensorReadFailed, Device: sensorhub.Device{Component: sensorhub.InputSensors, ID: 3}}),
			"error#3: sensors#3: sensor read failed (7)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := new(MockSink)
			sink.On("Render", mock.Anything, tt.data.Kind(), tt.expected).Return(nil).Once()
			code := newConsoleDispatcher(t, sink, caps).Dispatch(context.Background(), tt.data)
			assert.Equal(t, sensorhub.ErrorCodeNone, code)
			sink.AssertExpectations(t)
		})
	}
}

func TestDispatcher_UnrecognizedKindIsNotRendered(t *testing.T) {
	sink := new(MockSink)
	d := newConsoleDispatcher(t, sink, sensorhub.DefaultCapabilities)

	assert.Equal(t, sensorhub.ErrorCodeInvalidInputType, d.Dispatch(context.Background(), sensorhub.Data{}))
	// rtc is not part of the default capabilities
	rtc := sensorhub.NewRTCData(0, sensorhub.RTCReading{Year: 2026})
	assert.Equal(t, sensorhub.ErrorCodeInvalidInputType, d.Dispatch(context.Background(), rtc))
	sink.AssertNumberOfCalls(t, "Render", 0)
}

func TestDispatcher_DoesNotMoveEnvelopeCursor(t *testing.T) {
	sink := new(MockSink)
	sink.On("Render", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	r := scanOf(0x10, 0x20)
	_, _ = r.Next()
	data := sensorhub.NewI2CScanData(0, r)

	d := newConsoleDispatcher(t, sink, sensorhub.DefaultCapabilities)
	d.Dispatch(context.Background(), data)
	d.Dispatch(context.Background(), data)

	got, _ := data.I2CScan()
	assert.Equal(t, byte(0x10), got.Current())
	sink.AssertCalled(t, "Render", mock.Anything, sensorhub.InputI2CScan, "i2c_scan#0: 2 device(s): 0x10 0x20")
}

func TestDispatcher_SinkFailure(t *testing.T) {
	data := sensorhub.NewSensorData(1, sensorhub.ValueReading(1))
	caps := sensorhub.DefaultCapabilities.With(sensorhub.OutputDisplay)
	failing := SinkFunc(func(ctx context.Context, kind sensorhub.IOComponent, text string) error {
		return errors.New("write: broken pipe")
	})

	console := newConsoleDispatcher(t, failing, caps)
	assert.Equal(t, sensorhub.ErrorCodeSerialWriteFailed, console.Dispatch(context.Background(), data))

	display, err := NewDispatcher(sensorhub.Device{Component: sensorhub.OutputDisplay, ID: 0}, caps, failing)
	require.NoError(t, err)
	assert.Equal(t, sensorhub.ErrorCodeDisplayWriteFailed, display.Dispatch(context.Background(), data))
}

func TestNewDispatcher_Validation(t *testing.T) {
	_, err := NewDispatcher(sensorhub.Device{Component: sensorhub.InputSensors}, sensorhub.DefaultCapabilities, new(MockSink))
	assert.Error(t, err)
	_, err = NewDispatcher(sensorhub.Device{Component: sensorhub.OutputDisplay}, sensorhub.DefaultCapabilities, new(MockSink))
	assert.Error(t, err)
}

func TestRoundTripThroughDispatch(t *testing.T) {
	var rendered []string
	sink := SinkFunc(func(ctx context.Context, kind sensorhub.IOComponent, text string) error {
		rendered = append(rendered, text)
		return nil
	})
	dev := sensorhub.Device{Component: sensorhub.InputSensors, ID: 4}
	data, err := sensorhub.Route(dev, sensorhub.ValueReading(-12.5))
	require.NoError(t, err)

	code := newConsoleDispatcher(t, sink, sensorhub.DefaultCapabilities).Dispatch(context.Background(), data)
	assert.Equal(t, sensorhub.ErrorCodeNone, code)
	assert.Equal(t, []string{"sensors#4: -12.50"}, rendered)
}
