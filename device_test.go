package sensorhub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilities(t *testing.T) {
	caps := DefaultCapabilities
	assert.True(t, caps.Has(InputSensors))
	assert.True(t, caps.Has(InputI2CScan))
	assert.True(t, caps.Has(InputError))
	assert.True(t, caps.Has(OutputSerialConsole))
	assert.False(t, caps.Has(InputRTC))
	assert.False(t, caps.Has(OutputDisplay))
	assert.False(t, caps.Has(IOUnused))

	caps = caps.With(InputRTC).With(IOUnused)
	assert.True(t, caps.Has(InputRTC))
	assert.False(t, caps.Has(IOUnused))
	caps = caps.Without(InputSensors)
	assert.False(t, caps.Has(InputSensors))
	assert.Equal(t, []IOComponent{InputRTC, InputI2CScan, InputError, OutputSerialConsole}, caps.Components())
	assert.Equal(t, "[rtc i2c_scan error serial_console]", caps.String())
}

func TestParseComponent(t *testing.T) {
	for _, name := range []string{"sensors", "rtc", "i2c_scan", "error", "display", "serial_console"} {
		c, err := ParseComponent(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.String())
	}
	c, err := ParseComponent(" RTC ")
	require.NoError(t, err)
	assert.Equal(t, InputRTC, c)
	_, err = ParseComponent("unused")
	assert.Error(t, err)
	_, err = ParseComponent("lcd")
	assert.Error(t, err)
}

func TestDevice_String(t *testing.T) {
	assert.Equal(t, "sensors#3", Device{Component: InputSensors, ID: 3}.String())
	assert.Equal(t, "display", Device{Component: OutputDisplay, ID: DeviceIDUnused}.String())
	assert.Equal(t, "component(42)#0", Device{Component: IOComponent(42)}.String())
}

func TestComponentKinds(t *testing.T) {
	assert.True(t, InputError.IsInput())
	assert.False(t, OutputDisplay.IsInput())
	assert.True(t, OutputDisplay.IsOutput())
	assert.False(t, IOUnused.IsInput())
	assert.False(t, IOUnused.IsOutput())
}

func TestReadings(t *testing.T) {
	v := ValueReading(12.5)
	assert.Equal(t, MeasurementValue, v.Type)
	assert.False(t, v.Indication)
	assert.True(t, v.Valid())
	i := IndicationReading(true)
	assert.Equal(t, MeasurementIndication, i.Type)
	assert.Zero(t, i.Value)
	assert.False(t, SensorReading{Type: 7}.Valid())

	ts := time.Date(2025, time.March, 7, 8, 9, 10, 0, time.UTC)
	r := RTCReadingFromTime(ts)
	assert.Equal(t, RTCReading{Year: 2025, Month: 3, Day: 7, Hour: 8, Mins: 9, Secs: 10}, r)
	assert.Equal(t, "2025-03-07 08:09:10", r.String())
	// no validation: out of range values pass through
	assert.Equal(t, "2025-13-32 25:61:61", RTCReading{Year: 2025, Month: 13, Day: 32, Hour: 25, Mins: 61, Secs: 61}.String())
}
