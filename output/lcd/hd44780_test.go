package lcd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorhub"
)

type recordingBus struct {
	writes [][]byte
	err    error
}

func (b *recordingBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if b.err != nil {
		return b.err
	}
	b.writes = append(b.writes, append([]byte(nil), buffer...))
	return nil
}

func (b *recordingBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return errors.New("not readable")
}

func (b *recordingBus) Release(ctx context.Context) error {
	return nil
}

// text decodes the characters sent with RS set.
func (b *recordingBus) text() string {
	var out []byte
	for _, w := range b.writes {
		if len(w) == 4 && w[1]&pinRS != 0 {
			out = append(out, w[1]&0xF0|w[3]>>4)
		}
	}
	return string(out)
}

func newTestDisplay(bus sensorhub.I2CBus, opts ...Option) *HD44780 {
	d := New(bus, opts...)
	d.sleep = func(time.Duration) {}
	return d
}

func TestHD44780_Init(t *testing.T) {
	bus := &recordingBus{}
	require.NoError(t, newTestDisplay(bus).Init(context.Background()))
	require.Len(t, bus.writes, 8)
	assert.Equal(t, []byte{0x30 | pinBacklight | pinEnable, 0x30 | pinBacklight}, bus.writes[0])
	assert.Equal(t, []byte{0x20 | pinBacklight | pinEnable, 0x20 | pinBacklight}, bus.writes[3])
	// function set 0x28
	assert.Equal(t, []byte{0x2C | pinEnable, 0x28, 0x8C | pinEnable, 0x88}, bus.writes[4])
}

func TestHD44780_InitFailure(t *testing.T) {
	bus := &recordingBus{err: errors.New("nack")}
	err := newTestDisplay(bus, WithID(3)).Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, sensorhub.ErrorCodeDisplayInitFailed, sensorhub.CodeOf(err))
	var de sensorhub.DeviceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, sensorhub.Device{Component: sensorhub.OutputDisplay, ID: 3}, de.Device)
}

func TestFit_Runes(t *testing.T) {
	tests := []struct {
		given    string
		expected string
	}{
		{"21.5°C", "21.5?C          "},
		{"żółć", "????            "},
		{"temperatura€€€€€€€€€€", "temperatura?????"},
		{"0123456789abcdefXYZ", "0123456789abcdef"},
		{"", "                "},
	}
	for _, tt := range tests {
		t.Run(tt.given, func(t *testing.T) {
			assert.Equal(t, tt.expected, fit(tt.given))
		})
	}
}

func TestHD44780_Render(t *testing.T) {
	bus := &recordingBus{}
	d := newTestDisplay(bus, WithBacklight(false))
	require.NoError(t, d.Render(context.Background(), sensorhub.InputSensors, "sensors#1: 21.50"))
	assert.Equal(t, "sensors#1       21.50           ", bus.text())
	// row addresses
	assert.Equal(t, byte(0x80|pinEnable), bus.writes[0][0])
	assert.Equal(t, byte(0xC0|pinEnable), bus.writes[1+Columns][0])
}

func TestLines(t *testing.T) {
	tests := []struct {
		text     string
		expected [Rows]string
	}{
		{"rtc#0: 2026-10-18 07:05:09", [Rows]string{"rtc#0           ", "2026-10-18 07:05"}},
		{"plain", [Rows]string{"plain           ", "                "}},
		{"i2c_scan#0: 3 device(s): 0x08 0x50", [Rows]string{"i2c_scan#0      ", "3 device(s): 0x0"}},
		{"s: 21°C", [Rows]string{"s               ", "21?C            "}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, Lines(tt.text))
		})
	}
}
