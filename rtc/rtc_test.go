package rtc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorhub"
)

type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return m.Called(ctx, address, buffer).Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestDS3231_Now(t *testing.T) {
	tests := []struct {
		name     string
		regs     []byte
		expected sensorhub.RTCReading
	}{
		{
			name:     "24h",
			regs:     []byte{0x45, 0x30, 0x23, 0x03, 0x31, 0x12, 0x24},
			expected: sensorhub.RTCReading{Year: 2024, Month: 12, Day: 31, Hour: 23, Mins: 30, Secs: 45},
		},
		{
			name:     "12h pm",
			regs:     []byte{0x00, 0x05, 0x40 | 0x20 | 0x03, 0x01, 0x07, 0x04, 0x26},
			expected: sensorhub.RTCReading{Year: 2026, Month: 4, Day: 7, Hour: 15, Mins: 5},
		},
		{
			name:     "12h midnight",
			regs:     []byte{0x00, 0x00, 0x40 | 0x12, 0x01, 0x01, 0x01, 0x00},
			expected: sensorhub.RTCReading{Year: 2000, Month: 1, Day: 1},
		},
		{
			name:     "century",
			regs:     []byte{0x00, 0x00, 0x00, 0x01, 0x01, 0x80 | 0x01, 0x01},
			expected: sensorhub.RTCReading{Year: 2101, Month: 1, Day: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := new(MockI2CBus)
			bus.On("WriteToAddr", mock.Anything, byte(DS3231Address), []byte{regSeconds}).Return(nil).Once()
			bus.On("ReadFromAddr", mock.Anything, byte(DS3231Address), mock.Anything).Return(tt.regs, nil).Once()

			r, err := NewDS3231(bus).Now(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, r)
			bus.AssertExpectations(t)
		})
	}
}

func TestDS3231_Set(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(DS3231Address), []byte{regSeconds, 0x59, 0x08, 0x17, 0x01, 0x18, 0x10, 0x26}).Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(DS3231Address), []byte{regStatus, 0x00}).Return(nil).Once()

	// a Sunday
	ts := time.Date(2026, time.October, 18, 17, 8, 59, 0, time.UTC)
	require.NoError(t, NewDS3231(bus).Set(context.Background(), ts))
	bus.AssertExpectations(t)
}

func TestDS3231_InitFailure(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(DS3231Address), mock.Anything).Return(errors.New("nack")).Once()

	err := NewDS3231(bus, WithDS3231ID(0)).Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, sensorhub.ErrorCodeRTCInitFailed, sensorhub.CodeOf(err))
	var de sensorhub.DeviceError
	require.ErrorAs(t, err, &de)
	// same identity as the RTC input built by the hub
	assert.Equal(t, "rtc#0", de.Device.String())
}

func TestBCD(t *testing.T) {
	for v := uint8(0); v < 100; v++ {
		assert.Equal(t, v, fromBCD(toBCD(v)))
	}
	assert.Equal(t, byte(0x59), toBCD(59))
}

func TestSystemClock_Now(t *testing.T) {
	mc := clock.NewMock()
	mc.Set(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
	c := NewSystemClock(mc, nil)

	r, err := c.Now(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01 12:00:00", r.String())

	mc.Add(90 * time.Second)
	r, _ = c.Now(context.Background())
	assert.Equal(t, "2026-03-01 12:01:30", r.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Now(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
