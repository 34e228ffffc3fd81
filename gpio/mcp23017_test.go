package gpio

import (
	"context"
	"errors"
	"testing"

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

func TestMCP23017_Configure(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(DefaultMCP23017Address), []byte{0x01, 0xFF}).Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(DefaultMCP23017Address), []byte{0x0D, 0x0F}).Return(nil).Once()

	m := NewMCP23017(bus, DefaultMCP23017Address)
	require.NoError(t, m.Configure(context.Background(), PortB, 0xFF, 0x0F))
	bus.AssertExpectations(t)
}

func TestMCP23017_RetriesWhenBusy(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x20), []byte{0x09}).Return(sensorhub.ErrBusBusy).Once()
	bus.On("Release", mock.Anything).Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(0x20), []byte{0x09}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(0x20), mock.Anything).Return([]byte{0xA5}, nil).Once()

	m := NewMCP23017(bus, 0x20, WithBank(1), WithRetryLimit(2))
	v, err := m.ReadPort(context.Background(), PortA)
	require.NoError(t, err)
	assert.Equal(t, byte(0xA5), v)
	bus.AssertExpectations(t)
}

func TestMCP23017_RetryLimitReached(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x20), mock.Anything).Return(sensorhub.ErrBusBusy).Once()
	bus.On("Release", mock.Anything).Return(nil).Once()

	_, err := NewMCP23017(bus, 0x20).ReadPort(context.Background(), PortA)
	assert.ErrorIs(t, err, sensorhub.ErrBusBusy)
	assert.Contains(t, err.Error(), "retry limit reached")
}

func TestMCP23017_OtherErrorsAreNotRetried(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x20), mock.Anything).Return(errors.New("nack")).Once()

	_, err := NewMCP23017(bus, 0x20, WithRetryLimit(3)).ReadPort(context.Background(), PortA)
	assert.EqualError(t, err, "could not read gpio A: could not set register address: nack")
	bus.AssertNotCalled(t, "Release", mock.Anything)
}

func TestMCP23017_Pin(t *testing.T) {
	tests := []struct {
		name      string
		port      byte
		bit       uint
		activeLow bool
		expected  bool
	}{
		{"high", 0b0000_0100, 2, false, true},
		{"low", 0b0000_0000, 2, false, false},
		{"active low grounded", 0b1111_1011, 2, true, true},
		{"active low open", 0b0000_0100, 2, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := new(MockI2CBus)
			bus.On("WriteToAddr", mock.Anything, byte(0x20), []byte{0x12}).Return(nil).Once()
			bus.On("ReadFromAddr", mock.Anything, byte(0x20), mock.Anything).Return([]byte{tt.port}, nil).Once()

			r, err := NewMCP23017(bus, 0x20).Pin(PortA, tt.bit, tt.activeLow).Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, sensorhub.IndicationReading(tt.expected), r)
		})
	}
}
