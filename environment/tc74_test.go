package environment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorhub"
)

func TestTC74_Read(t *testing.T) {
	tests := []struct {
		name     string
		raw      byte
		expected float32
	}{
		{"positive", 0x19, 25},
		{"zero", 0x00, 0},
		{"negative", 0xF6, -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := new(MockI2CBus)
			bus.On("WriteToAddr", mock.Anything, byte(TC74DefaultAddress), []byte{tc74ConfigRegister}).Return(nil).Once()
			bus.On("ReadFromAddr", mock.Anything, byte(TC74DefaultAddress), mock.Anything).Return([]byte{tc74DataReady}, nil).Once()
			bus.On("WriteToAddr", mock.Anything, byte(TC74DefaultAddress), []byte{tc74TempRegister}).Return(nil).Once()
			bus.On("ReadFromAddr", mock.Anything, byte(TC74DefaultAddress), mock.Anything).Return([]byte{tt.raw}, nil).Once()

			r, err := NewTC74(bus).Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, sensorhub.ValueReading(tt.expected), r)
			bus.AssertExpectations(t)
		})
	}
}

func TestTC74_NotReadyReturnsPreviousValue(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x48), []byte{tc74ConfigRegister}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(0x48), mock.Anything).Return([]byte{0x00}, nil).Once()

	s := NewTC74(bus, WithTC74Address(0x48))
	s.lastTemp = 17
	temp, err := s.GetTemperature(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float32(17), temp)
	bus.AssertExpectations(t)
}

func TestTC74_BusError(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(TC74DefaultAddress), mock.Anything).Return(errors.New("nack")).Once()

	_, err := NewTC74(bus).Read(context.Background())
	assert.EqualError(t, err, "tc74: could not select register 0x1: nack")
}
