// Package gpio exposes digital inputs of I2C port expanders as indication sensors.
package gpio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/sensorhub"
)

const DefaultMCP23017Address = 0x21

type Port int

const (
	PortA Port = iota
	PortB
)

func (p Port) String() string {
	if p == PortB {
		return "B"
	}
	return "A"
}

type register int

const (
	regIODIR register = iota
	regGPPU
	regIOCON
	regGPIO
)

// registers maps each register to its address per port, for IOCON.BANK=0 and IOCON.BANK=1.
var registers = [2]map[register][2]byte{
	{
		regIODIR: {0x00, 0x01},
		regGPPU:  {0x0C, 0x0D},
		regIOCON: {0x0A, 0x0B},
		regGPIO:  {0x12, 0x13},
	},
	{
		regIODIR: {0x00, 0x10},
		regGPPU:  {0x06, 0x16},
		regIOCON: {0x05, 0x15},
		regGPIO:  {0x09, 0x19},
	},
}

/*
	Steps to read GPIO:

1. Set 0xFF to IODIR register (all inputs)
2. Configure pull-ups in GPPU
3. Read the GPIO register of the port
*/
type MCP23017 struct {
	mx         sync.Mutex
	transport  sensorhub.I2CBus
	bank       int
	address    byte
	retryLimit int
}

type MCP23017Option func(*MCP23017)

// WithRetryLimit sets how many times a transfer is attempted when the bus reports busy.
func WithRetryLimit(limit int) MCP23017Option {
	return func(m *MCP23017) {
		if limit > 0 {
			m.retryLimit = limit
		}
	}
}

// WithBank selects the register layout configured through IOCON.BANK.
func WithBank(bank int) MCP23017Option {
	return func(m *MCP23017) {
		m.bank = bank & 1
	}
}

func NewMCP23017(bus sensorhub.I2CBus, address byte, opts ...MCP23017Option) *MCP23017 {
	m := &MCP23017{retryLimit: 1, transport: bus, address: address}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MCP23017) reg(r register, p Port) byte {
	return registers[m.bank][r][p]
}

// retry runs op until it succeeds, fails with something other than a busy bus
// or the retry limit is reached. The bus is released after every busy attempt.
func (m *MCP23017) retry(ctx context.Context, what string, op func() error) error {
	var err error
	for i := m.retryLimit; i > 0; i-- {
		err = op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, sensorhub.ErrBusBusy) {
			return fmt.Errorf("could not %s: %w", what, err)
		}
		_ = m.transport.Release(ctx)
	}
	return fmt.Errorf("could not %s (retry limit reached): %w", what, err)
}

func (m *MCP23017) writeRegister(ctx context.Context, reg, value byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.transport.WriteToAddr(ctx, m.address, []byte{reg, value})
}

func (m *MCP23017) readRegister(ctx context.Context, reg byte) (byte, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	err := m.transport.WriteToAddr(ctx, m.address, []byte{reg})
	if err != nil {
		return 0x00, fmt.Errorf("could not set register address: %w", err)
	}
	buf := make([]byte, 1)
	err = m.transport.ReadFromAddr(ctx, m.address, buf)
	if err != nil {
		return 0x00, fmt.Errorf("could not read register: %w", err)
	}
	return buf[0], nil
}

// Configure sets pin directions (1 = input) and pull-ups of a port.
func (m *MCP23017) Configure(ctx context.Context, p Port, inout, pullUp byte) error {
	err := m.retry(ctx, fmt.Sprintf("set direction on gpio %s", p), func() error {
		return m.writeRegister(ctx, m.reg(regIODIR, p), inout)
	})
	if err != nil {
		return err
	}
	return m.retry(ctx, fmt.Sprintf("set pull-up on gpio %s", p), func() error {
		return m.writeRegister(ctx, m.reg(regGPPU, p), pullUp)
	})
}

// ReadPort reads the pin levels of a port.
func (m *MCP23017) ReadPort(ctx context.Context, p Port) (byte, error) {
	var res byte
	err := m.retry(ctx, fmt.Sprintf("read gpio %s", p), func() error {
		var err error
		res, err = m.readRegister(ctx, m.reg(regGPIO, p))
		return err
	})
	return res, err
}

// Settings reads the IOCON register.
func (m *MCP23017) Settings(ctx context.Context) (byte, error) {
	var res byte
	err := m.retry(ctx, "read settings", func() error {
		var err error
		res, err = m.readRegister(ctx, m.reg(regIOCON, PortA))
		return err
	})
	return res, err
}

// Pin exposes a single pin as an indication sensor. With activeLow the
// indication is on while the pin reads 0, which suits contacts wired to ground.
func (m *MCP23017) Pin(p Port, bit uint, activeLow bool) sensorhub.Sensor {
	return sensorhub.IndicationSensor(func(ctx context.Context) (bool, error) {
		v, err := m.ReadPort(ctx, p)
		if err != nil {
			return false, err
		}
		on := v&(1<<(bit&7)) != 0
		return on != activeLow, nil
	})
}
