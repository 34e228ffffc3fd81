package adapter

import (
	"context"
	"fmt"

	"github.com/mklimuk/sensorhub"
)

// GPIOPins is the number of general purpose pins (GP0..GP3).
const GPIOPins = 4

const (
	cmdGetFlashData  = 0xB0
	cmdSetFlashData  = 0xB1
	cmdGetGPIOValues = 0x51
	flashGPSettings  = 0x01
)

type GPIOMode byte

const (
	GPIOModeOut         GPIOMode = 0b00000000
	GPIOModeIn          GPIOMode = 0b00001000
	GPIOModeNoOperation GPIOMode = 0xEF
)

func (m GPIOMode) String() string {
	switch m {
	case GPIOModeIn:
		return "INPUT"
	case GPIOModeOut:
		return "OUTPUT"
	default:
		return "NOOP"
	}
}

func (m GPIOMode) MarshalYAML() (any, error) {
	return m.String(), nil
}

// GPIODesignation selects the pin function. Values other than GPIOOperation
// mean a different dedicated or alternate function for each pin, e.g. 0b010
// is SSPND on GP0 but ADC1 on GP1.
type GPIODesignation byte

const (
	GPIOOperation GPIODesignation = 0b000
	GPIODedicated GPIODesignation = 0b001
	GPIOAlternate GPIODesignation = 0b010
)

const (
	gpioModeMask      = 0b00001000
	gpioOperationMask = 0b00000111
)

// GPIOSettings is the power-up configuration of one pin.
type GPIOSettings struct {
	Mode        GPIOMode        `yaml:"mode"`
	Designation GPIODesignation `yaml:"designation"`
}

// GPIOValue is the current state of one pin. Mode is GPIOModeNoOperation
// when the pin is not set up for GPIO operation.
type GPIOValue struct {
	Mode  GPIOMode `yaml:"mode"`
	Value byte     `yaml:"value"`
}

// SetGPIOParameters writes the GP settings to flash. They take effect after
// the next power-up.
func (d *MCP2221) SetGPIOParameters(ctx context.Context, params [GPIOPins]GPIOSettings) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdSetFlashData
	d.request[1] = flashGPSettings
	for i, p := range params {
		d.request[2+i] = byte(p.Designation)&gpioOperationMask | byte(p.Mode)&gpioModeMask
	}
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("set GP parameters: %w", err)
	}
	if d.response[1] != 0 {
		return ErrCommandFailed
	}
	return nil
}

func (d *MCP2221) GetGPIOParameters(ctx context.Context) ([GPIOPins]GPIOSettings, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	var res [GPIOPins]GPIOSettings
	d.resetBuffers()
	d.request[0] = cmdGetFlashData
	d.request[1] = flashGPSettings
	if err := d.send(ctx); err != nil {
		return res, fmt.Errorf("get GP parameters: %w", err)
	}
	if d.response[1] != 0 {
		return res, ErrCommandUnsupported
	}
	for i := range res {
		b := d.response[4+i]
		res[i] = GPIOSettings{Mode: GPIOMode(b & gpioModeMask), Designation: GPIODesignation(b & gpioOperationMask)}
	}
	return res, nil
}

// ReadGPIO returns the current value of every pin.
func (d *MCP2221) ReadGPIO(ctx context.Context) ([GPIOPins]GPIOValue, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	var res [GPIOPins]GPIOValue
	d.resetBuffers()
	d.request[0] = cmdGetGPIOValues
	if err := d.send(ctx); err != nil {
		return res, fmt.Errorf("read GPIO values: %w", err)
	}
	if d.response[1] != 0 {
		return res, ErrCommandFailed
	}
	for i := range res {
		// value and direction pairs from byte 2; direction 1 is input
		value, dir := d.response[2+2*i], d.response[3+2*i]
		res[i] = GPIOValue{Mode: GPIOModeNoOperation, Value: value}
		if dir != byte(GPIOModeNoOperation) {
			res[i].Mode = GPIOMode(dir << 3)
		}
	}
	return res, nil
}

// Pin exposes one GP pin as an indication sensor. The pin must be configured
// as a GPIO input.
func (d *MCP2221) Pin(gp int, activeLow bool) sensorhub.Sensor {
	return sensorhub.IndicationSensor(func(ctx context.Context) (bool, error) {
		if gp < 0 || gp >= GPIOPins {
			return false, fmt.Errorf("mcp2221: no pin GP%d", gp)
		}
		values, err := d.ReadGPIO(ctx)
		if err != nil {
			return false, fmt.Errorf("mcp2221: %w", err)
		}
		v := values[gp]
		if v.Mode != GPIOModeIn {
			return false, fmt.Errorf("mcp2221: GP%d is %s, not an input", gp, v.Mode)
		}
		return (v.Value != 0) != activeLow, nil
	})
}
