package sensorhub

import (
	"fmt"
	"strings"
)

// IOComponent identifies a kind of input or output endpoint.
// Values are fixed whatever the set of enabled components.
type IOComponent uint8

const (
	InputSensors IOComponent = iota
	InputRTC
	InputI2CScan
	InputError
	OutputDisplay
	OutputSerialConsole

	IOUnused IOComponent = 0xFF
)

// DeviceIDUnused marks an unassigned device id.
const DeviceIDUnused uint8 = 0xFF

var componentNames = map[IOComponent]string{
	InputSensors:        "sensors",
	InputRTC:            "rtc",
	InputI2CScan:        "i2c_scan",
	InputError:          "error",
	OutputDisplay:       "display",
	OutputSerialConsole: "serial_console",
	IOUnused:            "unused",
}

func (c IOComponent) String() string {
	if name, ok := componentNames[c]; ok {
		return name
	}
	return fmt.Sprintf("component(%d)", uint8(c))
}

// IsInput reports whether c is one of the input kinds, including the error input.
func (c IOComponent) IsInput() bool {
	return c <= InputError
}

// IsOutput reports whether c is one of the output kinds.
func (c IOComponent) IsOutput() bool {
	return c == OutputDisplay || c == OutputSerialConsole
}

// ParseComponent resolves a component from its configuration name.
func ParseComponent(name string) (IOComponent, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range componentNames {
		if n == name && c != IOUnused {
			return c, nil
		}
	}
	return IOUnused, fmt.Errorf("unknown component %q", name)
}

// Device identifies one concrete input or output endpoint.
type Device struct {
	Component IOComponent
	ID        uint8
}

func (d Device) String() string {
	if d.ID == DeviceIDUnused {
		return d.Component.String()
	}
	return fmt.Sprintf("%s#%d", d.Component, d.ID)
}

// Capabilities is the set of components supported by a running device.
type Capabilities uint16

// DefaultCapabilities are always available; RTC and display are optional.
var DefaultCapabilities = NewCapabilities(InputSensors, InputI2CScan, InputError, OutputSerialConsole)

func NewCapabilities(components ...IOComponent) Capabilities {
	var c Capabilities
	for _, comp := range components {
		c = c.With(comp)
	}
	return c
}

func (c Capabilities) With(comp IOComponent) Capabilities {
	if comp > OutputSerialConsole {
		return c
	}
	return c | 1<<comp
}

func (c Capabilities) Without(comp IOComponent) Capabilities {
	if comp > OutputSerialConsole {
		return c
	}
	return c &^ (1 << comp)
}

// Has reports whether comp is available. IOUnused is never available.
func (c Capabilities) Has(comp IOComponent) bool {
	if comp > OutputSerialConsole {
		return false
	}
	return c&(1<<comp) != 0
}

// Components lists available components in ascending order.
func (c Capabilities) Components() []IOComponent {
	var res []IOComponent
	for comp := InputSensors; comp <= OutputSerialConsole; comp++ {
		if c.Has(comp) {
			res = append(res, comp)
		}
	}
	return res
}

func (c Capabilities) String() string {
	names := make([]string, 0, 6)
	for _, comp := range c.Components() {
		names = append(names, comp.String())
	}
	return "[" + strings.Join(names, " ") + "]"
}
