package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/scan"
)

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is empty")
	}
	if cfg.Monitor.Interval < 0 {
		return fmt.Errorf("monitor: negative interval %s", cfg.Monitor.Interval)
	}
	if cfg.Monitor.Interval > 0 && cfg.Monitor.Interval < 100*time.Millisecond {
		return fmt.Errorf("monitor: interval %s is below 100ms", cfg.Monitor.Interval)
	}

	enabled := make(map[sensorhub.IOComponent]bool)
	for _, name := range cfg.Monitor.Components {
		comp, err := sensorhub.ParseComponent(name)
		if err != nil {
			return fmt.Errorf("monitor: %w", err)
		}
		enabled[comp] = true
	}
	if len(enabled) > 0 {
		// a component enabled without its section cannot be built
		if enabled[sensorhub.InputRTC] && cfg.Inputs.RTC == nil {
			return errors.New("monitor: rtc is enabled but inputs.rtc is not configured")
		}
		if enabled[sensorhub.OutputDisplay] && cfg.Outputs.Display == nil {
			return errors.New("monitor: display is enabled but outputs.display is not configured")
		}
		if !enabled[sensorhub.OutputSerialConsole] && !enabled[sensorhub.OutputDisplay] {
			return errors.New("monitor: no output enabled")
		}
	}

	switch cfg.Bus.Adapter {
	case "", AdapterPeriph, AdapterMCP2221, AdapterGobot:
	default:
		return fmt.Errorf("bus: unknown adapter %q", cfg.Bus.Adapter)
	}
	if cfg.Bus.Speed < 0 {
		return fmt.Errorf("bus: negative speed %d", cfg.Bus.Speed)
	}

	ids := make(map[uint8]bool)
	for i, s := range cfg.Inputs.Sensors {
		if s.ID == sensorhub.DeviceIDUnused {
			return fmt.Errorf("inputs.sensors[%d]: id %#x is reserved", i, s.ID)
		}
		if ids[s.ID] {
			return fmt.Errorf("inputs.sensors[%d]: duplicate id %d", i, s.ID)
		}
		ids[s.ID] = true
		if err := validateSensor(s); err != nil {
			return fmt.Errorf("inputs.sensors[%d]: %w", i, err)
		}
		if s.Driver == DriverMCP2221GPIO && cfg.Bus.Adapter != AdapterMCP2221 {
			return fmt.Errorf("inputs.sensors[%d]: mcp2221_gpio requires the mcp2221 bus adapter", i)
		}
	}

	if rtc := cfg.Inputs.RTC; rtc != nil {
		switch rtc.Driver {
		case "", RTCDriverDS3231, RTCDriverSystem:
		default:
			return fmt.Errorf("inputs.rtc: unknown driver %q", rtc.Driver)
		}
		if rtc.Timezone != "" {
			if _, err := time.LoadLocation(rtc.Timezone); err != nil {
				return fmt.Errorf("inputs.rtc: %w", err)
			}
		}
	}
	if sc := cfg.Inputs.I2CScan; sc != nil && sc.Mode > scan.MaxDevices {
		return fmt.Errorf("inputs.i2c_scan: mode %d is outside 0..%d", sc.Mode, scan.MaxDevices)
	}
	if c := cfg.Outputs.SerialConsole; c != nil {
		if c.DataBits != 0 && (c.DataBits < 5 || c.DataBits > 8) {
			return fmt.Errorf("outputs.serial_console: data bits %d is outside 5..8", c.DataBits)
		}
		if c.StopBits > 2 {
			return fmt.Errorf("outputs.serial_console: stop bits %d is outside 1..2", c.StopBits)
		}
	}
	if d := cfg.Outputs.Display; d != nil && d.Address > scan.MaxDevices {
		return fmt.Errorf("outputs.display: address %#x is not a 7-bit address", d.Address)
	}
	return nil
}

func validateSensor(s SensorConfig) error {
	quantities, ok := drivers[s.Driver]
	if !ok {
		return fmt.Errorf("unknown driver %q", s.Driver)
	}
	if len(quantities) == 0 && s.Quantity != "" {
		return fmt.Errorf("%s reads a single quantity, got %q", s.Driver, s.Quantity)
	}
	if len(quantities) > 0 && s.Quantity != "" && !slices.Contains(quantities, s.Quantity) {
		return fmt.Errorf("%s cannot read %q", s.Driver, s.Quantity)
	}
	if s.Address > scan.MaxDevices {
		return fmt.Errorf("address %#x is not a 7-bit address", s.Address)
	}
	switch s.Driver {
	case DriverDHT22:
		if s.Pin == "" {
			return errors.New("dht22 requires a pin")
		}
	case DriverMCP23017:
		if s.Port != "" && s.Port != "A" && s.Port != "B" {
			return fmt.Errorf("unknown port %q", s.Port)
		}
		if s.Bit > 7 {
			return fmt.Errorf("bit %d is outside 0..7", s.Bit)
		}
	case DriverMCP2221GPIO:
		if s.Bit > 3 {
			return fmt.Errorf("GP%d is outside GP0..GP3", s.Bit)
		}
	}
	return nil
}
