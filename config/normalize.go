package config

import (
	"slices"
	"time"

	"github.com/mklimuk/sensorhub"
)

const (
	defaultInterval       = 5 * time.Second
	defaultDisplayAddress = 0x27
	defaultBaudRate       = 115200
	defaultDataBits       = 8
	defaultStopBits       = 1
)

// Normalize fills in defaults. It mutates cfg and must be called only after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Monitor.Interval == 0 {
		cfg.Monitor.Interval = defaultInterval
	}
	if cfg.Bus.Adapter == "" {
		cfg.Bus.Adapter = AdapterPeriph
	}
	if cfg.Bus.Index == nil {
		idx := -1
		cfg.Bus.Index = &idx
	}

	for i := range cfg.Inputs.Sensors {
		s := &cfg.Inputs.Sensors[i]
		if s.Quantity == "" && len(drivers[s.Driver]) > 0 {
			s.Quantity = drivers[s.Driver][0]
		}
		if s.Port == "" && s.Driver == DriverMCP23017 {
			s.Port = "A"
		}
	}
	if rtc := cfg.Inputs.RTC; rtc != nil && rtc.Driver == "" {
		rtc.Driver = RTCDriverDS3231
	}
	if cfg.Outputs.SerialConsole == nil && cfg.Outputs.Display == nil {
		cfg.Outputs.SerialConsole = &ConsoleConfig{}
	}
	if c := cfg.Outputs.SerialConsole; c != nil && c.Path != "" {
		if c.BaudRate == 0 {
			c.BaudRate = defaultBaudRate
		}
		if c.DataBits == 0 {
			c.DataBits = defaultDataBits
		}
		if c.StopBits == 0 {
			c.StopBits = defaultStopBits
		}
	}
	if d := cfg.Outputs.Display; d != nil {
		if d.Address == 0 {
			d.Address = defaultDisplayAddress
		}
		if d.Backlight == nil {
			on := true
			d.Backlight = &on
		}
	}

	if len(cfg.Monitor.Components) == 0 {
		cfg.Monitor.Components = componentsOf(cfg)
	} else if !slices.Contains(cfg.Monitor.Components, sensorhub.InputError.String()) {
		cfg.Monitor.Components = append(cfg.Monitor.Components, sensorhub.InputError.String())
	}
}

// componentsOf derives the enabled components from the configured sections.
func componentsOf(cfg *Config) []string {
	caps := sensorhub.NewCapabilities(sensorhub.InputError)
	if len(cfg.Inputs.Sensors) > 0 {
		caps = caps.With(sensorhub.InputSensors)
	}
	if cfg.Inputs.RTC != nil {
		caps = caps.With(sensorhub.InputRTC)
	}
	if cfg.Inputs.I2CScan != nil {
		caps = caps.With(sensorhub.InputI2CScan)
	}
	if cfg.Outputs.SerialConsole != nil {
		caps = caps.With(sensorhub.OutputSerialConsole)
	}
	if cfg.Outputs.Display != nil {
		caps = caps.With(sensorhub.OutputDisplay)
	}
	var names []string
	for _, c := range caps.Components() {
		names = append(names, c.String())
	}
	return names
}
