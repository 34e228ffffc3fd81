// Package config loads the monitor configuration from YAML.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/sensorhub"
)

type Config struct {
	Monitor MonitorConfig `yaml:"monitor"`
	Bus     BusConfig     `yaml:"bus"`
	Inputs  InputsConfig  `yaml:"inputs"`
	Outputs OutputsConfig `yaml:"outputs"`
}

// ---- MONITOR ----

type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"`
	// Components enabled at runtime; derived from the configured sections when empty.
	Components []string `yaml:"components"`
}

// ---- BUS ----

const (
	AdapterPeriph  = "periph"
	AdapterMCP2221 = "mcp2221"
	AdapterGobot   = "gobot"
)

type BusConfig struct {
	Adapter string `yaml:"adapter"`
	// periph device name, e.g. /dev/i2c-1; empty picks the first bus
	Device string `yaml:"device"`
	// gobot bus number
	Number int `yaml:"number"`
	// mcp2221 index when several bridges are connected, -1 when only one is
	Index *int `yaml:"index"`
	// bus speed in Hz, periph only
	Speed int64 `yaml:"speed"`
}

// ---- INPUTS ----

type InputsConfig struct {
	Sensors []SensorConfig `yaml:"sensors"`
	RTC     *RTCConfig     `yaml:"rtc"`
	I2CScan *ScanConfig    `yaml:"i2c_scan"`
}

const (
	DriverTC74     = "tc74"
	DriverSHTC3    = "shtc3"
	DriverHIH6021  = "hih6021"
	DriverBH1750   = "bh1750"
	DriverDHT22    = "dht22"
	DriverBMA220   = "bma220"
	DriverMCP23017 = "mcp23017"
	DriverAGS02MA  = "ags02ma"
	// GP pin of the MCP2221 bridge driving the bus
	DriverMCP2221GPIO = "mcp2221_gpio"
	DriverMock        = "mock"

	QuantityTemperature = "temperature"
	QuantityHumidity    = "humidity"
	QuantityTVOC        = "tvoc"
	QuantityResistance  = "resistance"
)

// drivers maps each sensor driver to the quantities it can read; a nil list
// means the driver reads a single quantity.
var drivers = map[string][]string{
	DriverTC74:     nil,
	DriverSHTC3:    {QuantityTemperature, QuantityHumidity},
	DriverHIH6021:  {QuantityTemperature, QuantityHumidity},
	DriverBH1750:   nil,
	DriverDHT22:    {QuantityTemperature, QuantityHumidity},
	DriverBMA220:   nil,
	DriverMCP23017: nil,
	DriverAGS02MA:  {QuantityTVOC, QuantityResistance},
	DriverMock:     nil,

	DriverMCP2221GPIO: nil,
}

type SensorConfig struct {
	ID       uint8  `yaml:"id"`
	Driver   string `yaml:"driver"`
	Quantity string `yaml:"quantity"`
	Address  uint8  `yaml:"address"`
	// host GPIO pin, dht22 only
	Pin string `yaml:"pin"`
	// expander pin, mcp23017 only; bit is the GP number for mcp2221_gpio
	Port      string `yaml:"port"`
	Bit       uint   `yaml:"bit"`
	ActiveLow bool   `yaml:"active_low"`
	// fixed value served by the mock driver
	Value float32 `yaml:"value"`
}

const (
	RTCDriverDS3231 = "ds3231"
	RTCDriverSystem = "system"
)

type RTCConfig struct {
	Driver   string `yaml:"driver"`
	Timezone string `yaml:"timezone"`
}

type ScanConfig struct {
	// 0 scans the whole bus, 1..127 probes one address
	Mode uint8 `yaml:"mode"`
}

// ---- OUTPUTS ----

type OutputsConfig struct {
	SerialConsole *ConsoleConfig `yaml:"serial_console"`
	Display       *DisplayConfig `yaml:"display"`
}

type ConsoleConfig struct {
	// tty path; stdout when empty
	Path     string `yaml:"path"`
	BaudRate uint   `yaml:"baud_rate"`
	DataBits uint   `yaml:"data_bits"`
	StopBits uint   `yaml:"stop_bits"`
}

type DisplayConfig struct {
	Address   uint8 `yaml:"address"`
	Backlight *bool `yaml:"backlight"`
}

// Load reads and decodes the file at path. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	return cfg, nil
}

// Capabilities returns the enabled component set. Call after Normalize.
// The error kind is always part of it: failures must reach the outputs.
func (c *Config) Capabilities() sensorhub.Capabilities {
	caps := sensorhub.NewCapabilities(sensorhub.InputError)
	for _, name := range c.Monitor.Components {
		comp, err := sensorhub.ParseComponent(name)
		if err != nil {
			continue
		}
		caps = caps.With(comp)
	}
	return caps
}
