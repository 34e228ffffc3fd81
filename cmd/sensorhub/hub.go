package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/accel"
	"github.com/mklimuk/sensorhub/adapter"
	"github.com/mklimuk/sensorhub/air"
	"github.com/mklimuk/sensorhub/cmd/sensorhub/console"
	"github.com/mklimuk/sensorhub/config"
	"github.com/mklimuk/sensorhub/control"
	"github.com/mklimuk/sensorhub/environment"
	"github.com/mklimuk/sensorhub/gpio"
	"github.com/mklimuk/sensorhub/i2c"
	"github.com/mklimuk/sensorhub/input"
	"github.com/mklimuk/sensorhub/output"
	serial "github.com/mklimuk/sensorhub/output/console"
	"github.com/mklimuk/sensorhub/output/lcd"
	"github.com/mklimuk/sensorhub/rtc"
	"github.com/mklimuk/sensorhub/scan"
)

// soleID is the id of devices configured at most once: the rtc, the scan
// input and the outputs.
const soleID uint8 = 0

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// hub is the hardware described by the configuration: the shared bus and
// everything that must be released on exit.
type hub struct {
	cfg     *config.Config
	caps    sensorhub.Capabilities
	bus     sensorhub.ScanBus
	closers []io.Closer
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	switch {
	case errors.Is(err, fs.ErrNotExist) && !c.IsSet("config"):
		slog.Debug("no configuration file, using defaults", "path", c.String("config"))
		cfg = &config.Config{}
	case err != nil:
		return nil, err
	}
	if a := c.String("adapter"); a != "" {
		cfg.Bus.Adapter = a
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

// openHub loads the configuration and opens the bus. Failures are returned
// as exit errors.
func openHub(ctx context.Context, c *cli.Context) (*hub, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, console.Exit(console.ExitConfig, "%s", console.Red(err))
	}
	h := &hub{cfg: cfg, caps: cfg.Capabilities()}
	h.bus, err = h.openBus(ctx)
	if err != nil {
		return nil, console.Exit(console.ExitBus, "could not open %s bus: %s", cfg.Bus.Adapter, console.Red(err))
	}
	slog.Debug("hub ready", "adapter", cfg.Bus.Adapter, "components", h.caps)
	return h, nil
}

func (h *hub) openBus(ctx context.Context) (sensorhub.ScanBus, error) {
	bc := h.cfg.Bus
	switch bc.Adapter {
	case config.AdapterMCP2221:
		m := adapter.NewMCP2221(adapter.WithDeviceIndex(*bc.Index))
		if err := m.Init(ctx); err != nil {
			return nil, err
		}
		return m, nil
	case config.AdapterGobot:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		h.closers = append(h.closers, closerFunc(npi.I2cBusAdaptor.Finalize))
		return i2c.NewGobotBus(npi, bc.Number), nil
	default:
		b, err := i2c.NewGenericBus(bc.Device)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, b)
		if bc.Speed > 0 {
			if err := b.SetSpeed(bc.Speed); err != nil {
				return nil, fmt.Errorf("could not set bus speed: %w", err)
			}
		}
		return b, nil
	}
}

func (h *hub) Close() error {
	var err error
	for _, c := range h.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

func initFailed(code sensorhub.ErrorCode, dev sensorhub.Device, err error) error {
	return sensorhub.DeviceError{Code: code, Device: dev, Err: err}
}

// inputs builds the enabled inputs. Inputs which fail to initialize are left
// out and their failures returned together.
func (h *hub) inputs(ctx context.Context) ([]input.Input, error) {
	var res []input.Input
	var errs error
	if h.caps.Has(sensorhub.InputSensors) {
		for _, sc := range h.cfg.Inputs.Sensors {
			s, err := h.sensor(ctx, sc)
			if err != nil {
				dev := sensorhub.Device{Component: sensorhub.InputSensors, ID: sc.ID}
				errs = multierr.Append(errs, initFailed(sensorhub.ErrorCodeSensorInitFailed, dev, err))
				continue
			}
			res = append(res, input.NewSensorInput(sc.ID, s))
		}
	} else if len(h.cfg.Inputs.Sensors) > 0 {
		slog.Warn("sensors configured but not enabled")
	}

	if rc := h.cfg.Inputs.RTC; rc != nil && h.caps.Has(sensorhub.InputRTC) {
		c, err := h.clock(ctx, rc)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else {
			res = append(res, input.NewRTCInput(soleID, c))
		}
	}

	if sc := h.cfg.Inputs.I2CScan; sc != nil && h.caps.Has(sensorhub.InputI2CScan) {
		res = append(res, input.NewScanInput(soleID, scan.NewScanner(h.bus), sc.Mode))
	}
	return res, errs
}

func (h *hub) sensor(ctx context.Context, sc config.SensorConfig) (sensorhub.Sensor, error) {
	pick := func(temperature, humidity sensorhub.Sensor) sensorhub.Sensor {
		if sc.Quantity == config.QuantityHumidity {
			return humidity
		}
		return temperature
	}
	switch sc.Driver {
	case config.DriverTC74:
		var opts []environment.TC74Option
		if sc.Address != 0 {
			opts = append(opts, environment.WithTC74Address(sc.Address))
		}
		return environment.NewTC74(h.bus, opts...), nil
	case config.DriverSHTC3:
		s := environment.NewSHTC3(h.bus)
		return pick(s.Temperature(), s.Humidity()), nil
	case config.DriverHIH6021:
		s := environment.NewHIH6021(h.bus)
		return pick(s.Temperature(), s.Humidity()), nil
	case config.DriverBH1750:
		addr := sc.Address
		if addr == 0 {
			addr = environment.BH1750AddrLow
		}
		return environment.NewBH1750(h.bus, addr), nil
	case config.DriverDHT22:
		s, err := environment.NewDHT22(sc.Pin)
		if err != nil {
			return nil, err
		}
		return pick(s.Temperature(), s.Humidity()), nil
	case config.DriverBMA220:
		s := accel.NewBMA220(h.bus)
		if err := s.InitMotionDetection(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMCP23017:
		addr := sc.Address
		if addr == 0 {
			addr = gpio.DefaultMCP23017Address
		}
		port := gpio.PortA
		if sc.Port == "B" {
			port = gpio.PortB
		}
		m := gpio.NewMCP23017(h.bus, addr, gpio.WithRetryLimit(3))
		if err := m.Configure(ctx, port, 0xFF, 0xFF); err != nil {
			return nil, err
		}
		return m.Pin(port, sc.Bit, sc.ActiveLow), nil
	case config.DriverAGS02MA:
		s := air.NewAGS02MA(h.bus)
		if err := s.Configure(ctx); err != nil {
			return nil, err
		}
		if sc.Quantity == config.QuantityResistance {
			return s.Resistance(), nil
		}
		return s, nil
	case config.DriverMCP2221GPIO:
		bridge, ok := h.bus.(*adapter.MCP2221)
		if !ok {
			return nil, errors.New("mcp2221_gpio needs the mcp2221 bus adapter")
		}
		return bridge.Pin(int(sc.Bit), sc.ActiveLow), nil
	case config.DriverMock:
		v := sc.Value
		return environment.NewMockValueSensor(func(ctx context.Context) (float32, error) { return v, nil }), nil
	}
	return nil, fmt.Errorf("unknown driver %q", sc.Driver)
}

func (h *hub) clock(ctx context.Context, rc *config.RTCConfig) (sensorhub.Clock, error) {
	loc := time.UTC
	if rc.Timezone != "" {
		l, err := time.LoadLocation(rc.Timezone)
		if err != nil {
			return nil, initFailed(sensorhub.ErrorCodeRTCInitFailed, sensorhub.Device{Component: sensorhub.InputRTC, ID: soleID}, err)
		}
		loc = l
	}
	if rc.Driver == config.RTCDriverSystem {
		return rtc.NewSystemClock(nil, loc), nil
	}
	d := rtc.NewDS3231(h.bus, rtc.WithDS3231ID(soleID))
	if err := d.Init(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// outputs builds a dispatcher per enabled output. Outputs which fail to
// initialize are left out and their failures returned together.
func (h *hub) outputs(ctx context.Context) ([]control.Dispatcher, error) {
	var res []control.Dispatcher
	var errs error
	add := func(comp sensorhub.IOComponent, sink output.Sink) {
		d, err := output.NewDispatcher(sensorhub.Device{Component: comp, ID: soleID}, h.caps, sink)
		if err != nil {
			errs = multierr.Append(errs, err)
			return
		}
		res = append(res, d)
	}

	if h.caps.Has(sensorhub.OutputSerialConsole) {
		cc := h.cfg.Outputs.SerialConsole
		if cc == nil || cc.Path == "" {
			add(sensorhub.OutputSerialConsole, serial.New(os.Stdout))
		} else if s, err := serial.Open(cc.Path,
			serial.WithID(soleID),
			serial.WithBaudRate(cc.BaudRate),
			serial.WithFraming(cc.DataBits, cc.StopBits),
		); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			h.closers = append(h.closers, s)
			add(sensorhub.OutputSerialConsole, s)
		}
	}

	if dc := h.cfg.Outputs.Display; dc != nil && h.caps.Has(sensorhub.OutputDisplay) {
		d := lcd.New(h.bus, lcd.WithID(soleID), lcd.WithAddress(dc.Address), lcd.WithBacklight(*dc.Backlight))
		if err := d.Init(ctx); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			add(sensorhub.OutputDisplay, d)
		}
	}
	return res, errs
}
