// Package console is a serial console sink: one colored line per envelope,
// written to stdout or to a serial tty.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/jacobsa/go-serial/serial"

	"github.com/mklimuk/sensorhub"
)

var palette = map[sensorhub.IOComponent]*color.Color{
	sensorhub.InputSensors: color.New(color.FgGreen),
	sensorhub.InputRTC:     color.New(color.FgHiWhite),
	sensorhub.InputI2CScan: color.New(color.FgCyan),
	sensorhub.InputError:   color.New(color.FgRed, color.Bold),
}

var labels = map[sensorhub.IOComponent]string{
	sensorhub.InputSensors: "SNS",
	sensorhub.InputRTC:     "RTC",
	sensorhub.InputI2CScan: "I2C",
	sensorhub.InputError:   "ERR",
}

type Console struct {
	mx     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// New writes to w, typically os.Stdout.
func New(w io.Writer) *Console {
	return &Console{w: w}
}

const (
	DefaultBaudRate = 115200
	DefaultDataBits = 8
	DefaultStopBits = 1
)

// openPort is replaced in tests.
var openPort = serial.Open

type Option func(*serial.OpenOptions, *sensorhub.Device)

func WithBaudRate(baud uint) Option {
	return func(o *serial.OpenOptions, _ *sensorhub.Device) {
		o.BaudRate = baud
	}
}

// WithFraming sets data and stop bits; parity is always none.
func WithFraming(dataBits, stopBits uint) Option {
	return func(o *serial.OpenOptions, _ *sensorhub.Device) {
		o.DataBits = dataBits
		o.StopBits = stopBits
	}
}

// WithID sets the device id reported when the port cannot be opened.
func WithID(id uint8) Option {
	return func(_ *serial.OpenOptions, d *sensorhub.Device) {
		d.ID = id
	}
}

// Open configures the serial port at path (8N1 at 115200 baud unless told
// otherwise) and writes to it.
func Open(path string, opts ...Option) (*Console, error) {
	options := serial.OpenOptions{
		PortName:        path,
		BaudRate:        DefaultBaudRate,
		DataBits:        DefaultDataBits,
		StopBits:        DefaultStopBits,
		ParityMode:      serial.PARITY_NONE,
		MinimumReadSize: 1,
	}
	dev := sensorhub.Device{Component: sensorhub.OutputSerialConsole}
	for _, opt := range opts {
		opt(&options, &dev)
	}
	port, err := openPort(options)
	if err != nil {
		return nil, sensorhub.DeviceError{
			Code:   sensorhub.ErrorCodeSerialInitFailed,
			Device: dev,
			Err:    fmt.Errorf("console: could not open %s: %w", path, err),
		}
	}
	return &Console{w: port, closer: port}, nil
}

func (c *Console) Render(ctx context.Context, kind sensorhub.IOComponent, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	label, ok := labels[kind]
	if !ok {
		return fmt.Errorf("console: unsupported kind %s", kind)
	}
	c.mx.Lock()
	defer c.mx.Unlock()
	_, err := fmt.Fprintf(c.w, "%s %s\n", palette[kind].Sprint(label), text)
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}

func (c *Console) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
