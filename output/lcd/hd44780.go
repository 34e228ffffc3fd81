// Package lcd drives HD44780 character displays through a PCF8574 I2C backpack.
package lcd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mklimuk/sensorhub"
)

const PCF8574DefaultAddress = 0x27

const (
	Columns = 16
	Rows    = 2
)

// PCF8574 pin mapping of the common backpacks
const (
	pinRS        = 0x01
	pinEnable    = 0x04
	pinBacklight = 0x08
)

// HD44780 instructions
const (
	cmdClear        = 0x01
	cmdEntryMode    = 0x06 // increment, no shift
	cmdDisplayOn    = 0x0C // display on, cursor off, blink off
	cmdFunction4Bit = 0x28 // 4-bit bus, 2 lines, 5x8 font
	cmdSetDDRAM     = 0x80
)

var rowOffsets = [Rows]byte{0x00, 0x40}

// HD44780 renders text on a 16x2 display. The source label goes on the first
// row and the reading on the second; both are cut to the display width.
type HD44780 struct {
	mx        sync.Mutex
	transport sensorhub.I2CBus
	address   byte
	id        uint8
	backlight byte
	sleep     func(time.Duration)
}

type Option func(*HD44780)

func WithAddress(address byte) Option {
	return func(d *HD44780) {
		d.address = address
	}
}

// WithID sets the device id reported on init failure.
func WithID(id uint8) Option {
	return func(d *HD44780) {
		d.id = id
	}
}

func WithBacklight(on bool) Option {
	return func(d *HD44780) {
		d.backlight = 0
		if on {
			d.backlight = pinBacklight
		}
	}
}

func New(bus sensorhub.I2CBus, opts ...Option) *HD44780 {
	d := &HD44780{
		transport: bus,
		address:   PCF8574DefaultAddress,
		backlight: pinBacklight,
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *HD44780) initFailed(err error) error {
	return sensorhub.DeviceError{
		Code:   sensorhub.ErrorCodeDisplayInitFailed,
		Device: sensorhub.Device{Component: sensorhub.OutputDisplay, ID: d.id},
		Err:    err,
	}
}

// Init runs the 4-bit initialization sequence and clears the display.
func (d *HD44780) Init(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	// power-on wait
	d.sleep(50 * time.Millisecond)
	// three times 8-bit mode, then switch to 4-bit, each as a lone high nibble
	for _, n := range []byte{0x30, 0x30, 0x30, 0x20} {
		if err := d.writeNibble(ctx, n, 0); err != nil {
			return d.initFailed(err)
		}
		d.sleep(5 * time.Millisecond)
	}
	for _, cmd := range []byte{cmdFunction4Bit, cmdDisplayOn, cmdClear, cmdEntryMode} {
		if err := d.command(ctx, cmd); err != nil {
			return d.initFailed(err)
		}
	}
	return nil
}

func (d *HD44780) Render(ctx context.Context, kind sensorhub.IOComponent, text string) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	for row, line := range Lines(text) {
		if err := d.command(ctx, cmdSetDDRAM|rowOffsets[row]); err != nil {
			return fmt.Errorf("hd44780: %w", err)
		}
		for i := 0; i < len(line); i++ {
			if err := d.write(ctx, line[i], pinRS); err != nil {
				return fmt.Errorf("hd44780: %w", err)
			}
		}
	}
	return nil
}

// Lines splits text into display rows, padded with spaces to the display width.
func Lines(text string) [Rows]string {
	head, tail, found := strings.Cut(text, ": ")
	if !found {
		head, tail = text, ""
	}
	return [Rows]string{fit(head), fit(tail)}
}

func fit(s string) string {
	b := make([]byte, 0, Columns)
	for _, r := range s {
		if len(b) == Columns {
			break
		}
		// the character ROM only covers ASCII
		if r < 0x20 || r > 0x7E {
			r = '?'
		}
		b = append(b, byte(r))
	}
	return string(b) + strings.Repeat(" ", Columns-len(b))
}

func (d *HD44780) command(ctx context.Context, cmd byte) error {
	err := d.write(ctx, cmd, 0)
	if cmd == cmdClear {
		d.sleep(2 * time.Millisecond)
	}
	return err
}

// write sends one byte as two nibbles, high nibble first.
func (d *HD44780) write(ctx context.Context, value, mode byte) error {
	high := value & 0xF0
	low := value << 4
	ctl := mode | d.backlight
	return d.transport.WriteToAddr(ctx, d.address, []byte{
		high | ctl | pinEnable, high | ctl,
		low | ctl | pinEnable, low | ctl,
	})
}

func (d *HD44780) writeNibble(ctx context.Context, nibble, mode byte) error {
	ctl := mode | d.backlight
	return d.transport.WriteToAddr(ctx, d.address, []byte{nibble | ctl | pinEnable, nibble | ctl})
}
