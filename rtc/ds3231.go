// Package rtc provides real-time clock sources for the RTC input.
package rtc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/sensorhub"
)

const DS3231Address = 0x68

const (
	regSeconds = 0x00
	regStatus  = 0x0F

	timeRegisters = 7

	statusOscillatorStopped = 0x80
	hour12Mode              = 0x40
	hourPM                  = 0x20
	monthCentury            = 0x80
)

var ErrOscillatorStopped = errors.New("oscillator stopped, time is not reliable")

// DS3231 represents Maxim DS3231 RTC
// See: https://www.analog.com/media/en/technical-documentation/data-sheets/DS3231.pdf
type DS3231 struct {
	transport sensorhub.I2CBus
	address   byte
	id        uint8
}

var _ sensorhub.Clock = &DS3231{}

type DS3231Option func(*DS3231)

// WithDS3231ID sets the RTC input id reported on init failure.
func WithDS3231ID(id uint8) DS3231Option {
	return func(d *DS3231) {
		d.id = id
	}
}

func NewDS3231(trans sensorhub.I2CBus, opts ...DS3231Option) *DS3231 {
	d := &DS3231{transport: trans, address: DS3231Address}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init checks the clock answers and that its oscillator kept running.
func (d *DS3231) Init(ctx context.Context) error {
	buf := make([]byte, 1)
	err := d.read(ctx, regStatus, buf)
	if err != nil {
		return sensorhub.DeviceError{Code: sensorhub.ErrorCodeRTCInitFailed, Device: sensorhub.Device{Component: sensorhub.InputRTC, ID: d.id}, Err: err}
	}
	if buf[0]&statusOscillatorStopped != 0 {
		slog.Warn("ds3231 oscillator stop flag set, set the time to clear it")
	}
	return nil
}

func (d *DS3231) read(ctx context.Context, reg byte, buf []byte) error {
	err := d.transport.WriteToAddr(ctx, d.address, []byte{reg})
	if err != nil {
		return fmt.Errorf("ds3231: could not set register pointer: %w", err)
	}
	err = d.transport.ReadFromAddr(ctx, d.address, buf)
	if err != nil {
		return fmt.Errorf("ds3231: could not read registers: %w", err)
	}
	return nil
}

// Now reads the current time. The century bit of the month register moves
// the year from 20xx to 21xx.
func (d *DS3231) Now(ctx context.Context) (sensorhub.RTCReading, error) {
	buf := make([]byte, timeRegisters)
	if err := d.read(ctx, regSeconds, buf); err != nil {
		return sensorhub.RTCReading{}, err
	}
	r := sensorhub.RTCReading{
		Secs:  fromBCD(buf[0] & 0x7F),
		Mins:  fromBCD(buf[1] & 0x7F),
		Hour:  decodeHour(buf[2]),
		Day:   fromBCD(buf[4] & 0x3F),
		Month: fromBCD(buf[5] & 0x1F),
		Year:  2000 + uint16(fromBCD(buf[6])),
	}
	if buf[5]&monthCentury != 0 {
		r.Year += 100
	}
	return r, nil
}

// Set writes t to the clock in 24 hour mode and clears the oscillator stop flag.
func (d *DS3231) Set(ctx context.Context, t time.Time) error {
	if t.Year() < 2000 || t.Year() > 2199 {
		return fmt.Errorf("ds3231: year %d out of range", t.Year())
	}
	year := t.Year() - 2000
	month := toBCD(uint8(t.Month()))
	if year >= 100 {
		year -= 100
		month |= monthCentury
	}
	out := []byte{
		regSeconds,
		toBCD(uint8(t.Second())),
		toBCD(uint8(t.Minute())),
		toBCD(uint8(t.Hour())),
		uint8(t.Weekday()) + 1,
		toBCD(uint8(t.Day())),
		month,
		toBCD(uint8(year)),
	}
	if err := d.transport.WriteToAddr(ctx, d.address, out); err != nil {
		return fmt.Errorf("ds3231: could not write time: %w", err)
	}
	if err := d.transport.WriteToAddr(ctx, d.address, []byte{regStatus, 0x00}); err != nil {
		return fmt.Errorf("ds3231: could not clear status: %w", err)
	}
	return nil
}

func decodeHour(v byte) uint8 {
	if v&hour12Mode == 0 {
		return fromBCD(v & 0x3F)
	}
	h := fromBCD(v & 0x1F)
	if h == 12 {
		h = 0
	}
	if v&hourPM != 0 {
		h += 12
	}
	return h
}

func fromBCD(v byte) uint8 {
	return (v>>4)*10 + v&0x0F
}

func toBCD(v uint8) byte {
	return (v/10)<<4 | v%10
}
