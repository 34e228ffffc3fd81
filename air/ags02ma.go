// Package air drives air quality sensors.
package air

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/internal/crc8"
)

// AGS02MADefaultAddress is the 7-bit address; the datasheet lists 0x34/0x35,
// which are the 8-bit write/read forms.
const AGS02MADefaultAddress = 0x1A

const (
	regTVOC       byte = 0x00
	regCalibrate  byte = 0x01
	regVersion    byte = 0x11
	regResistance byte = 0x20
)

// status byte bit 0: 0 = ready, 1 = not ready or pre-heating
const statusNotReady = 0x01

// resistance is reported in units of 100 Ohm
const resistanceUnit = 100

var ErrNotReady = errors.New("ags02ma: data not ready or sensor in pre-heat stage")

// TVOCMode selects how the TVOC register is read.
type TVOCMode byte

const (
	// TVOCModeRegisterWrite selects register 0x00 before every read.
	TVOCModeRegisterWrite TVOCMode = iota
	// TVOCModeDirectRead reads without selecting the register (master direct read).
	TVOCModeDirectRead
)

// AGS02MA represents Aosong AGS02MA TVOC sensor. Values are in ppb.
// The sensor needs a slow bus clock (<= 30 kHz) and at least 1.5s between
// reads; reads issued earlier wait for the gap to pass.
type AGS02MA struct {
	mx             sync.Mutex
	transport      sensorhub.I2CBus
	addr           byte
	mode           TVOCMode
	clock          clock.Clock
	readGap        time.Duration
	txDelay        time.Duration
	configureDelay time.Duration
	readyAt        time.Time
}

var _ sensorhub.Sensor = &AGS02MA{}

type Option func(*AGS02MA)

func WithClock(c clock.Clock) Option {
	return func(s *AGS02MA) {
		s.clock = c
	}
}

func WithTVOCMode(mode TVOCMode) Option {
	return func(s *AGS02MA) {
		s.mode = mode
	}
}

// WithReadGap sets the minimum time between two reads.
func WithReadGap(d time.Duration) Option {
	return func(s *AGS02MA) {
		s.readGap = d
	}
}

// WithTxDelay sets the wait between selecting a register and reading it.
func WithTxDelay(d time.Duration) Option {
	return func(s *AGS02MA) {
		s.txDelay = d
	}
}

// WithConfigureDelay sets the settle time after Configure.
func WithConfigureDelay(d time.Duration) Option {
	return func(s *AGS02MA) {
		s.configureDelay = d
	}
}

func NewAGS02MA(transport sensorhub.I2CBus, opts ...Option) *AGS02MA {
	s := &AGS02MA{
		transport:      transport,
		addr:           AGS02MADefaultAddress,
		clock:          clock.New(),
		readGap:        1500 * time.Millisecond,
		txDelay:        100 * time.Millisecond,
		configureDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AGS02MA) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := s.clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Configure puts the sensor in periodic measurement mode. The next
// operation waits for the sensor to settle.
func (s *AGS02MA) Configure(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.sleep(ctx, s.readyAt.Sub(s.clock.Now())); err != nil {
		return err
	}
	err := s.transport.WriteToAddr(ctx, s.addr, []byte{regTVOC, 0x00, 0xFF, 0x00, 0xFF, 0x30})
	if err != nil {
		return fmt.Errorf("ags02ma: configuration write failed: %w", err)
	}
	s.readyAt = s.clock.Now().Add(s.configureDelay)
	return nil
}

// transfer reads the 4 data bytes of reg after checking the CRC. When
// selectReg is false the register pointer is left as it is.
func (s *AGS02MA) transfer(ctx context.Context, reg byte, selectReg bool) ([]byte, error) {
	if err := s.sleep(ctx, s.readyAt.Sub(s.clock.Now())); err != nil {
		return nil, err
	}
	if selectReg {
		if err := s.transport.WriteToAddr(ctx, s.addr, []byte{reg}); err != nil {
			return nil, fmt.Errorf("ags02ma: write reg %#x failed: %w", reg, err)
		}
		if err := s.sleep(ctx, s.txDelay); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, 5)
	err := s.transport.ReadFromAddr(ctx, s.addr, buf)
	s.readyAt = s.clock.Now().Add(s.readGap)
	if err != nil {
		return nil, fmt.Errorf("ags02ma: read failed: %w", err)
	}
	if !crc8.Valid(buf) {
		return nil, fmt.Errorf("ags02ma: crc mismatch: expected %#x, got %#x", buf[4], crc8.Checksum(buf[:4]))
	}
	return buf[:4], nil
}

func (s *AGS02MA) read(ctx context.Context, reg byte) ([]byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.transfer(ctx, reg, true)
}

// GetTVOC reads the TVOC concentration in ppb.
func (s *AGS02MA) GetTVOC(ctx context.Context) (uint32, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	data, err := s.transfer(ctx, regTVOC, s.mode == TVOCModeRegisterWrite)
	if err != nil {
		return 0, err
	}
	if data[0]&statusNotReady != 0 {
		return 0, ErrNotReady
	}
	return uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]), nil
}

func (s *AGS02MA) Version(ctx context.Context) (int, error) {
	data, err := s.read(ctx, regVersion)
	if err != nil {
		return 0, err
	}
	return int(data[3]), nil
}

// ReadResistance returns the resistance of the sensing element in Ohm.
func (s *AGS02MA) ReadResistance(ctx context.Context) (uint32, error) {
	data, err := s.read(ctx, regResistance)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(data) * resistanceUnit, nil
}

// Calibrate runs the zero-point calibration. The sensor must be in clean air.
func (s *AGS02MA) Calibrate(ctx context.Context) error {
	_, err := s.read(ctx, regCalibrate)
	if err != nil {
		return fmt.Errorf("ags02ma: calibration failed: %w", err)
	}
	return nil
}

func (s *AGS02MA) Read(ctx context.Context) (sensorhub.SensorReading, error) {
	ppb, err := s.GetTVOC(ctx)
	if err != nil {
		return sensorhub.SensorReading{}, err
	}
	return sensorhub.ValueReading(float32(ppb)), nil
}

// Resistance exposes the sensing element resistance in kOhm.
func (s *AGS02MA) Resistance() sensorhub.Sensor {
	return sensorhub.ValueSensor(func(ctx context.Context) (float32, error) {
		r, err := s.ReadResistance(ctx)
		return float32(r) / 1000, err
	})
}
