// Package adapter provides USB to I2C bridges usable as a sensorhub bus.
package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/scan"
	"github.com/mklimuk/sensorhub/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

const reportSize = 64

// HID commands
const (
	cmdStatusSetParams  = 0x10
	cmdI2CWriteData     = 0x90
	cmdI2CReadData      = 0x91
	cmdI2CGetData       = 0x40
	cmdCancelTransfer   = 0x10
	respGetDataFailed   = 0x41
	respEngineBusy      = 0x01
	i2cStateAddressNack = 0x25
)

var (
	ErrDeviceNotFound     = errors.New("MCP2221 device not found")
	ErrCommandFailed      = errors.New("command failed")
	ErrCommandUnsupported = errors.New("unsupported command")
)

var _ sensorhub.ScanBus = &MCP2221{}

// MCP2221 is a Microchip MCP2221(A) USB-HID I2C bridge.
type MCP2221 struct {
	mx           sync.Mutex
	index        int
	request      []byte
	response     []byte
	responseWait time.Duration
	// open returns a handle to the HID device for one exchange
	open func() (io.ReadWriteCloser, error)
}

type MCP2221Status struct {
	I2CState               int    `yaml:"i2c_state"`
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type MCP2221Option func(*MCP2221)

// WithDeviceIndex selects one of several connected bridges.
func WithDeviceIndex(index int) MCP2221Option {
	return func(d *MCP2221) {
		d.index = index
	}
}

func WithResponseWait(wait time.Duration) MCP2221Option {
	return func(d *MCP2221) {
		d.responseWait = wait
	}
}

func NewMCP2221(opts ...MCP2221Option) *MCP2221 {
	d := &MCP2221{
		index:        -1,
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: 50 * time.Millisecond,
	}
	d.open = d.openHID
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init checks that the bridge is connected and answers status requests.
func (d *MCP2221) Init(ctx context.Context) error {
	_, err := d.Status(ctx)
	if err != nil {
		return fmt.Errorf("mcp2221 init: %w", err)
	}
	return nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.writeToAddr(ctx, address, buffer)
}

func (d *MCP2221) writeToAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) > reportSize-4 {
		return fmt.Errorf("write to %x: %w", address, scan.ErrDataTooLong)
	}
	d.resetBuffers()
	d.request[0] = cmdI2CWriteData
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	if d.response[1] == respEngineBusy {
		slog.Debug("mcp2221 adapter busy", "address", fmt.Sprintf("%#x", address))
		return sensorhub.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CReadData
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	d.resetBuffers()
	d.request[0] = cmdI2CGetData
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == respGetDataFailed {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

// Probe sends an empty write to address and checks the engine state for an
// address NACK. The bus is released afterwards so the next probe starts clean.
func (d *MCP2221) Probe(ctx context.Context, address byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.writeToAddr(ctx, address, nil)
	if err != nil {
		_, _ = d.releaseBus(ctx)
		return err
	}
	time.Sleep(d.responseWait)
	status, err := d.status(ctx)
	if err != nil {
		return fmt.Errorf("probe %x: %w", address, err)
	}
	if status.I2CState == 0 {
		return nil
	}
	_, _ = d.releaseBus(ctx)
	if status.I2CState == i2cStateAddressNack {
		return fmt.Errorf("probe %x: %w", address, scan.ErrAddressNack)
	}
	return &scan.ProbeError{Address: address, Result: scan.TxUnknown, Err: fmt.Errorf("i2c engine state %#x", status.I2CState)}
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.status(ctx)
}

func (d *MCP2221) status(ctx context.Context) (*MCP2221Status, error) {
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		8: I2C communication state
		9-10: requested I2C transfer length (LE)
		11-12: already transferred number of bytes (LE)
		13: internal I2C data buffer counter
		14: current I2C communication speed divider
		15: current I2C timeout value
		16-17: I2C address being used
		25: I2C read pending
	*/
	return &MCP2221Status{
		I2CState:               int(buffer[8]),
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		ReadPending:            int(buffer[25]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
	}
}

func (d *MCP2221) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	_, err := d.releaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.releaseBus(ctx)
}

func (d *MCP2221) releaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	d.request[2] = cmdCancelTransfer
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("cancel transfer request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func (d *MCP2221) openHID() (io.ReadWriteCloser, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	switch {
	case len(devs) == 0:
		return nil, ErrDeviceNotFound
	case d.index < 0 && len(devs) > 1:
		return nil, fmt.Errorf("ambiguous device identification: %d bridges connected", len(devs))
	case d.index >= len(devs):
		return nil, fmt.Errorf("no device with index %d", d.index)
	}
	info := devs[0]
	if d.index > 0 {
		info = devs[d.index]
	}
	dev, err := info.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

func (d *MCP2221) send(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dev, err := d.open()
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Warn("could not close mcp2221 handle", "error", err)
		}
	}()
	verbose := snsctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("sending message to adapter", "request", hex.EncodeToString(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	time.Sleep(d.responseWait)
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.Debug("read message from adapter", "response", hex.EncodeToString(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
