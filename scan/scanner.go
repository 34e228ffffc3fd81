package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var ErrInvalidAddress = errors.New("scan: address outside of 7-bit range")

// Prober performs a single addressed transfer and reports whether the device answered.
type Prober interface {
	Probe(ctx context.Context, address byte) error
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, address byte) error

func (f ProberFunc) Probe(ctx context.Context, address byte) error {
	return f(ctx, address)
}

// Scanner drives a Prober over the bus.
type Scanner struct {
	prober Prober
}

func NewScanner(p Prober) *Scanner {
	return &Scanner{prober: p}
}

// Scan runs in the mode selected by mode: ModeScanAll probes every address
// 1..127, any other value probes that single address.
//
// In scan-all mode a device is present only when the probe succeeded. An
// address NACK simply means nothing is there; any other failure is remembered
// and the first one is returned once the sweep is complete. Context
// cancellation aborts the sweep.
func (s *Scanner) Scan(ctx context.Context, mode byte) (Reading, error) {
	reading := Reading{DeviceAddress: mode}
	if mode == ModeScanAll {
		return s.scanAll(ctx, reading)
	}
	if !validAddress(mode) {
		return reading, fmt.Errorf("%w: 0x%02X", ErrInvalidAddress, mode)
	}
	err := s.prober.Probe(ctx, mode)
	reading.SingleDeviceStatus = Classify(err)
	if reading.SingleDeviceStatus != TxSuccess {
		return reading, &ProbeError{Address: mode, Result: reading.SingleDeviceStatus, Err: err}
	}
	return reading, nil
}

func (s *Scanner) scanAll(ctx context.Context, reading Reading) (Reading, error) {
	var fault error
	for addr := byte(1); addr <= MaxDevices; addr++ {
		if err := ctx.Err(); err != nil {
			return reading, fmt.Errorf("scan aborted at 0x%02X: %w", addr, err)
		}
		err := s.prober.Probe(ctx, addr)
		res := Classify(err)
		switch res {
		case TxSuccess:
			reading.Addresses.Set(addr)
		case TxNackAddress:
		default:
			slog.Debug("i2c probe failed", "address", fmt.Sprintf("0x%02X", addr), "result", res, "error", err)
			if fault == nil {
				fault = &ProbeError{Address: addr, Result: res, Err: err}
			}
		}
	}
	return reading, fault
}
