package sensorhub

import (
	"context"
	"errors"
)

var ErrBusBusy = errors.New("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is the transport shared by every I2C device driver.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// ScanBus is a transport which can also tell whether a device answers on an address.
type ScanBus interface {
	I2CBus
	Probe(ctx context.Context, address byte) error
}
