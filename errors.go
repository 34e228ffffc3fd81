package sensorhub

import (
	"errors"
	"fmt"

	"github.com/mklimuk/sensorhub/scan"
)

// ErrorCode is the closed set of failures that can be reported anywhere in the system.
type ErrorCode uint8

const (
	ErrorCodeNone ErrorCode = iota
	ErrorCodeInitFailed
	ErrorCodeSerialInitFailed
	ErrorCodeDisplayInitFailed
	ErrorCodeRTCInitFailed
	ErrorCodeSensorInitFailed
	ErrorCodeInvalidInputType
	ErrorCodeSensorReadFailed
	ErrorCodeRTCReadFailed
	ErrorCodeI2CTooLong
	ErrorCodeI2CNackAddress
	ErrorCodeI2CNackData
	ErrorCodeI2CUnknown
	ErrorCodeSerialWriteFailed
	ErrorCodeDisplayWriteFailed
	ErrorCodeUnknown
)

var errorCodeNames = [...]string{
	ErrorCodeNone:               "no error",
	ErrorCodeInitFailed:         "init failed",
	ErrorCodeSerialInitFailed:   "serial init failed",
	ErrorCodeDisplayInitFailed:  "display init failed",
	ErrorCodeRTCInitFailed:      "rtc init failed",
	ErrorCodeSensorInitFailed:   "sensor init failed",
	ErrorCodeInvalidInputType:   "invalid input type",
	ErrorCodeSensorReadFailed:   "sensor read failed",
	ErrorCodeRTCReadFailed:      "rtc read failed",
	ErrorCodeI2CTooLong:         "i2c data too long",
	ErrorCodeI2CNackAddress:     "i2c address nack",
	ErrorCodeI2CNackData:        "i2c data nack",
	ErrorCodeI2CUnknown:         "i2c unknown error",
	ErrorCodeSerialWriteFailed:  "serial write failed",
	ErrorCodeDisplayWriteFailed: "display write failed",
	ErrorCodeUnknown:            "unknown error",
}

// Normalize collapses values outside of the known set onto ErrorCodeUnknown.
func (c ErrorCode) Normalize() ErrorCode {
	if int(c) >= len(errorCodeNames) {
		return ErrorCodeUnknown
	}
	return c
}

func (c ErrorCode) String() string {
	return errorCodeNames[c.Normalize()]
}

// CodeFromTransmission maps an I2C transmission result onto an error code.
func CodeFromTransmission(res scan.TransmissionResult) ErrorCode {
	switch res {
	case scan.TxSuccess:
		return ErrorCodeNone
	case scan.TxTooLong:
		return ErrorCodeI2CTooLong
	case scan.TxNackAddress:
		return ErrorCodeI2CNackAddress
	case scan.TxNackData:
		return ErrorCodeI2CNackData
	default:
		return ErrorCodeI2CUnknown
	}
}

// DeviceError binds a failure to the device that raised it.
type DeviceError struct {
	Code   ErrorCode
	Device Device
	Err    error
}

func (e DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Device, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Device, e.Code)
}

func (e DeviceError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the error code carried by err. A nil error has no code,
// errors without a DeviceError in their chain are reported as unknown.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrorCodeNone
	}
	var de DeviceError
	if errors.As(err, &de) {
		return de.Code.Normalize()
	}
	var dep *DeviceError
	if errors.As(err, &dep) && dep != nil {
		return dep.Code.Normalize()
	}
	return ErrorCodeUnknown
}
