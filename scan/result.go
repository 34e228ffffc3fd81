package scan

import (
	"errors"
	"fmt"
	"strings"
)

// TransmissionResult is the outcome of a single addressed I2C transfer.
type TransmissionResult uint8

// Transmission result codes
const (
	// TxSuccess means the device acknowledged its address
	TxSuccess TransmissionResult = 0
	// TxTooLong means the data did not fit in the transmit buffer
	TxTooLong TransmissionResult = 1
	// TxNackAddress means NACK was received on transmit of the address
	TxNackAddress TransmissionResult = 2
	// TxNackData means NACK was received on transmit of the data
	TxNackData TransmissionResult = 3
	// TxUnknown covers arbitration loss, bus faults and anything else
	TxUnknown TransmissionResult = 4
)

var (
	ErrDataTooLong = errors.New("i2c: data too long for transmit buffer")
	ErrAddressNack = errors.New("i2c: address not acknowledged")
	ErrDataNack    = errors.New("i2c: data not acknowledged")
)

func (r TransmissionResult) String() string {
	switch r {
	case TxSuccess:
		return "success"
	case TxTooLong:
		return "data too long"
	case TxNackAddress:
		return "address NACK"
	case TxNackData:
		return "data NACK"
	default:
		return "unknown error"
	}
}

// FromRaw maps a raw transport status byte onto a result. Codes outside
// the known range are reported as TxUnknown.
func FromRaw(code uint8) TransmissionResult {
	if code > uint8(TxUnknown) {
		return TxUnknown
	}
	return TransmissionResult(code)
}

// Linux i2c-dev reports a missing device as ENXIO or EREMOTEIO depending on
// the bus driver; periph and gobot do not always wrap the errno.
var nackMessages = []string{
	"no such device or address",
	"remote i/o error",
}

// Classify maps a transport error onto exactly one result.
func Classify(err error) TransmissionResult {
	switch {
	case err == nil:
		return TxSuccess
	case errors.Is(err, ErrDataTooLong):
		return TxTooLong
	case errors.Is(err, ErrAddressNack):
		return TxNackAddress
	case errors.Is(err, ErrDataNack):
		return TxNackData
	}
	var probeErr *ProbeError
	if errors.As(err, &probeErr) {
		return probeErr.Result
	}
	msg := strings.ToLower(err.Error())
	for _, m := range nackMessages {
		if strings.Contains(msg, m) {
			return TxNackAddress
		}
	}
	return TxUnknown
}

// ProbeError reports a non-successful probe of one address.
type ProbeError struct {
	Address byte
	Result  TransmissionResult
	Err     error
}

func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe 0x%02X: %s: %v", e.Address, e.Result, e.Err)
	}
	return fmt.Sprintf("probe 0x%02X: %s", e.Address, e.Result)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
