package sensorhub

// InputData is what one fetch produces: Data to forward to the outputs and,
// independently, the status of the fetch itself. Data may be stale when Code
// reports a failure, and a fresh Data does not imply Code is ErrorCodeNone.
type InputData struct {
	Data Data
	Code ErrorCode
	// Err is the underlying cause, if any; kept for logging.
	Err error
}

// Failed reports whether the fetch itself failed.
func (r InputData) Failed() bool {
	return r.Code != ErrorCodeNone
}

// Fault builds the error envelope for the error handler. dev identifies the
// input that produced r; it is needed because stale or empty Data may not
// carry a usable identity.
func (r InputData) Fault(dev Device) DeviceError {
	return DeviceError{Code: r.Code.Normalize(), Device: dev, Err: r.Err}
}
