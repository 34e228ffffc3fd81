package scan

// Mode tells which half of a Reading carries the result.
type Mode uint8

const (
	ModeAll Mode = iota
	ModeProbe
)

func (m Mode) String() string {
	if m == ModeAll {
		return "scan all"
	}
	return "probe"
}

// Reading is the result of one scan. In scan-all mode (DeviceAddress == 0)
// Addresses is populated; in probe mode (DeviceAddress 1..127) only
// SingleDeviceStatus is.
//
// Reading also carries a cursor over Addresses. The cursor belongs to the
// Reading value: copies iterate independently.
type Reading struct {
	Addresses          Bitmap
	SingleDeviceStatus TransmissionResult
	DeviceAddress      byte

	current byte
}

// Mode reports the scan mode selected by DeviceAddress.
func (r *Reading) Mode() Mode {
	if r.DeviceAddress == ModeScanAll {
		return ModeAll
	}
	return ModeProbe
}

// Current returns the address under the cursor, 0 when the cursor is unset.
func (r *Reading) Current() byte {
	return r.current
}

// Next advances the cursor to the next present address after the current one.
// When no further address is present it returns false and the cursor stays
// on the last address found, so repeated calls keep reporting exhaustion.
func (r *Reading) Next() (byte, bool) {
	addr, ok := r.Addresses.next(r.current)
	if !ok {
		return r.current, false
	}
	r.current = addr
	return addr, true
}

// Rewind resets the cursor so that the next call to Next starts from address 1.
func (r *Reading) Rewind() {
	r.current = 0
}
