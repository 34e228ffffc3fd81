// Package scan enumerates devices present on an I2C bus and iterates over
// the results without touching the bus again.
package scan

import (
	"iter"
	"math/bits"
)

// MaxDevices is the number of addresses usable with 7-bit addressing (1..127).
const MaxDevices = 127

const bitsInByte = 8

// BitmapSize is the number of bytes needed to hold one bit per address.
const BitmapSize = (MaxDevices + bitsInByte - 1) / bitsInByte

// ModeScanAll selects a full bus scan. 0 is never a valid device address.
const ModeScanAll byte = 0

// Bitmap holds device presence, bit addr-1 standing for address addr.
type Bitmap [BitmapSize]byte

func validAddress(addr byte) bool {
	return addr >= 1 && addr <= MaxDevices
}

// Set marks addr as present. Addresses outside 1..127 are ignored.
func (b *Bitmap) Set(addr byte) {
	if !validAddress(addr) {
		return
	}
	pos := addr - 1
	b[pos/bitsInByte] |= 1 << (pos % bitsInByte)
}

// Has reports whether addr is marked as present.
func (b *Bitmap) Has(addr byte) bool {
	if !validAddress(addr) {
		return false
	}
	pos := addr - 1
	return b[pos/bitsInByte]&(1<<(pos%bitsInByte)) != 0
}

// Count returns the number of present devices.
func (b *Bitmap) Count() int {
	n := 0
	for _, v := range b {
		n += bits.OnesCount8(v)
	}
	return n
}

// Empty reports whether no device is marked as present.
func (b *Bitmap) Empty() bool {
	return *b == Bitmap{}
}

// next returns the first present address strictly greater than after.
func (b *Bitmap) next(after byte) (byte, bool) {
	for addr := int(after) + 1; addr <= MaxDevices; addr++ {
		pos := addr - 1
		if b[pos/bitsInByte] == 0 {
			// skip the rest of an empty byte
			addr = (pos/bitsInByte+1)*bitsInByte
			continue
		}
		if b[pos/bitsInByte]&(1<<(pos%bitsInByte)) != 0 {
			return byte(addr), true
		}
	}
	return 0, false
}

// All yields present addresses in ascending order.
func (b *Bitmap) All() iter.Seq[byte] {
	return func(yield func(byte) bool) {
		var addr byte
		for {
			next, ok := b.next(addr)
			if !ok || !yield(next) {
				return
			}
			addr = next
		}
	}
}
