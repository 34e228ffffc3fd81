// Package crc8 computes the CRC-8 used by Sensirion style sensors
// (SHTC3, AGS02MA): polynomial 0x31 (x8 + x5 + x4 + 1), init 0xFF, no final XOR.
package crc8

func Checksum(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for range 8 {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Valid reports whether the byte following data in frame is its checksum.
func Valid(frame []byte) bool {
	if len(frame) < 2 {
		return false
	}
	n := len(frame) - 1
	return Checksum(frame[:n]) == frame[n]
}
