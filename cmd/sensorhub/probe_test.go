package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddr(t *testing.T) {
	for in, expected := range map[string]byte{"0x50": 0x50, "80": 80, "0o17": 0o17, "127": 127} {
		addr, err := parseAddr(in)
		require.NoError(t, err, in)
		assert.Equal(t, expected, addr)
	}
	for _, in := range []string{"", "0", "0x80", "256", "x"} {
		_, err := parseAddr(in)
		assert.Error(t, err, in)
	}
}

func TestHexAddr(t *testing.T) {
	assert.Equal(t, "0x08", hexAddr(8))
	assert.Equal(t, "0x7F", hexAddr(127))
}
