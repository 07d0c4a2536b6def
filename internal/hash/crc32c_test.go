package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C_KnownValue(t *testing.T) {
	// Standard check value for CRC-32C.
	assert.Equal(t, uint32(0xE3069283), CRC32C([]byte("123456789")))
}

func TestSealVerify(t *testing.T) {
	buf := make([]byte, 16)
	copy(buf, "GCND\x01\x00\x00\x00\x10\x00\x00\x00")
	Seal(buf)
	assert.True(t, Verify(buf))

	buf[5] ^= 0xFF
	assert.False(t, Verify(buf))
	assert.False(t, Verify([]byte{1, 2}))
}
