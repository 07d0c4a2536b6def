package hash

import (
	"encoding/binary"
	"hash/crc32"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// Seal writes the CRC32C of buf[:len(buf)-4] into the last four bytes of buf.
func Seal(buf []byte) {
	n := len(buf) - 4
	binary.LittleEndian.PutUint32(buf[n:], CRC32C(buf[:n]))
}

// Verify reports whether the last four bytes of buf hold the CRC32C of the rest.
func Verify(buf []byte) bool {
	if len(buf) < 4 {
		return false
	}
	n := len(buf) - 4
	return binary.LittleEndian.Uint32(buf[n:]) == CRC32C(buf[:n])
}
