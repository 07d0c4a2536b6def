// Package hash provides the CRC32-Castagnoli checksum used by graphcheck
// file formats.
//
// Store headers and the label index directory carry a CRC32C so that a
// truncated or overwritten file is rejected before any record is
// interpreted. Go's crc32 package uses SSE4.2 / ARM CRC instructions when
// available.
//
//	checksum := hash.CRC32C(data)
package hash
