// Package store reads node records and dynamic label records from store
// files and exposes them to checkers as deferred record references.
//
// # File Layout
//
// Every store file starts with a 16 byte header followed by fixed-size
// records; record id N lives at offset 16 + N*recordSize.
//
//	Header:         magic (4) | version (4) | record size (4) | crc32c (4)
//	Node record:    flags (1) | next rel (4) | next prop (4) | labels (5) | reserved (2)
//	Dynamic record: flags (1) | length (2) | reserved (1) | next (8) | payload (blockSize)
//
// Reads never fail for ids that are past the end of a file or not in use:
// such records are returned with InUse == false. Errors are reserved for
// I/O failures and unreadable headers.
package store
