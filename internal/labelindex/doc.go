// Package labelindex reads and writes the label scan store, the secondary
// index that maps labels to the nodes carrying them.
//
// The node id space is split into ranges of a fixed size. For every range
// the index stores one roaring bitmap of node offsets per label, so that
// the labels of one node within a loaded range can be answered in O(1).
//
// # File Layout
//
//	header    magic "GCLS" (4) | version (4) | range size (4) | compression (1) | reserved (3)
//	blocks    one compression block per range
//	directory range id (8) | offset (8) | length (4), per range
//	footer    directory offset (8) | range count (4) | crc32c of directory (4)
//
// A block is uncompressed size (4) | compressed size (4, 0 = raw) | data.
// The uncompressed range payload is label count (4) followed by, per label,
// label id (8) | bitmap length (4) | portable roaring bitmap.
package labelindex
