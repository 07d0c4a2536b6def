package model

import (
	"encoding/binary"
	"fmt"
	"math"
)

// NodeID is the id of a node record.
type NodeID uint64

// LabelID is the token id of a node label.
type LabelID uint64

// RecordID is the id of a dynamic record.
type RecordID uint64

// NoNextRecord terminates a dynamic record chain.
const NoNextRecord RecordID = math.MaxUint64

// NoNextRelationship and NoNextProperty mark empty node record pointers.
const (
	NoNextRelationship uint32 = math.MaxUint32
	NoNextProperty     uint32 = math.MaxUint32
)

// NodeRecord is a snapshot of one node record.
type NodeRecord struct {
	ID       NodeID
	InUse    bool
	NextRel  uint32
	NextProp uint32
	// LabelField is the 40-bit encoded labels field (see internal/labels).
	LabelField uint64
}

// String returns a string representation of the NodeRecord.
func (n *NodeRecord) String() string {
	return fmt.Sprintf("Node[%d,used=%t,labels=0x%010x]", n.ID, n.InUse, n.LabelField)
}

// DynamicRecord is a snapshot of one block of a dynamic record chain.
type DynamicRecord struct {
	ID    RecordID
	InUse bool
	Next  RecordID
	// Data is the payload fragment stored in this block.
	Data []byte
}

// HasNext reports whether the chain continues after this record.
func (d *DynamicRecord) HasNext() bool {
	return d.Next != NoNextRecord
}

// Labels decodes the payload fragment as little-endian label ids.
// Trailing bytes that do not form a full id are ignored.
func (d *DynamicRecord) Labels() []LabelID {
	n := len(d.Data) / 8
	labels := make([]LabelID, n)
	for i := 0; i < n; i++ {
		labels[i] = LabelID(binary.LittleEndian.Uint64(d.Data[i*8:]))
	}
	return labels
}

// String returns a string representation of the DynamicRecord.
func (d *DynamicRecord) String() string {
	next := "end"
	if d.HasNext() {
		next = fmt.Sprintf("%d", d.Next)
	}
	return fmt.Sprintf("DynamicRecord[%d,used=%t,next=%s,len=%d]", d.ID, d.InUse, next, len(d.Data))
}

// EncodeLabels encodes label ids as a payload fragment.
func EncodeLabels(labels []LabelID) []byte {
	buf := make([]byte, len(labels)*8)
	for i, l := range labels {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(l))
	}
	return buf
}
