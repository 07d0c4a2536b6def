package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/graphcheck/internal/hash"
	"github.com/hupe1980/graphcheck/internal/labels"
	"github.com/hupe1980/graphcheck/model"
)

const (
	// NodeStoreName is the blob name of the node store.
	NodeStoreName = "neostore.nodestore.db"
	// NodeLabelStoreName is the blob name of the dynamic node label store.
	NodeLabelStoreName = "neostore.nodestore.db.labels"

	// HeaderSize is the size of every store file header.
	HeaderSize = 16
	// NodeRecordSize is the size of one node record.
	NodeRecordSize = 16
	// DynamicHeaderSize is the size of the fixed part of a dynamic record.
	DynamicHeaderSize = 12
	// DefaultBlockSize is the default payload size of a dynamic record.
	DefaultBlockSize = 64

	formatVersion = 1

	flagInUse byte = 1 << 0
)

var (
	magicNodeStore  = [4]byte{'G', 'C', 'N', 'D'}
	magicLabelStore = [4]byte{'G', 'C', 'D', 'L'}
)

// ErrCorruptHeader is returned when a store file header cannot be trusted.
var ErrCorruptHeader = errors.New("store: corrupt header")

func encodeHeader(magic [4]byte, recordSize int) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], formatVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(recordSize))
	hash.Seal(buf)
	return buf
}

func decodeHeader(buf []byte, magic [4]byte) (int, error) {
	if len(buf) < HeaderSize {
		return 0, fmt.Errorf("%w: short header (%d bytes)", ErrCorruptHeader, len(buf))
	}
	buf = buf[:HeaderSize]
	if !hash.Verify(buf) {
		return 0, fmt.Errorf("%w: checksum mismatch", ErrCorruptHeader)
	}
	if [4]byte(buf[0:4]) != magic {
		return 0, fmt.Errorf("%w: invalid magic %q", ErrCorruptHeader, buf[0:4])
	}
	if v := binary.LittleEndian.Uint32(buf[4:8]); v != formatVersion {
		return 0, fmt.Errorf("%w: unsupported version %d", ErrCorruptHeader, v)
	}
	size := int(binary.LittleEndian.Uint32(buf[8:12]))
	if size <= 0 {
		return 0, fmt.Errorf("%w: invalid record size %d", ErrCorruptHeader, size)
	}
	return size, nil
}

func encodeNode(buf []byte, n *model.NodeRecord) {
	clear(buf[:NodeRecordSize])
	if n.InUse {
		buf[0] = flagInUse
	}
	binary.LittleEndian.PutUint32(buf[1:5], n.NextRel)
	binary.LittleEndian.PutUint32(buf[5:9], n.NextProp)
	field := n.LabelField & labels.FieldMask
	for i := 0; i < 5; i++ {
		buf[9+i] = byte(field >> (8 * i))
	}
}

func decodeNode(id model.NodeID, buf []byte) *model.NodeRecord {
	var field uint64
	for i := 0; i < 5; i++ {
		field |= uint64(buf[9+i]) << (8 * i)
	}
	return &model.NodeRecord{
		ID:         id,
		InUse:      buf[0]&flagInUse != 0,
		NextRel:    binary.LittleEndian.Uint32(buf[1:5]),
		NextProp:   binary.LittleEndian.Uint32(buf[5:9]),
		LabelField: field,
	}
}

func encodeDynamic(buf []byte, d *model.DynamicRecord, blockSize int) error {
	if len(d.Data) > blockSize {
		return fmt.Errorf("store: dynamic record %d payload %d exceeds block size %d", d.ID, len(d.Data), blockSize)
	}
	clear(buf[:DynamicHeaderSize+blockSize])
	if d.InUse {
		buf[0] = flagInUse
	}
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(d.Data)))
	binary.LittleEndian.PutUint64(buf[4:12], uint64(d.Next))
	copy(buf[DynamicHeaderSize:], d.Data)
	return nil
}

// decodeDynamic copies the payload out of buf. A length larger than the
// block is clamped to the block.
func decodeDynamic(id model.RecordID, buf []byte, blockSize int) *model.DynamicRecord {
	length := min(int(binary.LittleEndian.Uint16(buf[1:3])), blockSize)
	data := make([]byte, length)
	copy(data, buf[DynamicHeaderSize:DynamicHeaderSize+length])
	return &model.DynamicRecord{
		ID:    id,
		InUse: buf[0]&flagInUse != 0,
		Next:  model.RecordID(binary.LittleEndian.Uint64(buf[4:12])),
		Data:  data,
	}
}
