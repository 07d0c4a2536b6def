package labelindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/graphcheck/internal/conv"
	"github.com/hupe1980/graphcheck/model"
)

const (
	// IndexName is the blob name of the label scan store.
	IndexName = "labelscan.idx"
	// DefaultRangeSize is the default number of node ids per range.
	DefaultRangeSize = 1024

	headerSize   = 16
	footerSize   = 16
	dirEntrySize = 20

	formatVersion = 1
)

var magic = [4]byte{'G', 'C', 'L', 'S'}

// ErrCorruptIndex is returned when the label index cannot be decoded.
var ErrCorruptIndex = errors.New("labelindex: corrupt index")

type dirEntry struct {
	rangeID uint64
	offset  uint64
	length  uint32
}

func encodeHeader(rangeSize int, c CompressionType) []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], formatVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(rangeSize))
	buf[12] = byte(c)
	return buf
}

func decodeHeader(buf []byte) (int, CompressionType, error) {
	if len(buf) < headerSize {
		return 0, 0, fmt.Errorf("%w: short header", ErrCorruptIndex)
	}
	if [4]byte(buf[0:4]) != magic {
		return 0, 0, fmt.Errorf("%w: invalid magic %q", ErrCorruptIndex, buf[0:4])
	}
	if v := binary.LittleEndian.Uint32(buf[4:8]); v != formatVersion {
		return 0, 0, fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, v)
	}
	rangeSize := binary.LittleEndian.Uint32(buf[8:12])
	if rangeSize == 0 || rangeSize > maxBlockSize {
		return 0, 0, fmt.Errorf("%w: invalid range size %d", ErrCorruptIndex, rangeSize)
	}
	c := CompressionType(buf[12])
	if c > CompressionZSTD {
		return 0, 0, fmt.Errorf("%w: unknown compression %d", ErrCorruptIndex, c)
	}
	return int(rangeSize), c, nil
}

// encodeRange serializes the bitmaps of one range, labels ascending.
func encodeRange(bitmaps map[model.LabelID]*roaring.Bitmap) ([]byte, error) {
	ids := make([]model.LabelID, 0, len(bitmaps))
	for id := range bitmaps {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	buf := binary.LittleEndian.AppendUint32(nil, uint32(len(ids)))
	for _, id := range ids {
		bm := bitmaps[id]
		bm.RunOptimize()
		data, err := bm.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("labelindex: serialize label %d: %w", id, err)
		}
		n, err := conv.IntToUint32(len(data))
		if err != nil {
			return nil, fmt.Errorf("labelindex: label %d: %w", id, err)
		}
		buf = binary.LittleEndian.AppendUint64(buf, uint64(id))
		buf = binary.LittleEndian.AppendUint32(buf, n)
		buf = append(buf, data...)
	}
	return buf, nil
}

// decodeRange rebuilds a range from its payload. Labels must be strictly
// ascending and every bitmap must be valid and lie within the range.
func decodeRange(id uint64, rangeSize int, payload []byte) (r *NodeLabelRange, err error) {
	// Bitmap decoding walks container data that is only partially validated.
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("%w: range %d: %v", ErrCorruptIndex, id, p)
		}
	}()

	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: range %d: short payload", ErrCorruptIndex, id)
	}
	count := binary.LittleEndian.Uint32(payload)
	payload = payload[4:]

	r = NewNodeLabelRange(id, rangeSize)
	var prev model.LabelID
	for i := uint32(0); i < count; i++ {
		if len(payload) < 12 {
			return nil, fmt.Errorf("%w: range %d: truncated label entry %d", ErrCorruptIndex, id, i)
		}
		label := model.LabelID(binary.LittleEndian.Uint64(payload))
		n := binary.LittleEndian.Uint32(payload[8:])
		payload = payload[12:]
		if i > 0 && label <= prev {
			return nil, fmt.Errorf("%w: range %d: label %d follows label %d", ErrCorruptIndex, id, label, prev)
		}
		prev = label
		if uint64(len(payload)) < uint64(n) {
			return nil, fmt.Errorf("%w: range %d: truncated bitmap of label %d", ErrCorruptIndex, id, label)
		}

		bm := roaring.New()
		if err := bm.UnmarshalBinary(payload[:n]); err != nil {
			return nil, fmt.Errorf("%w: range %d: bitmap of label %d: %v", ErrCorruptIndex, id, label, err)
		}
		if err := bm.Validate(); err != nil {
			return nil, fmt.Errorf("%w: range %d: bitmap of label %d: %v", ErrCorruptIndex, id, label, err)
		}
		payload = payload[n:]

		it := bm.Iterator()
		for it.HasNext() {
			off := it.Next()
			if uint64(off) >= uint64(rangeSize) {
				return nil, fmt.Errorf("%w: range %d: label %d refers to offset %d", ErrCorruptIndex, id, label, off)
			}
			r.add(off, label)
		}
	}
	return r, nil
}
