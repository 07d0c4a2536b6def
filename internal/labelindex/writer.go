package labelindex

import (
	"context"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/internal/conv"
	"github.com/hupe1980/graphcheck/internal/hash"
	"github.com/hupe1980/graphcheck/model"
)

// Writer builds a label index in memory.
type Writer struct {
	rangeSize   int
	compression CompressionType
	ranges      map[uint64]map[model.LabelID]*roaring.Bitmap
}

// NewWriter creates a writer. A non-positive rangeSize selects
// DefaultRangeSize.
func NewWriter(rangeSize int, c CompressionType) *Writer {
	if rangeSize <= 0 {
		rangeSize = DefaultRangeSize
	}
	return &Writer{
		rangeSize:   rangeSize,
		compression: c,
		ranges:      make(map[uint64]map[model.LabelID]*roaring.Bitmap),
	}
}

// Add records that node carries labels.
func (w *Writer) Add(node model.NodeID, labels ...model.LabelID) {
	rangeID := uint64(node) / uint64(w.rangeSize)
	offset := uint32(uint64(node) % uint64(w.rangeSize))

	bitmaps, ok := w.ranges[rangeID]
	if !ok {
		bitmaps = make(map[model.LabelID]*roaring.Bitmap)
		w.ranges[rangeID] = bitmaps
	}
	for _, l := range labels {
		bm, ok := bitmaps[l]
		if !ok {
			bm = roaring.New()
			bitmaps[l] = bm
		}
		bm.Add(offset)
	}
}

// Remove drops label from node.
func (w *Writer) Remove(node model.NodeID, label model.LabelID) {
	rangeID := uint64(node) / uint64(w.rangeSize)
	if bm, ok := w.ranges[rangeID][label]; ok {
		bm.Remove(uint32(uint64(node) % uint64(w.rangeSize)))
	}
}

// Encode returns the index file content.
func (w *Writer) Encode() ([]byte, error) {
	ids := make([]uint64, 0, len(w.ranges))
	for id := range w.ranges {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	buf := encodeHeader(w.rangeSize, w.compression)
	dir := make([]byte, 0, len(ids)*dirEntrySize)
	for _, id := range ids {
		payload, err := encodeRange(w.ranges[id])
		if err != nil {
			return nil, err
		}
		block, err := compressBlock(payload, w.compression)
		if err != nil {
			return nil, fmt.Errorf("labelindex: compress range %d: %w", id, err)
		}

		length, err := conv.IntToUint32(len(block))
		if err != nil {
			return nil, fmt.Errorf("labelindex: range %d: %w", id, err)
		}

		dir = binary.LittleEndian.AppendUint64(dir, id)
		dir = binary.LittleEndian.AppendUint64(dir, uint64(len(buf)))
		dir = binary.LittleEndian.AppendUint32(dir, length)
		buf = append(buf, block...)
	}

	dirOffset := uint64(len(buf))
	buf = append(buf, dir...)
	buf = binary.LittleEndian.AppendUint64(buf, dirOffset)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ids)))
	buf = binary.LittleEndian.AppendUint32(buf, hash.CRC32C(dir))
	return buf, nil
}

// Flush writes the index to bs.
func (w *Writer) Flush(ctx context.Context, bs blobstore.BlobStore) error {
	data, err := w.Encode()
	if err != nil {
		return err
	}
	if err := bs.Put(ctx, IndexName, data); err != nil {
		return fmt.Errorf("write %s: %w", IndexName, err)
	}
	return nil
}
