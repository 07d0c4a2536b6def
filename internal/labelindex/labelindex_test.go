package labelindex

import (
	"context"
	"encoding/binary"
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/model"
)

func TestRoundTrip(t *testing.T) {
	for _, c := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			ctx := context.Background()
			bs := blobstore.NewMemoryStore()

			w := NewWriter(64, c)
			w.Add(7, 3, 9)
			w.Add(12, 1, 2, 3)
			w.Add(200, 5)
			// Dense enough to be worth compressing.
			for n := model.NodeID(256); n < 320; n++ {
				w.Add(n, 1, 2)
			}
			require.NoError(t, w.Flush(ctx, bs))

			r, err := Open(ctx, bs)
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, 64, r.RangeSize())
			assert.Equal(t, c, r.Compression())
			require.Equal(t, 3, r.RangeCount())

			doc, err := r.Document(ctx, 0)
			require.NoError(t, err)
			assert.Equal(t, uint64(0), doc.ID())
			assert.Equal(t, []model.NodeID{7, 12}, doc.Nodes())
			assert.Equal(t, []model.LabelID{3, 9}, doc.Labels(7))
			assert.Equal(t, []model.LabelID{1, 2, 3}, doc.Labels(12))
			assert.Nil(t, doc.Labels(8))
			assert.Nil(t, doc.Labels(200), "outside of the range")

			doc, err = r.Document(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, uint64(3), doc.ID())
			assert.Equal(t, model.NodeID(192), doc.Range().FirstNode())
			assert.Equal(t, []model.LabelID{5}, doc.Labels(200))

			var ids []uint64
			var nodes int
			require.NoError(t, r.Documents(ctx, func(d *Document) error {
				ids = append(ids, d.ID())
				nodes += len(d.Nodes())
				return nil
			}))
			assert.Equal(t, []uint64{0, 3, 4}, ids)
			assert.Equal(t, 67, nodes)
		})
	}
}

func TestCompressBlockFallsBackToRaw(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	for _, c := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		block, err := compressBlock(data, c)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(block[4:]), c.String())

		out, err := decompressBlock(block, c)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	}
}

func TestCompressBlockShrinks(t *testing.T) {
	data := make([]byte, 4096)
	for _, c := range []CompressionType{CompressionLZ4, CompressionZSTD} {
		block, err := compressBlock(data, c)
		require.NoError(t, err)
		assert.Less(t, len(block), len(data), c.String())

		out, err := decompressBlock(block, c)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	w := NewWriter(0, CompressionZSTD)
	w.Add(1, 1, 2)
	w.Remove(1, 2)
	w.Remove(5, 2)
	require.NoError(t, w.Flush(ctx, bs))

	r, err := Open(ctx, bs)
	require.NoError(t, err)
	defer r.Close()
	doc, err := r.Document(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []model.LabelID{1}, doc.Labels(1))
}

func TestEmptyIndex(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	require.NoError(t, NewWriter(0, CompressionNone).Flush(ctx, bs))

	r, err := Open(ctx, bs)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 0, r.RangeCount())
	assert.Equal(t, DefaultRangeSize, r.RangeSize())

	_, err = r.Document(ctx, 0)
	assert.Error(t, err)
}

func TestCorruptIndex(t *testing.T) {
	ctx := context.Background()
	w := NewWriter(16, CompressionLZ4)
	w.Add(3, 1)
	w.Add(40, 2)
	data, err := w.Encode()
	require.NoError(t, err)

	tests := []struct {
		name  string
		patch func([]byte) []byte
	}{
		{"magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"version", func(b []byte) []byte { b[4] = 9; return b }},
		{"compression", func(b []byte) []byte { b[12] = 7; return b }},
		{"truncated", func(b []byte) []byte { return b[:len(b)-3] }},
		{"directory checksum", func(b []byte) []byte { b[len(b)-1] ^= 0xFF; return b }},
		{"too small", func(b []byte) []byte { return b[:10] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs := blobstore.NewMemoryStore()
			buf := append([]byte(nil), data...)
			require.NoError(t, bs.Put(ctx, IndexName, tt.patch(buf)))
			_, err := Open(ctx, bs)
			assert.ErrorIs(t, err, ErrCorruptIndex)
		})
	}
}

func TestCorruptRangeBlock(t *testing.T) {
	ctx := context.Background()
	w := NewWriter(16, CompressionNone)
	w.Add(3, 1)
	data, err := w.Encode()
	require.NoError(t, err)

	bs := blobstore.NewMemoryStore()
	require.NoError(t, bs.Put(ctx, IndexName, data))
	// Claim more labels than the payload holds.
	require.True(t, bs.Patch(IndexName, headerSize+blockHeaderSize, []byte{0xFF, 0, 0, 0}))

	r, err := Open(ctx, bs)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Document(ctx, 0)
	assert.ErrorIs(t, err, ErrCorruptIndex)
}

func TestMissingIndex(t *testing.T) {
	_, err := Open(context.Background(), blobstore.NewMemoryStore())
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

type budgetLimiter struct {
	left int
}

func (l *budgetLimiter) AcquireIO(_ context.Context, n int) error {
	if n > l.left {
		return errors.New("budget exhausted")
	}
	l.left -= n
	return nil
}

func TestReadLimiter(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	w := NewWriter(16, CompressionNone)
	w.Add(3, 1)
	require.NoError(t, w.Flush(ctx, bs))

	l := &budgetLimiter{left: headerSize + footerSize + dirEntrySize}
	r, err := Open(ctx, bs, WithReadLimiter(l))
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 0, l.left)

	_, err = r.Document(ctx, 0)
	assert.EqualError(t, err, "budget exhausted")
}

func TestDocumentsStopsOnError(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	w := NewWriter(16, CompressionNone)
	w.Add(3, 1)
	w.Add(40, 1)
	require.NoError(t, w.Flush(ctx, bs))

	r, err := Open(ctx, bs)
	require.NoError(t, err)
	defer r.Close()

	stop := errors.New("stop")
	calls := 0
	err = r.Documents(ctx, func(*Document) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, r.Documents(cancelled, func(*Document) error { return nil }), context.Canceled)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("lz4")
	require.NoError(t, err)
	assert.Equal(t, CompressionLZ4, c)

	_, err = ParseCompression("brotli")
	assert.Error(t, err)
}

type labelBitmap struct {
	label   model.LabelID
	offsets []uint32
}

func rangePayload(t *testing.T, entries ...labelBitmap) []byte {
	t.Helper()
	buf := binary.LittleEndian.AppendUint32(nil, uint32(len(entries)))
	for _, e := range entries {
		data, err := roaring.BitmapOf(e.offsets...).ToBytes()
		require.NoError(t, err)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(e.label))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(data)))
		buf = append(buf, data...)
	}
	return buf
}

func TestDecodeRangeRejectsDuplicateLabels(t *testing.T) {
	tests := []struct {
		name    string
		entries []labelBitmap
	}{
		{"duplicate", []labelBitmap{{9, []uint32{7}}, {9, []uint32{7}}}},
		{"descending", []labelBitmap{{9, []uint32{7}}, {3, []uint32{7}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeRange(0, 64, rangePayload(t, tt.entries...))
			assert.ErrorIs(t, err, ErrCorruptIndex)
		})
	}

	r, err := decodeRange(0, 64, rangePayload(t, labelBitmap{3, []uint32{7}}, labelBitmap{9, []uint32{7}}))
	require.NoError(t, err)
	assert.Equal(t, []model.LabelID{3, 9}, r.Labels(7))
}

func TestDecodeRangeRejectsOffsetOutsideRange(t *testing.T) {
	_, err := decodeRange(0, 64, rangePayload(t, labelBitmap{1, []uint32{5, 127}}))
	assert.ErrorIs(t, err, ErrCorruptIndex)
}

func TestDecodeRangeDamagedBitmap(t *testing.T) {
	offsets := make([]uint32, 0, 40)
	for off := uint32(0); off < 64; off += 3 {
		offsets = append(offsets, off)
	}
	valid := rangePayload(t,
		labelBitmap{1, offsets},
		labelBitmap{2, []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}},
	)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20_000; i++ {
		payload := append([]byte(nil), valid...)
		for flips := 1 + rng.Intn(3); flips > 0; flips-- {
			// Keep the label count intact so the bitmaps are decoded.
			pos := 4 + rng.Intn(len(payload)-4)
			payload[pos] ^= byte(1 + rng.Intn(255))
		}

		var (
			r   *NodeLabelRange
			err error
		)
		require.NotPanics(t, func() { r, err = decodeRange(0, 64, payload) }, "iteration %d", i)
		if err != nil {
			require.ErrorIs(t, err, ErrCorruptIndex, "iteration %d", i)
			continue
		}
		for _, n := range r.Nodes() {
			require.Less(t, uint64(n), uint64(64))
			labels := r.Labels(n)
			require.True(t, slices.IsSorted(labels))
			require.Equal(t, len(labels), len(slices.Compact(slices.Clone(labels))), "duplicate labels for node %d", n)
		}
	}
}

func TestZstdDecoderMemoryLimit(t *testing.T) {
	data := make([]byte, 1<<20)
	enc := getZstdEncoder()
	frame := enc.EncodeAll(data, nil)
	putZstdEncoder(enc)

	limited := newZstdDecoder(64 << 10)
	defer limited.Close()
	_, err := limited.DecodeAll(frame, nil)
	assert.Error(t, err)

	dec := getZstdDecoder()
	defer putZstdDecoder(dec)
	out, err := dec.DecodeAll(frame, nil)
	require.NoError(t, err)
	assert.Len(t, out, len(data))
}
