package labelindex

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/internal/conv"
	"github.com/hupe1980/graphcheck/internal/hash"
)

// ReadLimiter throttles index reads.
type ReadLimiter interface {
	AcquireIO(ctx context.Context, bytes int) error
}

// Option configures Open.
type Option func(*Reader)

// WithReadLimiter throttles every range load through l.
func WithReadLimiter(l ReadLimiter) Option {
	return func(r *Reader) {
		r.limiter = l
	}
}

// Reader loads label scan documents from an index blob. Document may be
// called concurrently.
type Reader struct {
	blob        blobstore.Blob
	rangeSize   int
	compression CompressionType
	dir         []dirEntry
	limiter     ReadLimiter
}

// Open opens the label index of bs and reads its directory.
func Open(ctx context.Context, bs blobstore.BlobStore, opts ...Option) (*Reader, error) {
	blob, err := bs.Open(ctx, IndexName)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", IndexName, err)
	}

	r := &Reader{blob: blob}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.load(ctx); err != nil {
		_ = blob.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) load(ctx context.Context) error {
	size := r.blob.Size()
	if size < headerSize+footerSize {
		return fmt.Errorf("%w: file too small (%d bytes)", ErrCorruptIndex, size)
	}

	header, err := r.readAt(ctx, 0, headerSize)
	if err != nil {
		return err
	}
	r.rangeSize, r.compression, err = decodeHeader(header)
	if err != nil {
		return err
	}

	footer, err := r.readAt(ctx, size-footerSize, footerSize)
	if err != nil {
		return err
	}
	dirOffset := binary.LittleEndian.Uint64(footer[0:8])
	count := uint64(binary.LittleEndian.Uint32(footer[8:12]))
	checksum := binary.LittleEndian.Uint32(footer[12:16])

	dirEnd := uint64(size - footerSize)
	if dirOffset < headerSize || dirOffset > dirEnd || dirEnd-dirOffset != count*dirEntrySize {
		return fmt.Errorf("%w: invalid directory (offset %d, %d ranges)", ErrCorruptIndex, dirOffset, count)
	}

	var dir []byte
	if count > 0 {
		dir, err = r.readAt(ctx, int64(dirOffset), int(count*dirEntrySize))
		if err != nil {
			return err
		}
	}
	if hash.CRC32C(dir) != checksum {
		return fmt.Errorf("%w: directory checksum mismatch", ErrCorruptIndex)
	}

	r.dir = make([]dirEntry, count)
	for i := range r.dir {
		e := dir[i*dirEntrySize:]
		entry := dirEntry{
			rangeID: binary.LittleEndian.Uint64(e[0:8]),
			offset:  binary.LittleEndian.Uint64(e[8:16]),
			length:  binary.LittleEndian.Uint32(e[16:20]),
		}
		if entry.offset < headerSize || entry.offset+uint64(entry.length) > dirOffset {
			return fmt.Errorf("%w: range %d out of bounds", ErrCorruptIndex, entry.rangeID)
		}
		r.dir[i] = entry
	}
	return nil
}

func (r *Reader) readAt(ctx context.Context, off int64, n int) ([]byte, error) {
	if r.limiter != nil {
		if err := r.limiter.AcquireIO(ctx, n); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, n)
	if _, err := r.blob.ReadAt(ctx, buf, off); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: unexpected end of file at %d", ErrCorruptIndex, off)
		}
		return nil, fmt.Errorf("read %s at %d: %w", IndexName, off, err)
	}
	return buf, nil
}

// RangeSize returns the number of node ids per range.
func (r *Reader) RangeSize() int { return r.rangeSize }

// Compression returns the block compression of the index.
func (r *Reader) Compression() CompressionType { return r.compression }

// RangeCount returns the number of stored ranges.
func (r *Reader) RangeCount() int { return len(r.dir) }

// Document loads the i-th stored range.
func (r *Reader) Document(ctx context.Context, i int) (*Document, error) {
	if i < 0 || i >= len(r.dir) {
		return nil, fmt.Errorf("labelindex: range index %d out of bounds [0,%d)", i, len(r.dir))
	}
	e := r.dir[i]

	off, err := conv.Uint64ToInt64(e.offset)
	if err != nil {
		return nil, fmt.Errorf("%w: range %d: %v", ErrCorruptIndex, e.rangeID, err)
	}
	block, err := r.readAt(ctx, off, int(e.length))
	if err != nil {
		return nil, err
	}
	payload, err := decompressBlock(block, r.compression)
	if err != nil {
		return nil, fmt.Errorf("range %d: %w", e.rangeID, err)
	}
	rng, err := decodeRange(e.rangeID, r.rangeSize, payload)
	if err != nil {
		return nil, err
	}
	return NewDocument(rng), nil
}

// Documents calls fn for every stored range in order. It stops at the first
// error.
func (r *Reader) Documents(ctx context.Context, fn func(*Document) error) error {
	for i := range r.dir {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := r.Document(ctx, i)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the index blob.
func (r *Reader) Close() error {
	return r.blob.Close()
}
