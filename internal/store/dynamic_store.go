package store

import (
	"context"
	"fmt"

	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/model"
)

// DynamicStore reads dynamic records of one dynamic store file.
type DynamicStore struct {
	f         *recordFile
	blockSize int
}

// OpenNodeLabelStore opens the dynamic node label store of bs.
func OpenNodeLabelStore(ctx context.Context, bs blobstore.BlobStore, limiter ReadLimiter) (*DynamicStore, error) {
	f, err := openRecordFile(ctx, bs, NodeLabelStoreName, magicLabelStore, limiter)
	if err != nil {
		return nil, err
	}
	if f.recordSize <= DynamicHeaderSize {
		_ = f.close()
		return nil, &FileError{Name: NodeLabelStoreName, Err: fmt.Errorf("%w: record size %d", ErrCorruptHeader, f.recordSize)}
	}
	return &DynamicStore{f: f, blockSize: f.recordSize - DynamicHeaderSize}, nil
}

// BlockSize returns the payload capacity of one record.
func (s *DynamicStore) BlockSize() int {
	return s.blockSize
}

// HighID returns the number of records in the store.
func (s *DynamicStore) HighID() model.RecordID {
	return model.RecordID(s.f.count)
}

// GetRecord reads record id. Ids past the end, including NoNextRecord,
// yield a record that is not in use.
func (s *DynamicStore) GetRecord(ctx context.Context, id model.RecordID) (*model.DynamicRecord, error) {
	buf := make([]byte, s.f.recordSize)
	ok, err := s.f.read(ctx, uint64(id), buf)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &model.DynamicRecord{ID: id, Next: model.NoNextRecord}, nil
	}
	return decodeDynamic(id, buf, s.blockSize), nil
}

// Close releases the underlying blob.
func (s *DynamicStore) Close() error {
	return s.f.close()
}
