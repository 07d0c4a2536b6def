package store

import (
	"context"
	"fmt"

	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/model"
)

// NodeStore reads node records.
type NodeStore struct {
	f *recordFile
}

// OpenNodeStore opens the node store of bs.
func OpenNodeStore(ctx context.Context, bs blobstore.BlobStore, limiter ReadLimiter) (*NodeStore, error) {
	f, err := openRecordFile(ctx, bs, NodeStoreName, magicNodeStore, limiter)
	if err != nil {
		return nil, err
	}
	if f.recordSize != NodeRecordSize {
		_ = f.close()
		return nil, &FileError{Name: NodeStoreName, Err: fmt.Errorf("%w: record size %d", ErrCorruptHeader, f.recordSize)}
	}
	return &NodeStore{f: f}, nil
}

// HighID returns the number of node records in the store.
func (s *NodeStore) HighID() model.NodeID {
	return model.NodeID(s.f.count)
}

// GetRecord reads node id. Ids past the end yield a record that is not in use.
func (s *NodeStore) GetRecord(ctx context.Context, id model.NodeID) (*model.NodeRecord, error) {
	var buf [NodeRecordSize]byte
	ok, err := s.f.read(ctx, uint64(id), buf[:])
	if err != nil {
		return nil, err
	}
	if !ok {
		return &model.NodeRecord{ID: id}, nil
	}
	return decodeNode(id, buf[:]), nil
}

// Close releases the underlying blob.
func (s *NodeStore) Close() error {
	return s.f.close()
}
