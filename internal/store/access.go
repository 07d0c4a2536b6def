package store

import (
	"context"
	"errors"

	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/model"
)

// RecordAccess hands out deferred references to store records.
//
// Fetching never fails for ids that do not exist or are not in use: the
// returned record reports that through InUse. Errors are I/O failures.
type RecordAccess interface {
	Node(id model.NodeID) *Reference[*model.NodeRecord]
	NodeLabels(id model.RecordID) *Reference[*model.DynamicRecord]
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	limiter ReadLimiter
}

// WithReadLimiter throttles every record read through l.
func WithReadLimiter(l ReadLimiter) Option {
	return func(o *openOptions) {
		o.limiter = l
	}
}

// Stores is the read side of a graph store: the node store and its dynamic
// label store.
type Stores struct {
	nodes  *NodeStore
	labels *DynamicStore
}

var _ RecordAccess = (*Stores)(nil)

// Open opens the node store and the node label store of bs.
func Open(ctx context.Context, bs blobstore.BlobStore, opts ...Option) (*Stores, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}

	nodes, err := OpenNodeStore(ctx, bs, o.limiter)
	if err != nil {
		return nil, err
	}

	dyn, err := OpenNodeLabelStore(ctx, bs, o.limiter)
	if err != nil {
		_ = nodes.Close()
		return nil, err
	}

	return &Stores{nodes: nodes, labels: dyn}, nil
}

// Node returns a deferred reference to node id.
func (s *Stores) Node(id model.NodeID) *Reference[*model.NodeRecord] {
	return NewReference(uint64(id), func(ctx context.Context, id uint64) (*model.NodeRecord, error) {
		return s.nodes.GetRecord(ctx, model.NodeID(id))
	})
}

// NodeLabels returns a deferred reference to dynamic label record id.
func (s *Stores) NodeLabels(id model.RecordID) *Reference[*model.DynamicRecord] {
	return NewReference(uint64(id), func(ctx context.Context, id uint64) (*model.DynamicRecord, error) {
		return s.labels.GetRecord(ctx, model.RecordID(id))
	})
}

// NodeStore returns the node store.
func (s *Stores) NodeStore() *NodeStore {
	return s.nodes
}

// NodeLabelStore returns the dynamic node label store.
func (s *Stores) NodeLabelStore() *DynamicStore {
	return s.labels
}

// Close closes both stores.
func (s *Stores) Close() error {
	return errors.Join(s.nodes.Close(), s.labels.Close())
}
