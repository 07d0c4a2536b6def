package graphcheck

import (
	"cmp"
	"context"
	"fmt"
	"math/rand"
	"slices"

	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/internal/labelindex"
	"github.com/hupe1980/graphcheck/internal/labels"
	"github.com/hupe1980/graphcheck/internal/store"
	"github.com/hupe1980/graphcheck/model"
)

// StoreBuilder is an immutable fluent builder that writes a random graph
// store, optionally with deliberate inconsistencies. Each method returns a
// new builder with the updated configuration.
//
// Example:
//
//	built, err := graphcheck.NewStoreBuilder().
//	    Nodes(100_000).
//	    MaxLabels(12).
//	    Corrupt(50).
//	    Seed(7).
//	    Build(ctx, blobstore.NewLocalStore("./graph.db"))
type StoreBuilder struct {
	nodes       int
	maxLabels   int
	labelSpace  int
	blockSize   int
	rangeSize   int
	compression labelindex.CompressionType
	corrupt     int
	seed        int64
}

// NewStoreBuilder returns a builder with defaults: 1000 nodes carrying up to
// 8 of 64 labels, no corruption.
func NewStoreBuilder() StoreBuilder {
	return StoreBuilder{
		nodes:       1000,
		maxLabels:   8,
		labelSpace:  64,
		blockSize:   store.DefaultBlockSize,
		rangeSize:   labelindex.DefaultRangeSize,
		compression: labelindex.CompressionZSTD,
		seed:        1,
	}
}

// Nodes sets the number of nodes.
func (b StoreBuilder) Nodes(n int) StoreBuilder {
	b.nodes = n
	return b
}

// MaxLabels sets the maximum number of labels per node.
func (b StoreBuilder) MaxLabels(n int) StoreBuilder {
	b.maxLabels = n
	return b
}

// LabelSpace sets the number of distinct labels.
func (b StoreBuilder) LabelSpace(n int) StoreBuilder {
	b.labelSpace = n
	return b
}

// BlockSize sets the payload size of dynamic label records.
func (b StoreBuilder) BlockSize(n int) StoreBuilder {
	b.blockSize = n
	return b
}

// RangeSize sets the number of node ids per label index range.
func (b StoreBuilder) RangeSize(n int) StoreBuilder {
	b.rangeSize = n
	return b
}

// Compression sets the block compression of the label index.
func (b StoreBuilder) Compression(c labelindex.CompressionType) StoreBuilder {
	b.compression = c
	return b
}

// Corrupt sets the number of nodes that receive an inconsistency.
func (b StoreBuilder) Corrupt(n int) StoreBuilder {
	b.corrupt = n
	return b
}

// Seed sets the random seed.
func (b StoreBuilder) Seed(seed int64) StoreBuilder {
	b.seed = seed
	return b
}

// BuiltStore describes a written store.
type BuiltStore struct {
	Nodes int
	// Expected holds the finding each corrupted node must produce, sorted
	// by node.
	Expected []Finding
}

func (b StoreBuilder) validate() error {
	switch {
	case b.nodes < 0:
		return fmt.Errorf("%w: nodes must not be negative", ErrInvalidOptions)
	case b.maxLabels <= 0 || b.labelSpace <= 0:
		return fmt.Errorf("%w: label counts must be positive", ErrInvalidOptions)
	case b.blockSize < 8:
		return fmt.Errorf("%w: block size %d cannot hold a label", ErrInvalidOptions, b.blockSize)
	case b.rangeSize <= 0:
		return fmt.Errorf("%w: range size must be positive", ErrInvalidOptions)
	case b.corrupt < 0 || b.corrupt > b.nodes:
		return fmt.Errorf("%w: cannot corrupt %d of %d nodes", ErrInvalidOptions, b.corrupt, b.nodes)
	}
	return nil
}

// Build writes the node store, the node label store and the label index
// to bs.
func (b StoreBuilder) Build(ctx context.Context, bs blobstore.BlobStore) (*BuiltStore, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(b.seed))
	var zipf *rand.Zipf
	if b.labelSpace > 1 {
		zipf = rand.NewZipf(rng, 1.1, 1, uint64(b.labelSpace-1))
	}

	sw := store.NewWriter(b.blockSize)
	iw := labelindex.NewWriter(b.rangeSize, b.compression)

	nodeLabels := make([][]model.LabelID, b.nodes)
	for i := range nodeLabels {
		ls := randomLabels(rng, zipf, b.maxLabels, b.labelSpace)
		nodeLabels[i] = ls
		if err := sw.AddNode(model.NodeID(i), ls); err != nil {
			return nil, err
		}
		iw.Add(model.NodeID(i), ls...)
	}

	built := &BuiltStore{Nodes: b.nodes}
	for _, i := range rng.Perm(b.nodes)[:b.corrupt] {
		kind := Kind(len(built.Expected)%4 + 1)
		f, err := corruptNode(sw, iw, model.NodeID(i), nodeLabels[i], kind, b.labelSpace)
		if err != nil {
			return nil, err
		}
		f.Document = uint64(i / b.rangeSize)
		built.Expected = append(built.Expected, f)
	}
	slices.SortFunc(built.Expected, func(a, b Finding) int {
		return cmp.Compare(a.Node, b.Node)
	})

	if err := sw.Flush(ctx, bs); err != nil {
		return nil, err
	}
	if err := iw.Flush(ctx, bs); err != nil {
		return nil, err
	}
	return built, nil
}

func randomLabels(rng *rand.Rand, zipf *rand.Zipf, maxLabels, labelSpace int) []model.LabelID {
	n := 1 + rng.Intn(min(maxLabels, labelSpace))
	seen := make(map[model.LabelID]struct{}, n)
	out := make([]model.LabelID, 0, n)
	for len(out) < n {
		var l model.LabelID
		if zipf != nil && len(seen) < labelSpace/2 {
			l = model.LabelID(zipf.Uint64())
		} else {
			l = model.LabelID(rng.Intn(labelSpace))
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// corruptNode damages node id so that a check reports exactly the returned
// finding.
func corruptNode(sw *store.Writer, iw *labelindex.Writer, id model.NodeID, ls []model.LabelID, kind Kind, labelSpace int) (Finding, error) {
	f := Finding{Kind: kind, Node: id}
	switch kind {
	case KindNodeNotInUse:
		sw.SetNode(model.NodeRecord{ID: id, NextRel: model.NoNextRelationship, NextProp: model.NoNextProperty})

	case KindNodeMissingLabel:
		f.Label = model.LabelID(labelSpace)
		iw.Add(id, f.Label)

	case KindLabelChainCycle, KindLabelRecordNotInUse:
		// The chain is never compared, so each record holds what fits.
		perRecord := sw.BlockSize() / 8
		split := len(ls) / 2
		head := sw.AllocateDynamic()
		tail := sw.AllocateDynamic()

		first := model.DynamicRecord{ID: head, InUse: true, Next: tail, Data: model.EncodeLabels(ls[:min(split, perRecord)])}
		rest := ls[split:]
		second := model.DynamicRecord{ID: tail, InUse: true, Next: model.NoNextRecord, Data: model.EncodeLabels(rest[:min(len(rest), perRecord)])}
		if kind == KindLabelChainCycle {
			second.Next = head
			f.Record = head
		} else {
			second.InUse = false
			f.Record = tail
		}
		if err := sw.SetDynamic(first); err != nil {
			return f, err
		}
		if err := sw.SetDynamic(second); err != nil {
			return f, err
		}

		field, err := labels.EncodeDynamic(head)
		if err != nil {
			return f, err
		}
		sw.SetNode(model.NodeRecord{ID: id, InUse: true, NextRel: model.NoNextRelationship, NextProp: model.NoNextProperty, LabelField: field})
	}
	return f, nil
}
