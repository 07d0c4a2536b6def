package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/internal/labels"
	"github.com/hupe1980/graphcheck/model"
)

// Writer builds node and node label store files in memory.
//
// It exists for tooling and tests; the checker never writes. Raw setters
// accept any record so that corrupt stores can be produced on purpose.
type Writer struct {
	blockSize int
	nodes     map[model.NodeID]model.NodeRecord
	dynamic   map[model.RecordID]model.DynamicRecord
	nextDyn   model.RecordID
}

// NewWriter creates a writer. A non-positive blockSize selects DefaultBlockSize.
func NewWriter(blockSize int) *Writer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Writer{
		blockSize: blockSize,
		nodes:     make(map[model.NodeID]model.NodeRecord),
		dynamic:   make(map[model.RecordID]model.DynamicRecord),
	}
}

// BlockSize returns the dynamic record payload size.
func (w *Writer) BlockSize() int {
	return w.blockSize
}

// SetNode stores n as is.
func (w *Writer) SetNode(n model.NodeRecord) {
	w.nodes[n.ID] = n
}

// SetDynamic stores d as is.
func (w *Writer) SetDynamic(d model.DynamicRecord) error {
	if len(d.Data) > w.blockSize {
		return fmt.Errorf("store: dynamic record %d payload %d exceeds block size %d", d.ID, len(d.Data), w.blockSize)
	}
	w.dynamic[d.ID] = d
	if d.ID >= w.nextDyn && d.ID != model.NoNextRecord {
		w.nextDyn = d.ID + 1
	}
	return nil
}

// AllocateDynamic reserves the next free dynamic record id.
func (w *Writer) AllocateDynamic() model.RecordID {
	id := w.nextDyn
	w.nextDyn++
	return id
}

// WriteLabelChain writes labels as a chain of dynamic records and returns
// the id of the head record.
func (w *Writer) WriteLabelChain(ls []model.LabelID) (model.RecordID, error) {
	perRecord := w.blockSize / 8
	if perRecord == 0 {
		return 0, fmt.Errorf("store: block size %d cannot hold a label", w.blockSize)
	}

	chunks := max(1, (len(ls)+perRecord-1)/perRecord)
	ids := make([]model.RecordID, chunks)
	for i := range ids {
		ids[i] = w.AllocateDynamic()
	}

	for i, id := range ids {
		start := i * perRecord
		end := min(start+perRecord, len(ls))
		next := model.NoNextRecord
		if i+1 < len(ids) {
			next = ids[i+1]
		}
		rec := model.DynamicRecord{
			ID:    id,
			InUse: true,
			Next:  next,
			Data:  model.EncodeLabels(ls[start:end]),
		}
		if err := w.SetDynamic(rec); err != nil {
			return 0, err
		}
	}
	return ids[0], nil
}

// AddNode writes an in-use node carrying ls, inline when the set fits and
// as a dynamic chain otherwise. Duplicates are removed and labels sorted.
func (w *Writer) AddNode(id model.NodeID, ls []model.LabelID) error {
	sorted := slices.Clone(ls)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var field uint64
	if labels.FitsInline(sorted) {
		f, err := labels.EncodeInline(sorted)
		if err != nil {
			return err
		}
		field = f
	} else {
		head, err := w.WriteLabelChain(sorted)
		if err != nil {
			return err
		}
		f, err := labels.EncodeDynamic(head)
		if err != nil {
			return err
		}
		field = f
	}

	w.SetNode(model.NodeRecord{
		ID:         id,
		InUse:      true,
		NextRel:    model.NoNextRelationship,
		NextProp:   model.NoNextProperty,
		LabelField: field,
	})
	return nil
}

// Node returns the node record written for id.
func (w *Writer) Node(id model.NodeID) (model.NodeRecord, bool) {
	n, ok := w.nodes[id]
	return n, ok
}

// Dynamic returns the dynamic record written for id.
func (w *Writer) Dynamic(id model.RecordID) (model.DynamicRecord, bool) {
	d, ok := w.dynamic[id]
	return d, ok
}

// Encode returns the node store and the node label store file contents.
// Ids without a record are written as records that are not in use.
func (w *Writer) Encode() (nodeFile, labelFile []byte, err error) {
	var nodeCount uint64
	for id := range w.nodes {
		nodeCount = max(nodeCount, uint64(id)+1)
	}
	nodeFile = make([]byte, HeaderSize+int(nodeCount)*NodeRecordSize)
	copy(nodeFile, encodeHeader(magicNodeStore, NodeRecordSize))
	for id, n := range w.nodes {
		off := HeaderSize + int(id)*NodeRecordSize
		encodeNode(nodeFile[off:], &n)
	}

	var dynCount uint64
	for id := range w.dynamic {
		dynCount = max(dynCount, uint64(id)+1)
	}
	recordSize := DynamicHeaderSize + w.blockSize
	labelFile = make([]byte, HeaderSize+int(dynCount)*recordSize)
	copy(labelFile, encodeHeader(magicLabelStore, recordSize))
	free := model.DynamicRecord{Next: model.NoNextRecord}
	for id := uint64(0); id < dynCount; id++ {
		d, ok := w.dynamic[model.RecordID(id)]
		if !ok {
			d = free
		}
		off := HeaderSize + int(id)*recordSize
		if err := encodeDynamic(labelFile[off:], &d, w.blockSize); err != nil {
			return nil, nil, err
		}
	}
	return nodeFile, labelFile, nil
}

// Flush writes both store files to bs.
func (w *Writer) Flush(ctx context.Context, bs blobstore.BlobStore) error {
	nodeFile, labelFile, err := w.Encode()
	if err != nil {
		return err
	}
	if err := bs.Put(ctx, NodeStoreName, nodeFile); err != nil {
		return fmt.Errorf("write %s: %w", NodeStoreName, err)
	}
	if err := bs.Put(ctx, NodeLabelStoreName, labelFile); err != nil {
		return fmt.Errorf("write %s: %w", NodeLabelStoreName, err)
	}
	return nil
}
