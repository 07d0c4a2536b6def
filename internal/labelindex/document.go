package labelindex

import (
	"github.com/hupe1980/graphcheck/model"
)

// NodeLabelRange holds the labels the index records for one range of node
// ids, indexed by offset within the range.
type NodeLabelRange struct {
	id     uint64
	size   int
	labels [][]model.LabelID
}

// NewNodeLabelRange creates an empty range.
func NewNodeLabelRange(id uint64, size int) *NodeLabelRange {
	return &NodeLabelRange{
		id:     id,
		size:   size,
		labels: make([][]model.LabelID, size),
	}
}

// ID returns the range id.
func (r *NodeLabelRange) ID() uint64 { return r.id }

// Size returns the number of node ids the range covers.
func (r *NodeLabelRange) Size() int { return r.size }

// FirstNode returns the lowest node id of the range.
func (r *NodeLabelRange) FirstNode() model.NodeID {
	return model.NodeID(r.id * uint64(r.size))
}

func (r *NodeLabelRange) add(offset uint32, label model.LabelID) {
	r.labels[offset] = append(r.labels[offset], label)
}

// Labels returns the labels recorded for node, nil when the node lies
// outside the range or carries none.
func (r *NodeLabelRange) Labels(node model.NodeID) []model.LabelID {
	first := r.FirstNode()
	if node < first || uint64(node-first) >= uint64(r.size) {
		return nil
	}
	return r.labels[node-first]
}

// Nodes returns the node ids in the range that carry at least one label,
// in ascending order.
func (r *NodeLabelRange) Nodes() []model.NodeID {
	var nodes []model.NodeID
	first := r.FirstNode()
	for off, ls := range r.labels {
		if len(ls) > 0 {
			nodes = append(nodes, first+model.NodeID(off))
		}
	}
	return nodes
}

// Document is one label scan document: the expected labels of one range.
type Document struct {
	r *NodeLabelRange
}

// NewDocument wraps r.
func NewDocument(r *NodeLabelRange) *Document {
	return &Document{r: r}
}

// ID returns the id of the underlying range.
func (d *Document) ID() uint64 { return d.r.id }

// Range returns the underlying range.
func (d *Document) Range() *NodeLabelRange { return d.r }

// Labels returns the labels the index expects node to carry.
func (d *Document) Labels(node model.NodeID) []model.LabelID { return d.r.Labels(node) }

// Nodes returns the node ids the document refers to.
func (d *Document) Nodes() []model.NodeID { return d.r.Nodes() }
