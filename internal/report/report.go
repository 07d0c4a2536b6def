package report

import (
	"slices"
	"sync"

	"github.com/hupe1980/graphcheck/model"
)

// LabelScanConsistencyReport receives the findings of label index checks.
// Reporting never fails and never stops a pass.
type LabelScanConsistencyReport interface {
	NodeNotInUse(node *model.NodeRecord)
	NodeDoesNotHaveExpectedLabel(node *model.NodeRecord, label model.LabelID)
	DynamicLabelRecordChainCycle(node *model.NodeRecord, record *model.DynamicRecord)
	DynamicLabelRecordNotInUse(node *model.NodeRecord, record *model.DynamicRecord)
}

// Buffer is the append-only report of one worker. It is not safe for
// concurrent use.
type Buffer struct {
	document uint64
	findings []Finding
}

var _ LabelScanConsistencyReport = (*Buffer)(nil)

// SetDocument attributes subsequent findings to label index range id.
func (b *Buffer) SetDocument(id uint64) {
	b.document = id
}

func (b *Buffer) NodeNotInUse(node *model.NodeRecord) {
	b.add(Finding{Kind: KindNodeNotInUse, Node: node.ID})
}

func (b *Buffer) NodeDoesNotHaveExpectedLabel(node *model.NodeRecord, label model.LabelID) {
	b.add(Finding{Kind: KindNodeMissingLabel, Node: node.ID, Label: label})
}

func (b *Buffer) DynamicLabelRecordChainCycle(node *model.NodeRecord, record *model.DynamicRecord) {
	b.add(Finding{Kind: KindLabelChainCycle, Node: node.ID, Record: record.ID})
}

func (b *Buffer) DynamicLabelRecordNotInUse(node *model.NodeRecord, record *model.DynamicRecord) {
	b.add(Finding{Kind: KindLabelRecordNotInUse, Node: node.ID, Record: record.ID})
}

func (b *Buffer) add(f Finding) {
	f.Document = b.document
	b.findings = append(b.findings, f)
}

// Len returns the number of findings in the buffer.
func (b *Buffer) Len() int {
	return len(b.findings)
}

// Findings returns the findings in the order they were reported.
func (b *Buffer) Findings() []Finding {
	return b.findings
}

// Collector hands out worker buffers and merges them.
type Collector struct {
	mu      sync.Mutex
	buffers []*Buffer
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// NewBuffer returns a buffer owned by the caller and registered with c.
func (c *Collector) NewBuffer() *Buffer {
	b := &Buffer{}
	c.mu.Lock()
	c.buffers = append(c.buffers, b)
	c.mu.Unlock()
	return b
}

// Findings merges all buffers. Call it only after every worker finished
// writing. The result is sorted so that repeated passes over an unchanged
// store produce identical output.
func (c *Collector) Findings() []Finding {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, b := range c.buffers {
		n += b.Len()
	}
	out := make([]Finding, 0, n)
	for _, b := range c.buffers {
		out = append(out, b.findings...)
	}
	slices.SortFunc(out, compare)
	return out
}

// Summary counts findings per kind.
type Summary struct {
	Total  int          `json:"total"`
	ByKind map[Kind]int `json:"by_kind"`
}

// Summarize counts findings.
func Summarize(findings []Finding) Summary {
	s := Summary{ByKind: make(map[Kind]int)}
	for _, f := range findings {
		s.Total++
		s.ByKind[f.Kind]++
	}
	return s
}

// Count returns the number of findings of kind k.
func (s Summary) Count(k Kind) int {
	return s.ByKind[k]
}

// Clean reports whether no findings were recorded.
func (s Summary) Clean() bool {
	return s.Total == 0
}
