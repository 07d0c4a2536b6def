package report

import (
	"fmt"

	"github.com/hupe1980/graphcheck/model"
)

// Kind identifies the type of a finding.
type Kind uint8

const (
	// KindNodeNotInUse: the label index refers to a node that is not in use.
	KindNodeNotInUse Kind = iota + 1
	// KindNodeMissingLabel: a node lacks a label the index expects.
	KindNodeMissingLabel
	// KindLabelChainCycle: a dynamic label chain revisits a record.
	KindLabelChainCycle
	// KindLabelRecordNotInUse: a dynamic label chain passes through a freed record.
	KindLabelRecordNotInUse
)

var kindNames = map[Kind]string{
	KindNodeNotInUse:        "node_not_in_use",
	KindNodeMissingLabel:    "node_missing_label",
	KindLabelChainCycle:     "label_chain_cycle",
	KindLabelRecordNotInUse: "label_record_not_in_use",
}

// Kinds lists all finding kinds in report order.
func Kinds() []Kind {
	return []Kind{KindNodeNotInUse, KindNodeMissingLabel, KindLabelChainCycle, KindLabelRecordNotInUse}
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("report: unknown finding kind %q", text)
}

// Finding is one reported inconsistency.
type Finding struct {
	Kind Kind `json:"kind"`
	// Document is the label index range the finding was raised for.
	Document uint64         `json:"document"`
	Node     model.NodeID   `json:"node"`
	Label    model.LabelID  `json:"label"`
	Record   model.RecordID `json:"record"`
}

func (f Finding) String() string {
	switch f.Kind {
	case KindNodeNotInUse:
		return fmt.Sprintf("node %d is referenced by label index range %d but is not in use", f.Node, f.Document)
	case KindNodeMissingLabel:
		return fmt.Sprintf("node %d does not have expected label %d", f.Node, f.Label)
	case KindLabelChainCycle:
		return fmt.Sprintf("node %d: dynamic label chain cycles at record %d", f.Node, f.Record)
	case KindLabelRecordNotInUse:
		return fmt.Sprintf("node %d: dynamic label chain passes through unused record %d", f.Node, f.Record)
	default:
		return fmt.Sprintf("node %d: %s", f.Node, f.Kind)
	}
}

// compare orders findings by node, kind, label and record.
func compare(a, b Finding) int {
	switch {
	case a.Node != b.Node:
		return cmpUint(uint64(a.Node), uint64(b.Node))
	case a.Kind != b.Kind:
		return cmpUint(uint64(a.Kind), uint64(b.Kind))
	case a.Label != b.Label:
		return cmpUint(uint64(a.Label), uint64(b.Label))
	case a.Record != b.Record:
		return cmpUint(uint64(a.Record), uint64(b.Record))
	default:
		return cmpUint(a.Document, b.Document)
	}
}

func cmpUint(a, b uint64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
