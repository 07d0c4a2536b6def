package labels

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/graphcheck/model"
)

const (
	// FieldMask masks the 40 bits used by the labels field.
	FieldMask uint64 = 1<<40 - 1
	// MaxInlineLabels is the largest label count an inline field can hold.
	MaxInlineLabels = 7
	// MaxDynamicRecordID is the largest record id a dynamic field can point to.
	MaxDynamicRecordID = model.RecordID(payloadMask)

	payloadBits        = 36
	payloadMask uint64 = 1<<payloadBits - 1
	dynamicFlag uint64 = 1 << 39
	countShift         = payloadBits
	countMask   uint64 = 0x7
)

var (
	// ErrInlineCapacity is returned when a label set does not fit inline.
	ErrInlineCapacity = errors.New("labels: label set does not fit inline")
	// ErrRecordIDRange is returned when a dynamic record id exceeds 36 bits.
	ErrRecordIDRange = errors.New("labels: dynamic record id out of range")
)

// Field is a parsed labels field.
type Field struct {
	raw uint64
}

// Parse interprets the raw labels field of a node record.
func Parse(raw uint64) Field {
	return Field{raw: raw & FieldMask}
}

// ParseNode interprets the labels field of n.
func ParseNode(n *model.NodeRecord) Field {
	return Parse(n.LabelField)
}

// Raw returns the encoded field.
func (f Field) Raw() uint64 { return f.raw }

// IsDynamic reports whether the labels live in a dynamic record chain.
func (f Field) IsDynamic() bool {
	return f.raw&dynamicFlag != 0
}

// FirstDynamicRecord returns the head of the dynamic label chain.
// The result is only meaningful when IsDynamic is true.
func (f Field) FirstDynamicRecord() model.RecordID {
	return model.RecordID(f.raw & payloadMask)
}

// InlineCount returns the number of inline labels.
func (f Field) InlineCount() int {
	if f.IsDynamic() {
		return 0
	}
	return int((f.raw >> countShift) & countMask)
}

// Inline decodes the inline labels. It returns nil for dynamic fields.
func (f Field) Inline() []model.LabelID {
	n := f.InlineCount()
	if n == 0 {
		return nil
	}
	bits := payloadBits / n
	mask := uint64(1)<<bits - 1
	payload := f.raw & payloadMask

	out := make([]model.LabelID, n)
	for i := 0; i < n; i++ {
		out[i] = model.LabelID((payload >> (uint(i) * uint(bits))) & mask)
	}
	return out
}

// String returns a string representation of the Field.
func (f Field) String() string {
	if f.IsDynamic() {
		return fmt.Sprintf("DynamicLabels[first=%d]", f.FirstDynamicRecord())
	}
	return fmt.Sprintf("InlineLabels%v", f.Inline())
}

// FitsInline reports whether labels can be stored inline.
func FitsInline(labels []model.LabelID) bool {
	n := len(labels)
	if n == 0 {
		return true
	}
	if n > MaxInlineLabels {
		return false
	}
	limit := model.LabelID(1) << (payloadBits / n)
	for _, l := range labels {
		if l >= limit {
			return false
		}
	}
	return true
}

// EncodeInline encodes labels as an inline field. Labels are stored sorted.
func EncodeInline(labels []model.LabelID) (uint64, error) {
	if !FitsInline(labels) {
		return 0, fmt.Errorf("%w: %d labels", ErrInlineCapacity, len(labels))
	}
	n := len(labels)
	if n == 0 {
		return 0, nil
	}
	sorted := slices.Clone(labels)
	slices.Sort(sorted)

	bits := payloadBits / n
	var payload uint64
	for i, l := range sorted {
		payload |= uint64(l) << (uint(i) * uint(bits))
	}
	return uint64(n)<<countShift | payload, nil
}

// EncodeDynamic encodes a pointer to the first dynamic label record.
func EncodeDynamic(first model.RecordID) (uint64, error) {
	if first > MaxDynamicRecordID {
		return 0, fmt.Errorf("%w: %d", ErrRecordIDRange, first)
	}
	return dynamicFlag | uint64(first), nil
}
