// Package labels encodes and decodes the labels field of a node record.
//
// The field is 40 bits wide. The top four bits are a header:
//
//	bit 39 set:   dynamic, bits 0..35 hold the first dynamic label record id
//	bit 39 clear: inline, bits 36..38 hold the label count n (0..7) and
//	              bits 0..35 hold n labels of 36/n bits each
//
// The variant is therefore self-describing; no separate tag is stored.
package labels
