// Package fullcheck drives a complete label index consistency pass.
//
// The label index is split into ranges. Workers claim ranges one at a time,
// load the range document, check every node it refers to and report into a
// buffer owned by the worker. Buffers are merged once all workers joined.
// The first store or index read error aborts the pass.
package fullcheck
