// Package model defines the record types read by the consistency checker.
//
// # Identity Types
//
//   - NodeID: Position of a node record in the node store (uint64)
//   - LabelID: Token id of a label (uint64)
//   - RecordID: Position of a dynamic record in a dynamic store (uint64)
//
// # Record Types
//
//   - NodeRecord: Fixed-size node record carrying an encoded labels field
//   - DynamicRecord: Fixed-size block of a singly linked overflow chain
//
// All records are read-only snapshots. A record that does not exist in the
// store is represented by a record whose InUse flag is false.
package model
