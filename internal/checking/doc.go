// Package checking implements comparative record checks.
//
// A check validates a subject entity that is already in hand against a
// related entity behind a deferred store.Reference. The Engine resolves the
// reference and dispatches to a ComparativeChecker selected at the call
// site; checkers report findings through the report bound to the engine.
//
// Structural defects of dynamic record chains (cycles, records that are not
// in use) are findings, never errors. The only error a check can produce is
// a failure to read the store, which is recorded on the engine and stops all
// further dispatch.
package checking
