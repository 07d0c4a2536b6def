// Package testutil provides testing utilities for graphcheck.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe random number generator and helpers for
// generating label sets with a realistic, skewed label popularity.
//
// # Random Label Sets
//
//	rng := testutil.NewRNG(seed)
//	labels := rng.LabelSet(5, 32)   // up to 5 distinct labels out of 32
//	sets := rng.LabelSets(1000, 5, 32)
package testutil
