// Package conv provides checked integer conversions for values that are
// written to or read from store files.
//
// Offsets and lengths decoded from disk are untrusted and must be range
// checked before they are used as Go ints or file offsets. Conversions that
// are bounded by construction use plain casts.
package conv
