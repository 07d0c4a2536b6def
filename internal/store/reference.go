package store

import "context"

// FetchFunc loads the entity with the given id.
type FetchFunc[T any] func(ctx context.Context, id uint64) (T, error)

// Reference is a deferred handle to an entity that may not have been read
// yet. It is resolved at most once; later calls return the memoized value.
//
// A Reference is owned by a single check and must not be shared between
// goroutines.
type Reference[T any] struct {
	id       uint64
	fetch    FetchFunc[T]
	value    T
	err      error
	resolved bool
}

// NewReference returns an unresolved reference to id.
func NewReference[T any](id uint64, fetch FetchFunc[T]) *Reference[T] {
	return &Reference[T]{id: id, fetch: fetch}
}

// Direct returns a reference that is already materialized.
func Direct[T any](id uint64, value T) *Reference[T] {
	return &Reference[T]{id: id, value: value, resolved: true}
}

// ID returns the id the reference points to.
func (r *Reference[T]) ID() uint64 {
	return r.id
}

// Resolved reports whether the entity has been read.
func (r *Reference[T]) Resolved() bool {
	return r.resolved
}

// Resolve reads the entity on first call and returns the memoized result
// afterwards.
func (r *Reference[T]) Resolve(ctx context.Context) (T, error) {
	if r.resolved {
		return r.value, r.err
	}
	r.value, r.err = r.fetch(ctx, r.id)
	r.resolved = true
	r.fetch = nil
	return r.value, r.err
}
