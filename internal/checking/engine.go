package checking

import (
	"context"

	"github.com/hupe1980/graphcheck/internal/store"
)

// ComparativeChecker validates a subject of type S against a related entity
// of type O and reports findings through R.
type ComparativeChecker[S, O, R any] interface {
	CheckReference(ctx context.Context, subject S, other O, engine *Engine[S, R], records store.RecordAccess)
}

// engineState is shared by an engine and every engine rebound from it.
type engineState struct {
	err error
}

// Engine owns the subject of the current check, the report bound to that
// check and the record access used to resolve references.
//
// An Engine is used by a single goroutine.
type Engine[S, R any] struct {
	subject S
	report  R
	records store.RecordAccess
	state   *engineState
}

// NewEngine creates an engine for subject reporting to r.
func NewEngine[S, R any](subject S, r R, records store.RecordAccess) *Engine[S, R] {
	return &Engine[S, R]{
		subject: subject,
		report:  r,
		records: records,
		state:   &engineState{},
	}
}

// Rebind returns an engine for a nested check on subject. It shares the
// report, the record access and the fatal error with e.
func Rebind[S, T, R any](e *Engine[S, R], subject T) *Engine[T, R] {
	return &Engine[T, R]{
		subject: subject,
		report:  e.report,
		records: e.records,
		state:   e.state,
	}
}

// Subject returns the entity under check.
func (e *Engine[S, R]) Subject() S {
	return e.subject
}

// Report returns the report handle bound to the current check.
func (e *Engine[S, R]) Report() R {
	return e.report
}

// Records returns the record access of the pass.
func (e *Engine[S, R]) Records() store.RecordAccess {
	return e.records
}

// Err returns the first store read error, if any.
func (e *Engine[S, R]) Err() error {
	return e.state.err
}

// Fail records a fatal error. Only the first error is kept.
func (e *Engine[S, R]) Fail(err error) {
	if e.state.err == nil {
		e.state.err = err
	}
}

// ComparativeCheck resolves ref and hands the engine subject and the
// resolved entity to checker. Entities that are not in use are forwarded
// like any other. A read error is recorded on the engine; once an error is
// recorded every later dispatch is a no-op.
func ComparativeCheck[S, O, R any](ctx context.Context, engine *Engine[S, R], ref *store.Reference[O], checker ComparativeChecker[S, O, R]) {
	if engine.Err() != nil {
		return
	}

	other, err := ref.Resolve(ctx)
	if err != nil {
		engine.Fail(err)
		return
	}

	checker.CheckReference(ctx, engine.subject, other, engine, engine.records)
}
