package checking

import (
	"context"
	"fmt"

	"github.com/hupe1980/graphcheck/internal/store"
	"github.com/hupe1980/graphcheck/model"
)

// ChainResultKind is the outcome of a chain walk.
type ChainResultKind uint8

const (
	// ChainWellFormed: every record was in use and the chain terminated.
	ChainWellFormed ChainResultKind = iota
	// ChainCycle: a record id was reached a second time.
	ChainCycle
	// ChainRecordNotInUse: the chain reached a record that is not in use.
	ChainRecordNotInUse
)

func (k ChainResultKind) String() string {
	switch k {
	case ChainWellFormed:
		return "well-formed"
	case ChainCycle:
		return "cycle"
	case ChainRecordNotInUse:
		return "record-not-in-use"
	default:
		return fmt.Sprintf("ChainResultKind(%d)", uint8(k))
	}
}

// ChainResult is the outcome of WalkChain.
type ChainResult struct {
	Kind ChainResultKind
	// Labels holds the labels of a well-formed chain in traversal order.
	Labels []model.LabelID
	// Record is the offending record of a cycle or a record not in use.
	Record *model.DynamicRecord
}

// WalkChain follows the dynamic label chain starting at head and collects
// the labels of every record. The walk stops at the first record that was
// already visited or is not in use.
func WalkChain(ctx context.Context, records store.RecordAccess, head *model.DynamicRecord) (ChainResult, error) {
	var ls []model.LabelID
	visited := make(map[model.RecordID]struct{})

	rec := head
	for {
		if _, ok := visited[rec.ID]; ok {
			return ChainResult{Kind: ChainCycle, Record: rec}, nil
		}
		if !rec.InUse {
			return ChainResult{Kind: ChainRecordNotInUse, Record: rec}, nil
		}

		ls = append(ls, rec.Labels()...)
		visited[rec.ID] = struct{}{}

		if !rec.HasNext() {
			return ChainResult{Kind: ChainWellFormed, Labels: ls}, nil
		}

		next, err := records.NodeLabels(rec.Next).Resolve(ctx)
		if err != nil {
			return ChainResult{}, fmt.Errorf("walk label chain at record %d: %w", rec.Next, err)
		}
		rec = next
	}
}

// ChainValidator receives the outcome of a chain walk.
type ChainValidator[S, R any] interface {
	OnWellFormedChain(ctx context.Context, subject S, labels []model.LabelID, engine *Engine[S, R], records store.RecordAccess)
	OnRecordChainCycle(subject S, record *model.DynamicRecord, engine *Engine[S, R])
	OnRecordNotInUse(subject S, record *model.DynamicRecord, engine *Engine[S, R])
}

// LabelChainWalker checks a subject against the head record of its label
// chain by walking the chain and passing the result to Validator.
type LabelChainWalker[S, R any] struct {
	Validator ChainValidator[S, R]
}

var _ ComparativeChecker[*model.NodeRecord, *model.DynamicRecord, any] = LabelChainWalker[*model.NodeRecord, any]{}

func (w LabelChainWalker[S, R]) CheckReference(ctx context.Context, subject S, head *model.DynamicRecord, engine *Engine[S, R], records store.RecordAccess) {
	result, err := WalkChain(ctx, records, head)
	if err != nil {
		engine.Fail(err)
		return
	}

	switch result.Kind {
	case ChainCycle:
		w.Validator.OnRecordChainCycle(subject, result.Record, engine)
	case ChainRecordNotInUse:
		w.Validator.OnRecordNotInUse(subject, result.Record, engine)
	default:
		w.Validator.OnWellFormedChain(ctx, subject, result.Labels, engine, records)
	}
}
