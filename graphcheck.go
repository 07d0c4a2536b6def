package graphcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/codec"
	"github.com/hupe1980/graphcheck/internal/fullcheck"
	"github.com/hupe1980/graphcheck/internal/labelindex"
	"github.com/hupe1980/graphcheck/internal/report"
	"github.com/hupe1980/graphcheck/internal/resource"
	"github.com/hupe1980/graphcheck/internal/store"
)

type (
	// Finding is one reported inconsistency.
	Finding = report.Finding
	// Kind identifies the type of a finding.
	Kind = report.Kind
	// Summary counts findings per kind.
	Summary = report.Summary
)

// Finding kinds.
const (
	KindNodeNotInUse        = report.KindNodeNotInUse
	KindNodeMissingLabel    = report.KindNodeMissingLabel
	KindLabelChainCycle     = report.KindLabelChainCycle
	KindLabelRecordNotInUse = report.KindLabelRecordNotInUse
)

// Result is the outcome of a successful pass.
type Result struct {
	Findings []Finding
	Summary  Summary
	// Ranges is the number of label index ranges checked.
	Ranges int
	// Nodes is the number of node records checked.
	Nodes int64
	// BytesRead is the number of store bytes read.
	BytesRead int64
	Duration  time.Duration

	codec codec.Codec
}

// Clean reports whether the pass found no inconsistencies.
func (r *Result) Clean() bool {
	return r.Summary.Clean()
}

type resultJSON struct {
	Findings   []Finding `json:"findings"`
	Summary    Summary   `json:"summary"`
	Ranges     int       `json:"ranges"`
	Nodes      int64     `json:"nodes"`
	BytesRead  int64     `json:"bytes_read"`
	DurationMS int64     `json:"duration_ms"`
}

// WriteJSON encodes the result with the configured codec and writes it to w.
func (r *Result) WriteJSON(w io.Writer) error {
	c := r.codec
	if c == nil {
		c = codec.Default
	}
	findings := r.Findings
	if findings == nil {
		findings = []Finding{}
	}
	data, err := c.Marshal(resultJSON{
		Findings:   findings,
		Summary:    r.Summary,
		Ranges:     r.Ranges,
		Nodes:      r.Nodes,
		BytesRead:  r.BytesRead,
		DurationMS: r.Duration.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("encode result with %s: %w", c.Name(), err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// CheckDir checks the store in the local directory dir.
func CheckDir(ctx context.Context, dir string, optFns ...Option) (*Result, error) {
	return Check(ctx, blobstore.NewLocalStore(dir), optFns...)
}

// Check runs a label index consistency pass over the store files in bs.
//
// Inconsistencies are returned as findings of the Result. An error means the
// pass could not be completed: a store file is missing (ErrStoreNotFound),
// structurally unreadable (*ErrCorruptStore) or a read failed.
func Check(ctx context.Context, bs blobstore.BlobStore, optFns ...Option) (*Result, error) {
	o := applyOptions(optFns)
	if err := o.validate(); err != nil {
		return nil, err
	}

	if o.cacheBlocks > 0 {
		cached, err := blobstore.NewCachingStore(bs, o.cacheBlocks, o.cacheBlockSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
		}
		bs = cached
	}

	rc := resource.NewController(resource.Config{
		MaxConcurrentLoads: int64(o.workers),
		IOLimitBytesPerSec: o.ioLimit,
	})

	stores, err := store.Open(ctx, bs, store.WithReadLimiter(rc))
	o.logger.LogOpen(ctx, store.NodeStoreName, err)
	if err != nil {
		return nil, translateError(err)
	}
	defer stores.Close()

	index, err := labelindex.Open(ctx, bs, labelindex.WithReadLimiter(rc))
	o.logger.LogOpen(ctx, labelindex.IndexName, err)
	if err != nil {
		return nil, translateError(err)
	}
	defer index.Close()

	checker := fullcheck.New(stores, index,
		fullcheck.WithWorkers(o.workers),
		fullcheck.WithLogger(o.logger.Logger),
		fullcheck.WithMetricsObserver(metricsObserver{mc: o.metricsCollector}),
		fullcheck.WithResourceController(rc),
	)

	res, err := checker.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, translateError(err)
	}

	recordFindings(o.metricsCollector, res.Findings)
	o.logger.LogSummary(ctx, res.Summary)

	return &Result{
		Findings:  res.Findings,
		Summary:   res.Summary,
		Ranges:    res.Ranges,
		Nodes:     res.Nodes,
		BytesRead: rc.BytesRead(),
		Duration:  res.Duration,
		codec:     o.codec,
	}, nil
}
