package fullcheck

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/graphcheck/internal/checking"
	"github.com/hupe1980/graphcheck/internal/labelindex"
	"github.com/hupe1980/graphcheck/internal/report"
	"github.com/hupe1980/graphcheck/internal/resource"
	"github.com/hupe1980/graphcheck/internal/store"
)

// DocumentSource provides the label scan documents of a pass.
// labelindex.Reader implements it.
type DocumentSource interface {
	RangeCount() int
	Document(ctx context.Context, i int) (*labelindex.Document, error)
}

// Result is the outcome of a pass.
type Result struct {
	Findings []report.Finding
	Summary  report.Summary
	Ranges   int
	Nodes    int64
	Duration time.Duration
}

// Checker runs label index consistency passes.
type Checker struct {
	records store.RecordAccess
	index   DocumentSource

	workers            int
	logger             *slog.Logger
	metrics            MetricsObserver
	resourceController *resource.Controller
}

// Option defines a configuration option for the Checker.
type Option func(*Checker)

// WithWorkers sets the number of concurrent workers.
// Non-positive values select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Checker) {
		c.workers = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = l
	}
}

// WithMetricsObserver sets the metrics observer.
func WithMetricsObserver(observer MetricsObserver) Option {
	return func(c *Checker) {
		c.metrics = observer
	}
}

// WithResourceController bounds concurrent range loads through rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(c *Checker) {
		c.resourceController = rc
	}
}

// New creates a Checker over records and the documents of index.
func New(records store.RecordAccess, index DocumentSource, opts ...Option) *Checker {
	c := &Checker{
		records: records,
		index:   index,
		logger:  slog.New(slog.DiscardHandler),
		metrics: NoopMetricsObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers <= 0 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Workers returns the number of workers a pass uses.
func (c *Checker) Workers() int {
	return c.workers
}

// Run checks every node referred to by the label index.
func (c *Checker) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	ranges := c.index.RangeCount()
	workers := max(1, min(c.workers, ranges))

	c.logger.InfoContext(ctx, "consistency check started", "ranges", ranges, "workers", workers)

	collector := report.NewCollector()
	var (
		next  atomic.Int64
		nodes atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		buf := collector.NewBuffer()
		g.Go(func() error {
			for {
				i := int(next.Add(1) - 1)
				if i >= ranges {
					return nil
				}
				n, err := c.checkRange(gctx, i, buf)
				nodes.Add(int64(n))
				if err != nil {
					return err
				}
			}
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	res := &Result{
		Ranges:   ranges,
		Nodes:    nodes.Load(),
		Duration: time.Since(start),
	}
	if err == nil {
		res.Findings = collector.Findings()
		res.Summary = report.Summarize(res.Findings)
	}

	c.metrics.OnPass(ranges, res.Nodes, res.Summary.Total, res.Duration, err)
	if err != nil {
		c.logger.ErrorContext(ctx, "consistency check failed", "error", err, "duration", res.Duration)
		return nil, err
	}

	c.logger.InfoContext(ctx, "consistency check completed",
		"ranges", ranges,
		"nodes", res.Nodes,
		"findings", res.Summary.Total,
		"duration", res.Duration,
	)
	return res, nil
}

// checkRange checks all nodes of range i and returns how many were checked.
func (c *Checker) checkRange(ctx context.Context, i int, buf *report.Buffer) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := c.resourceController.AcquireLoad(ctx); err != nil {
		return 0, err
	}
	defer c.resourceController.ReleaseLoad()

	start := time.Now()
	doc, err := c.index.Document(ctx, i)
	if err != nil {
		return 0, fmt.Errorf("load label index range %d: %w", i, err)
	}

	before := buf.Len()
	buf.SetDocument(doc.ID())

	engine := checking.NewLabelScanEngine(doc, buf, c.records)
	var check checking.LabelScanDocumentToNodeRecordCheck

	ids := doc.Nodes()
	checked := 0
	for _, id := range ids {
		check.CheckNode(ctx, engine, id)
		if engine.Err() != nil {
			break
		}
		checked++
	}

	err = engine.Err()
	found := buf.Len() - before
	c.metrics.OnRange(doc.ID(), checked, found, time.Since(start), err)
	if err != nil {
		return checked, fmt.Errorf("check label index range %d: %w", doc.ID(), err)
	}

	c.logger.DebugContext(ctx, "range checked",
		"range", doc.ID(),
		"nodes", checked,
		"findings", found,
	)
	return checked, nil
}
