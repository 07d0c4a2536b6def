package graphcheck

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/graphcheck/internal/fullcheck"
	"github.com/hupe1980/graphcheck/internal/report"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
// Implementations must be safe for concurrent use.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    rangeHistogram prometheus.Histogram
//	    findings       *prometheus.CounterVec
//	}
//
//	func (p *PrometheusCollector) RecordFinding(kind graphcheck.Kind) {
//	    p.findings.WithLabelValues(kind.String()).Inc()
//	}
type MetricsCollector interface {
	// RecordRange is called after each label index range was checked.
	// nodes is the number of nodes checked, findings the number reported.
	RecordRange(nodes, findings int, duration time.Duration, err error)

	// RecordFinding is called once per finding of a successful pass.
	RecordFinding(kind Kind)

	// RecordPass is called once per pass.
	RecordPass(ranges int, nodes int64, findings int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRange(int, int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordFinding(Kind)                                {}
func (NoopMetricsCollector) RecordPass(int, int64, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RangeCount      atomic.Int64
	RangeErrors     atomic.Int64
	RangeTotalNanos atomic.Int64
	NodesChecked    atomic.Int64
	PassCount       atomic.Int64
	PassErrors      atomic.Int64
	PassTotalNanos  atomic.Int64

	NodeNotInUse        atomic.Int64
	NodeMissingLabel    atomic.Int64
	LabelChainCycle     atomic.Int64
	LabelRecordNotInUse atomic.Int64
}

// RecordRange implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRange(nodes, _ int, duration time.Duration, err error) {
	b.RangeCount.Add(1)
	b.RangeTotalNanos.Add(duration.Nanoseconds())
	b.NodesChecked.Add(int64(nodes))
	if err != nil {
		b.RangeErrors.Add(1)
	}
}

// RecordFinding implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFinding(kind Kind) {
	switch kind {
	case KindNodeNotInUse:
		b.NodeNotInUse.Add(1)
	case KindNodeMissingLabel:
		b.NodeMissingLabel.Add(1)
	case KindLabelChainCycle:
		b.LabelChainCycle.Add(1)
	case KindLabelRecordNotInUse:
		b.LabelRecordNotInUse.Add(1)
	}
}

// RecordPass implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPass(_ int, _ int64, _ int, duration time.Duration, err error) {
	b.PassCount.Add(1)
	b.PassTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PassErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RangeCount:          b.RangeCount.Load(),
		RangeErrors:         b.RangeErrors.Load(),
		RangeAvgNanos:       avg(b.RangeTotalNanos.Load(), b.RangeCount.Load()),
		NodesChecked:        b.NodesChecked.Load(),
		PassCount:           b.PassCount.Load(),
		PassErrors:          b.PassErrors.Load(),
		PassAvgNanos:        avg(b.PassTotalNanos.Load(), b.PassCount.Load()),
		NodeNotInUse:        b.NodeNotInUse.Load(),
		NodeMissingLabel:    b.NodeMissingLabel.Load(),
		LabelChainCycle:     b.LabelChainCycle.Load(),
		LabelRecordNotInUse: b.LabelRecordNotInUse.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RangeCount          int64
	RangeErrors         int64
	RangeAvgNanos       int64
	NodesChecked        int64
	PassCount           int64
	PassErrors          int64
	PassAvgNanos        int64
	NodeNotInUse        int64
	NodeMissingLabel    int64
	LabelChainCycle     int64
	LabelRecordNotInUse int64
}

// metricsObserver feeds pass progress into a MetricsCollector.
type metricsObserver struct {
	mc MetricsCollector
}

var _ fullcheck.MetricsObserver = metricsObserver{}

func (o metricsObserver) OnRange(_ uint64, nodes, findings int, duration time.Duration, err error) {
	o.mc.RecordRange(nodes, findings, duration, err)
}

func (o metricsObserver) OnPass(ranges int, nodes int64, findings int, duration time.Duration, err error) {
	o.mc.RecordPass(ranges, nodes, findings, duration, err)
}

// recordFindings reports every finding kind of a pass.
func recordFindings(mc MetricsCollector, findings []report.Finding) {
	for _, f := range findings {
		mc.RecordFinding(f.Kind)
	}
}
