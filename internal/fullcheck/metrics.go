package fullcheck

import "time"

// MetricsObserver receives pass progress.
// Implementations must be safe for concurrent use.
type MetricsObserver interface {
	// OnRange is called after a range was checked or failed.
	OnRange(rangeID uint64, nodes, findings int, duration time.Duration, err error)
	// OnPass is called once the pass finished.
	OnPass(ranges int, nodes int64, findings int, duration time.Duration, err error)
}

// NoopMetricsObserver discards all observations.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnRange(uint64, int, int, time.Duration, error) {}
func (NoopMetricsObserver) OnPass(int, int64, int, time.Duration, error)   {}
