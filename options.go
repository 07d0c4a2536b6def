package graphcheck

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/codec"
)

type options struct {
	codec            codec.Codec
	workers          int
	metricsCollector MetricsCollector
	logger           *Logger
	ioLimit          int64
	cacheBlocks      int
	cacheBlockSize   int64
}

// Option configures a Check.
type Option func(*options)

// WithCodec configures the codec used by Result.WriteJSON.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithWorkers sets the number of label index ranges checked concurrently.
// Zero selects GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring passes.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &graphcheck.BasicMetricsCollector{}
//	res, _ := graphcheck.CheckDir(ctx, dir, graphcheck.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
//	fmt.Printf("Ranges: %d, Avg latency: %dns\n", stats.RangeCount, stats.RangeAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := graphcheck.NewJSONLogger(slog.LevelInfo)
//	res, _ := graphcheck.CheckDir(ctx, dir, graphcheck.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithIOLimit throttles store reads to bytesPerSec. Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithBlockCache caches up to blocks blocks of blockSize bytes of every
// store file. Useful for remote stores, where node and chain records are
// read one at a time. A non-positive blockSize selects
// blobstore.DefaultBlockSize.
func WithBlockCache(blocks int, blockSize int64) Option {
	return func(o *options) {
		o.cacheBlocks = blocks
		o.cacheBlockSize = blockSize
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.cacheBlocks > 0 && o.cacheBlockSize <= 0 {
		o.cacheBlockSize = blobstore.DefaultBlockSize
	}
	return o
}

func (o *options) validate() error {
	if o.workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidOptions, o.workers)
	}
	if o.ioLimit < 0 {
		return fmt.Errorf("%w: io limit must not be negative, got %d", ErrInvalidOptions, o.ioLimit)
	}
	if o.cacheBlocks < 0 {
		return fmt.Errorf("%w: block cache size must not be negative, got %d", ErrInvalidOptions, o.cacheBlocks)
	}
	return nil
}
