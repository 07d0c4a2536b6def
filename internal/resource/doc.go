// Package resource bounds the resources a consistency pass may use.
//
// The Controller manages two resource types:
//
//   - Range loads: at most MaxConcurrentLoads label index ranges are decoded
//     and held in memory at the same time (weighted semaphore)
//   - IO: store and index reads are throttled to IOLimitBytesPerSec (token
//     bucket)
//
// # Usage
//
//	rc := resource.NewController(resource.Config{
//	    MaxConcurrentLoads: 8,
//	    IOLimitBytesPerSec: 100 * 1024 * 1024, // 100MB/s
//	})
//
//	if err := rc.AcquireLoad(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseLoad()
//
//	if err := rc.AcquireIO(ctx, 4096); err != nil {
//	    return err
//	}
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
