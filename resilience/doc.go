// Package resilience provides the retry and concurrency-limiting primitives
// the scheduler is built on.
//
//   - Retry: attempts an operation with capped exponential backoff and hands
//     back the last attempt's value.
//   - Bulkhead: bounds how many operations run at once; unbounded when
//     MaxConcurrent is zero.
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "workers", MaxConcurrent: 4})
//	if err := bh.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer bh.Release()
//	_, err := resilience.Retry(ctx, resilience.RetryConfig{MaxAttempts: 3}, attemptOnce)
package resilience
