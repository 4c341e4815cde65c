package resilience

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead for metrics/logging.
	Name string
	// MaxConcurrent is the maximum number of concurrent calls.
	// Zero or negative means unbounded.
	MaxConcurrent int
	// OnAcquire is called when a slot is acquired.
	OnAcquire func(name string)
	// OnRelease is called when a slot is released.
	OnRelease func(name string)
}

// Bulkhead limits how many calls run at once. It is the worker pool bound of
// the scheduler: every task attempt sequence runs inside one slot.
type Bulkhead struct {
	config BulkheadConfig
	sem    *semaphore.Weighted
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	b := &Bulkhead{config: config}
	if config.MaxConcurrent > 0 {
		b.sem = semaphore.NewWeighted(int64(config.MaxConcurrent))
	}
	return b
}

// Acquire takes a slot, waiting until one is free or ctx is done. Every
// successful Acquire must be paired with Release.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.sem != nil {
		if err := b.sem.Acquire(ctx, 1); err != nil {
			return err
		}
	}
	if b.config.OnAcquire != nil {
		b.config.OnAcquire(b.config.Name)
	}
	return nil
}

// Release returns a slot taken by Acquire.
func (b *Bulkhead) Release() {
	if b.sem != nil {
		b.sem.Release(1)
	}
	if b.config.OnRelease != nil {
		b.config.OnRelease(b.config.Name)
	}
}
