package resource

import (
	"context"
	"sync/atomic"

	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

// BerthPool is a port's dock capacity. Acquire blocks while every berth is taken.
type BerthPool struct {
	sem      *CountingSemaphore
	occupied atomic.Int64
}

// NewBerthPool creates a pool with total berths
func NewBerthPool(total int) (*BerthPool, error) {
	if total < 1 {
		return nil, shared.NewValidationError("berths", "a port needs at least one berth")
	}
	return &BerthPool{sem: NewCountingSemaphore(total)}, nil
}

// Acquire docks one ship, waiting for a free berth
func (b *BerthPool) Acquire(ctx context.Context) error {
	if err := b.sem.Reserve(ctx, 1); err != nil {
		return err
	}
	b.occupied.Add(1)
	return nil
}

// Release frees one berth. The occupancy count drops before the permit is handed back,
// so Occupied never reads above Total.
func (b *BerthPool) Release() error {
	b.occupied.Add(-1)
	if err := b.sem.Release(1); err != nil {
		b.occupied.Add(1)
		return err
	}
	return nil
}

// Occupied returns how many berths are in use
func (b *BerthPool) Occupied() int {
	return int(b.occupied.Load())
}

// Total returns the configured berth count
func (b *BerthPool) Total() int {
	return b.sem.Capacity()
}

// Free returns how many ships could dock right now
func (b *BerthPool) Free() int {
	return b.sem.Peek()
}

// Close tears the pool down; repeated calls are no-ops
func (b *BerthPool) Close() error {
	return b.sem.Close()
}
