package coordination

import (
	"context"
	"sync"
)

// Barrier releases every waiter once n parties arrived.
// It is single-use: the coordinator creates one per setup phase.
type Barrier struct {
	mu      sync.Mutex
	pending int
	done    chan struct{}
}

// NewBarrier creates a barrier for n parties. A barrier for zero parties is already open.
func NewBarrier(n int) *Barrier {
	b := &Barrier{pending: n, done: make(chan struct{})}
	if n <= 0 {
		close(b.done)
	}
	return b
}

// Arrive counts one party. Extra arrivals are ignored.
func (b *Barrier) Arrive() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending <= 0 {
		return
	}
	b.pending--
	if b.pending == 0 {
		close(b.done)
	}
}

// Wait blocks until every party arrived or ctx is done.
func (b *Barrier) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns how many parties have not arrived yet
func (b *Barrier) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// StartGate holds every agent until the coordinator opens it
type StartGate struct {
	once sync.Once
	open chan struct{}
}

// NewStartGate creates a closed gate
func NewStartGate() *StartGate {
	return &StartGate{open: make(chan struct{})}
}

// Open releases every current and future waiter. Safe to call more than once.
func (g *StartGate) Open() {
	g.once.Do(func() { close(g.open) })
}

// Wait blocks until the gate opens or ctx is done.
func (g *StartGate) Wait(ctx context.Context) error {
	select {
	case <-g.open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
