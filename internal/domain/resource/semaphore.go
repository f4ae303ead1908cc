package resource

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

const drainAttempts = 8

// CountingSemaphore models a claimable quantity (berths, reservable tons).
//
// Reservations are first-come-first-served: a blocked large request holds back
// smaller ones behind it. Peek is a snapshot, not a lease; a caller that peeks
// and then reserves must tolerate the value shrinking in between.
type CountingSemaphore struct {
	capacity int64
	sem      *semaphore.Weighted

	mu     sync.Mutex
	held   int64
	closed bool
}

// NewCountingSemaphore creates a semaphore whose value and capacity start at value.
// A non-positive value yields a semaphore that can never be reserved.
func NewCountingSemaphore(value int) *CountingSemaphore {
	if value < 0 {
		value = 0
	}
	return &CountingSemaphore{
		capacity: int64(value),
		sem:      semaphore.NewWeighted(int64(value)),
	}
}

// Capacity returns the value the semaphore was created with
func (s *CountingSemaphore) Capacity() int {
	return int(s.capacity)
}

// Peek returns the currently claimable value
func (s *CountingSemaphore) Peek() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	return int(s.capacity - s.held)
}

// Reserve blocks until n permits are available or ctx ends
func (s *CountingSemaphore) Reserve(ctx context.Context, n int) error {
	if n <= 0 {
		return shared.NewValidationError("tons", "reservation must be positive")
	}
	if int64(n) > s.capacity {
		return shared.NewReservationExceedsCapacityError(n, int(s.capacity))
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return shared.ErrResourceClosed
	}

	if err := s.sem.Acquire(ctx, int64(n)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.sem.Release(int64(n))
		return shared.ErrResourceClosed
	}
	s.held += int64(n)
	return nil
}

// TryReserve claims n permits only if they are free right now
func (s *CountingSemaphore) TryReserve(n int) bool {
	if n <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.sem.TryAcquire(int64(n)) {
		return false
	}
	s.held += int64(n)
	return true
}

// Release returns n permits. Releasing more than is held is an error.
func (s *CountingSemaphore) Release(n int) error {
	if n <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return shared.ErrResourceClosed
	}
	if int64(n) > s.held {
		return shared.NewOverReleaseError(n, int(s.held))
	}
	s.held -= int64(n)
	s.sem.Release(int64(n))
	return nil
}

// Drain claims every permit that is free at the moment of the call and returns how many.
// A reservation racing the drain keeps what it got; the drain takes the rest. ok is false
// when blocked reservers kept the drain from claiming anything, in which case the caller
// retries later.
func (s *CountingSemaphore) Drain() (drained int, ok bool) {
	for attempt := 0; attempt < drainAttempts; attempt++ {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return 0, true
		}
		free := s.capacity - s.held
		if free <= 0 {
			s.mu.Unlock()
			return 0, true
		}
		if s.sem.TryAcquire(free) {
			s.held += free
			s.mu.Unlock()
			return int(free), true
		}
		s.mu.Unlock()
		runtime.Gosched()
	}
	return 0, false
}

// Close tears the semaphore down. Calling it again is a no-op.
func (s *CountingSemaphore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close has been called
func (s *CountingSemaphore) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
