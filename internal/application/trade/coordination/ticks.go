package coordination

import "sync"

// TickBroadcaster fans the coordinator's day counter out to every agent.
// Each subscriber holds only the latest day: a slow agent skips
// intermediate ticks rather than blocking the clock.
type TickBroadcaster struct {
	mu          sync.Mutex
	subscribers map[string]chan int
	closed      bool
}

// NewTickBroadcaster creates a broadcaster with no subscribers
func NewTickBroadcaster() *TickBroadcaster {
	return &TickBroadcaster{subscribers: make(map[string]chan int)}
}

// Subscribe registers a named agent and returns its tick channel.
// Subscribing twice with the same name returns the same channel.
func (b *TickBroadcaster) Subscribe(name string) <-chan int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[name]; ok {
		return ch
	}
	ch := make(chan int, 1)
	if b.closed {
		close(ch)
	}
	b.subscribers[name] = ch
	return ch
}

// Broadcast publishes day to every subscriber without blocking
func (b *TickBroadcaster) Broadcast(day int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, ch := range b.subscribers {
		// Replace a tick the subscriber has not consumed yet
		select {
		case <-ch:
		default:
		}
		ch <- day
	}
}

// Close closes every subscriber channel. Safe to call more than once.
func (b *TickBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
}
