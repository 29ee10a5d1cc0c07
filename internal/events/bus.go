package events

import (
	"context"
	"sync"
)

// DefaultBufferSize is the channel capacity backing a Bus. Emit blocks
// once the buffer is full, giving the Executor natural backpressure
// against a slow UI consumer.
const DefaultBufferSize = 256

// Bus is a single-producer, single-consumer FIFO of Events. The Executor
// is the only producer; exactly one consumer task should range over
// Events(). The consumer's contract (per spec §4.7) is to drain every
// event emitted for a submission before the next prompt is shown —
// WaitDrained gives callers a way to block on that without a second
// channel.
type Bus struct {
	ch chan Event

	mu      sync.Mutex
	pending int
	drained chan struct{}

	closeOnce sync.Once
}

// NewBus creates a Bus with the given buffer size (DefaultBufferSize if
// size <= 0).
func NewBus(size int) *Bus {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Bus{
		ch:      make(chan Event, size),
		drained: make(chan struct{}),
	}
}

// Emit pushes an event onto the bus, blocking if the buffer is full or
// until ctx is cancelled.
func (b *Bus) Emit(ctx context.Context, event Event) error {
	b.mu.Lock()
	b.pending++
	b.mu.Unlock()

	select {
	case b.ch <- event:
		return nil
	case <-ctx.Done():
		b.mu.Lock()
		b.pending--
		b.mu.Unlock()
		return ctx.Err()
	}
}

// Events returns the receive-only channel the consumer ranges over. Each
// event read must be followed by a call to Ack once rendering completes,
// so WaitDrained can observe the queue reaching empty.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Ack marks one event as fully rendered by the consumer.
func (b *Bus) Ack() {
	b.mu.Lock()
	b.pending--
	drained := b.pending <= 0
	b.mu.Unlock()
	if drained {
		select {
		case b.drained <- struct{}{}:
		default:
		}
	}
}

// WaitDrained blocks until every emitted event has been Acked, or ctx is
// cancelled. Callers use this before prompting the user again.
func (b *Bus) WaitDrained(ctx context.Context) error {
	for {
		b.mu.Lock()
		empty := b.pending <= 0
		b.mu.Unlock()
		if empty {
			return nil
		}
		select {
		case <-b.drained:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close closes the underlying channel. Safe to call more than once.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.ch) })
}
