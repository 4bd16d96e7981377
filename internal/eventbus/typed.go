// Package eventbus provides the in-process publish/subscribe plumbing that
// connects the scheduling core to observers such as metric collectors and
// notification bridges. Delivery is best effort: a subscriber that stops
// draining its channel loses events instead of stalling the publisher, so a
// slow metrics sink can never hold up a scheduling pass.
package eventbus

import "sync"

// defaultBuf is the channel capacity handed to subscribers that do not ask
// for one. A pass emits bursts of rejection events, so a little slack keeps
// ordinary consumers lossless.
const defaultBuf = 8

// TypedBus is a type-safe publish/subscribe bus for events of type T. The
// core uses one per event kind (weight edits, pass rejections) so observers
// never type-assert.
type TypedBus[T any] struct {
	mu     sync.RWMutex
	subs   []chan T
	closed bool
}

// NewTyped creates a new TypedBus.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{} }

// Publish sends the event to all subscribers. Delivery is non-blocking;
// events are dropped for subscribers with a full buffer.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber with the default buffer.
func (b *TypedBus[T]) Subscribe() <-chan T {
	return b.SubscribeBuf(defaultBuf)
}

// SubscribeBuf registers a subscriber whose channel holds up to n events.
func (b *TypedBus[T]) SubscribeBuf(n int) <-chan T {
	if n < 1 {
		n = 1
	}
	ch := make(chan T, n)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes the bus and all subscriber channels.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
