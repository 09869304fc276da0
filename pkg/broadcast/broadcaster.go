package broadcast

import (
	"sync"
	"sync/atomic"
)

// DefaultCapacity is used when New is called with a non-positive capacity.
const DefaultCapacity = 16

// Broadcaster fans every published value out to all live subscriptions.
// Publish never waits for a consumer: each subscription owns a bounded queue
// that drops its oldest entries on overflow.
type Broadcaster[T any] struct {
	mu       sync.RWMutex
	subs     map[*Subscription[T]]struct{}
	capacity int
	closed   bool
	onLag    func(uint64)

	published atomic.Uint64
}

// New creates a Broadcaster whose subscriptions buffer up to capacity values.
func New[T any](capacity int, opts ...Option) *Broadcaster[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	return &Broadcaster[T]{
		subs:     make(map[*Subscription[T]]struct{}),
		capacity: capacity,
		onLag:    o.onLag,
	}
}

// Subscribe registers a new subscription. It receives only values published
// after this call returns. Subscribing to a closed broadcaster returns an
// already closed subscription.
func (b *Broadcaster[T]) Subscribe() *Subscription[T] {
	s := newSubscription(b, b.capacity)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		s.markClosed()
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Publish delivers v to every live subscription. Safe for concurrent use, but
// ordering across subscriptions is only guaranteed for a single publisher.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	b.published.Add(1)

	for s := range b.subs {
		if s.push(v) && b.onLag != nil {
			b.onLag(1)
		}
	}
}

// Close stops fan-out. Subscriptions drain what they already buffered and
// then report ErrClosed. Close is idempotent.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*Subscription[T]]struct{})
	b.mu.Unlock()

	for s := range subs {
		s.markClosed()
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Published returns the total number of values published.
func (b *Broadcaster[T]) Published() uint64 {
	return b.published.Load()
}

// Capacity returns the per-subscription queue size.
func (b *Broadcaster[T]) Capacity() int {
	return b.capacity
}

func (b *Broadcaster[T]) unsubscribe(s *Subscription[T]) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}
