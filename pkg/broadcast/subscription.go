package broadcast

import (
	"context"
	"sync"
)

// Subscription is one consumer's handle into a Broadcaster.
// Next must be called from a single goroutine; Close may be called from any.
type Subscription[T any] struct {
	b *Broadcaster[T]

	mu     sync.Mutex
	buf    []T
	head   int
	size   int
	lagged uint64
	closed bool

	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newSubscription[T any](b *Broadcaster[T], capacity int) *Subscription[T] {
	return &Subscription[T]{
		b:      b,
		buf:    make([]T, capacity),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Next returns the next value. It blocks until a value is published, ctx is
// done, or the subscription is closed. When values were dropped since the last
// call it returns a *LaggedError first, without consuming a value.
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		s.mu.Lock()
		if s.lagged > 0 {
			n := s.lagged
			s.lagged = 0
			s.mu.Unlock()
			return zero, &LaggedError{Count: n}
		}
		if s.size > 0 {
			v := s.buf[s.head]
			s.buf[s.head] = zero
			s.head = (s.head + 1) % len(s.buf)
			s.size--
			s.mu.Unlock()
			return v, nil
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return zero, ErrClosed
		}

		select {
		case <-s.notify:
		case <-s.done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// TryNext returns the next buffered value without blocking.
// The boolean is false when nothing is pending.
func (s *Subscription[T]) TryNext() (T, bool, error) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lagged > 0 {
		n := s.lagged
		s.lagged = 0
		return zero, false, &LaggedError{Count: n}
	}
	if s.size == 0 {
		if s.closed {
			return zero, false, ErrClosed
		}
		return zero, false, nil
	}
	v := s.buf[s.head]
	s.buf[s.head] = zero
	s.head = (s.head + 1) % len(s.buf)
	s.size--
	return v, true, nil
}

// Pending returns the number of buffered values.
func (s *Subscription[T]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Close unsubscribes from future fan-out and discards buffered values.
// Idempotent.
func (s *Subscription[T]) Close() {
	s.b.unsubscribe(s)

	s.mu.Lock()
	var zero T
	for i := range s.buf {
		s.buf[i] = zero
	}
	s.head, s.size, s.lagged = 0, 0, 0
	s.mu.Unlock()

	s.markClosed()
}

// Done is closed once the subscription is closed.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// push enqueues v and reports whether an older value was dropped to make room.
func (s *Subscription[T]) push(v T) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}

	dropped := false
	if s.size == len(s.buf) {
		s.head = (s.head + 1) % len(s.buf)
		s.size--
		s.lagged++
		dropped = true
	}
	s.buf[(s.head+s.size)%len(s.buf)] = v
	s.size++
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return dropped
}

func (s *Subscription[T]) markClosed() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)
	})
}
