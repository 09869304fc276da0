package cache

import (
	"sync/atomic"
	"time"
)

type entry[T any] struct {
	value     T
	version   uint64
	updatedAt time.Time
}

// Latest holds the most recently set value. Safe for concurrent use.
// The zero value is ready to use and empty.
type Latest[T any] struct {
	current atomic.Pointer[entry[T]]
	now     func() time.Time
}

// NewLatest creates an empty Latest.
func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{}
}

// NewLatestWithClock creates an empty Latest that stamps updates using now.
func NewLatestWithClock[T any](now func() time.Time) *Latest[T] {
	return &Latest[T]{now: now}
}

// Set replaces the cached value and returns its version (1 for the first Set).
// Intended for a single writer; concurrent writers still never tear, but the
// last writer to store wins.
func (c *Latest[T]) Set(v T) uint64 {
	var version uint64 = 1
	if prev := c.current.Load(); prev != nil {
		version = prev.version + 1
	}

	c.current.Store(&entry[T]{
		value:     v,
		version:   version,
		updatedAt: c.clock(),
	})
	return version
}

// Get returns the current value, or false before the first Set.
func (c *Latest[T]) Get() (T, bool) {
	e := c.current.Load()
	if e == nil {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Snapshot returns the current value together with its version.
// Version 0 means nothing has been set yet.
func (c *Latest[T]) Snapshot() (T, uint64) {
	e := c.current.Load()
	if e == nil {
		var zero T
		return zero, 0
	}
	return e.value, e.version
}

// Version returns the number of Set calls so far.
func (c *Latest[T]) Version() uint64 {
	if e := c.current.Load(); e != nil {
		return e.version
	}
	return 0
}

// UpdatedAt returns when the value was last set, or the zero time.
func (c *Latest[T]) UpdatedAt() time.Time {
	if e := c.current.Load(); e != nil {
		return e.updatedAt
	}
	return time.Time{}
}

func (c *Latest[T]) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}
