package admission

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultCapacity is the number of concurrent connections admitted by default.
const DefaultCapacity = 1000

// Controller bounds the number of concurrently held permits.
// Safe for concurrent use.
type Controller struct {
	sem      *semaphore.Weighted
	capacity int64
	inUse    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

// Permit is one occupied slot. Release returns it; extra calls are no-ops.
type Permit struct {
	c    *Controller
	once sync.Once
}

// New creates a Controller admitting up to capacity holders at once.
func New(capacity int) (*Controller, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Acquire blocks until a slot is free, ctx is done, or the controller shuts down.
// Shutdown takes precedence: once it happens every pending and later call
// returns ErrShuttingDown.
func (c *Controller) Acquire(ctx context.Context) (*Permit, error) {
	if c.ctx.Err() != nil {
		return nil, ErrShuttingDown
	}

	acqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	if err := c.sem.Acquire(acqCtx, 1); err != nil {
		if c.ctx.Err() != nil {
			return nil, ErrShuttingDown
		}
		return nil, err
	}

	if c.ctx.Err() != nil {
		c.sem.Release(1)
		return nil, ErrShuttingDown
	}

	c.inUse.Add(1)
	return &Permit{c: c}, nil
}

// TryAcquire takes a slot without waiting.
func (c *Controller) TryAcquire() (*Permit, bool) {
	if c.ctx.Err() != nil {
		return nil, false
	}
	if !c.sem.TryAcquire(1) {
		return nil, false
	}
	c.inUse.Add(1)
	return &Permit{c: c}, true
}

// Shutdown fails every pending and future Acquire with ErrShuttingDown.
// Outstanding permits stay valid and may still be released.
func (c *Controller) Shutdown() {
	c.cancel()
}

// ShuttingDown reports whether Shutdown was called.
func (c *Controller) ShuttingDown() bool {
	return c.ctx.Err() != nil
}

// Capacity returns the configured number of slots.
func (c *Controller) Capacity() int {
	return int(c.capacity)
}

// InUse returns the number of outstanding permits.
func (c *Controller) InUse() int {
	return int(c.inUse.Load())
}

// Available returns the number of free slots.
func (c *Controller) Available() int {
	return int(c.capacity - c.inUse.Load())
}

// Release returns the slot. Safe to call more than once and on a nil Permit.
func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		p.c.inUse.Add(-1)
		p.c.sem.Release(1)
	})
}
