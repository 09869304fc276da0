package admission_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pricefeed/core/admission"
)

func TestNew(t *testing.T) {
	t.Parallel()

	ctl, err := admission.New(0)
	assert.ErrorIs(t, err, admission.ErrInvalidCapacity)
	assert.Nil(t, ctl)

	ctl, err = admission.New(3)
	require.NoError(t, err)
	assert.Equal(t, 3, ctl.Capacity())
	assert.Equal(t, 3, ctl.Available())
	assert.Zero(t, ctl.InUse())
}

func TestController_AcquireUpToCapacity(t *testing.T) {
	t.Parallel()

	ctl, err := admission.New(2)
	require.NoError(t, err)

	ctx := context.Background()
	p1, err := ctl.Acquire(ctx)
	require.NoError(t, err)
	p2, err := ctl.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ctl.InUse())
	assert.Zero(t, ctl.Available())

	_, ok := ctl.TryAcquire()
	assert.False(t, ok)

	acquired := make(chan *admission.Permit, 1)
	go func() {
		p, err := ctl.Acquire(ctx)
		if err == nil {
			acquired <- p
		}
	}()

	select {
	case <-acquired:
		t.Fatal("third acquire must block while capacity is exhausted")
	case <-time.After(50 * time.Millisecond):
	}

	p1.Release()

	select {
	case p3 := <-acquired:
		assert.Equal(t, 2, ctl.InUse())
		p3.Release()
	case <-time.After(time.Second):
		t.Fatal("third acquire did not proceed after a release")
	}

	p2.Release()
	assert.Zero(t, ctl.InUse())
}

func TestPermit_ReleaseIdempotent(t *testing.T) {
	t.Parallel()

	ctl, err := admission.New(1)
	require.NoError(t, err)

	p, ok := ctl.TryAcquire()
	require.True(t, ok)

	p.Release()
	p.Release()
	assert.Equal(t, 1, ctl.Available())
	assert.Zero(t, ctl.InUse())

	var nilPermit *admission.Permit
	nilPermit.Release()
}

func TestController_AcquireHonoursContext(t *testing.T) {
	t.Parallel()

	ctl, err := admission.New(1)
	require.NoError(t, err)
	p, ok := ctl.TryAcquire()
	require.True(t, ok)
	defer p.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = ctl.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, ctl.InUse())
}

func TestController_Shutdown(t *testing.T) {
	t.Parallel()

	ctl, err := admission.New(1)
	require.NoError(t, err)
	held, ok := ctl.TryAcquire()
	require.True(t, ok)

	errCh := make(chan error, 1)
	go func() {
		_, err := ctl.Acquire(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	ctl.Shutdown()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, admission.ErrShuttingDown)
	case <-time.After(time.Second):
		t.Fatal("pending acquire was not failed by shutdown")
	}

	assert.True(t, ctl.ShuttingDown())
	_, err = ctl.Acquire(context.Background())
	assert.ErrorIs(t, err, admission.ErrShuttingDown)
	_, ok = ctl.TryAcquire()
	assert.False(t, ok)

	held.Release()
	assert.Zero(t, ctl.InUse())
}

func TestController_NeverExceedsCapacity(t *testing.T) {
	t.Parallel()

	const capacity = 5
	ctl, err := admission.New(capacity)
	require.NoError(t, err)

	var current, peak atomic.Int64
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := ctl.Acquire(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			defer p.Release()

			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			current.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(capacity))
	assert.Zero(t, ctl.InUse())
}
