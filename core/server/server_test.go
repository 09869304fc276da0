package server_test

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pricefeed/core/feed"
	"github.com/dmitrymomot/pricefeed/core/metrics"
	"github.com/dmitrymomot/pricefeed/core/server"
)

// serve starts srv on a loopback listener and stops it when the test ends.
func serve(t *testing.T, f server.Feed, opts ...server.Option) (*server.Server, <-chan error) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := server.New(ln.Addr().String(), f, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	require.Eventually(t, srv.Running, time.Second, time.Millisecond)
	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return srv, errCh
}

type client struct {
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, addr string) *client {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &client{conn: conn, r: bufio.NewReader(conn)}
}

func (c *client) readLine(t *testing.T) string {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := c.r.ReadString('\n')
	require.NoError(t, err)
	return line
}

// silent reports whether nothing arrives within d.
func (c *client) silent(t *testing.T, d time.Duration) bool {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(d)))
	_, err := c.r.ReadByte()
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func TestServer_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("stop when not running", func(t *testing.T) {
		t.Parallel()
		srv := server.New("127.0.0.1:0", feed.NewHub(1))
		assert.NoError(t, srv.Stop())
		assert.False(t, srv.Running())
		assert.Equal(t, "127.0.0.1:0", srv.Addr())
	})

	t.Run("missing address", func(t *testing.T) {
		t.Parallel()
		srv := server.New("", feed.NewHub(1))
		assert.ErrorIs(t, srv.Start(context.Background()), server.ErrMissingAddress)
	})

	t.Run("nil feed", func(t *testing.T) {
		t.Parallel()
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		srv := server.New(ln.Addr().String(), nil)
		assert.ErrorIs(t, srv.Serve(context.Background(), ln), server.ErrNilFeed)
	})

	t.Run("invalid capacity", func(t *testing.T) {
		t.Parallel()
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		srv := server.New(ln.Addr().String(), feed.NewHub(1), server.WithMaxConnections(0))
		assert.Error(t, srv.Serve(context.Background(), ln))
	})

	t.Run("start twice", func(t *testing.T) {
		t.Parallel()
		srv, _ := serve(t, feed.NewHub(1))
		assert.ErrorIs(t, srv.Start(context.Background()), server.ErrServerAlreadyRunning)
	})

	t.Run("start binds the configured address", func(t *testing.T) {
		t.Parallel()
		srv := server.New("127.0.0.1:0", feed.NewHub(1))
		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(ctx) }()

		require.Eventually(t, srv.Running, time.Second, time.Millisecond)
		assert.NotEqual(t, "127.0.0.1:0", srv.Addr())

		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("Start did not return after cancel")
		}
		assert.False(t, srv.Running())
	})
}

func TestServer_StopClosesConsumers(t *testing.T) {
	t.Parallel()

	hub := feed.NewHub(4)
	hub.Update("100.00")
	srv, errCh := serve(t, hub, server.WithShutdownTimeout(time.Second))

	c := dial(t, srv.Addr())
	assert.Equal(t, "100.00\n", c.readLine(t))
	require.Eventually(t, func() bool { return srv.ActiveConnections() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, srv.Stop())
	assert.False(t, srv.Running())
	assert.Zero(t, srv.ActiveConnections())

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after Stop")
	}

	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, err := c.r.ReadString('\n')
	assert.Error(t, err)
	assert.Zero(t, hub.Subscribers())
}

func TestServer_Run(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0", feed.NewHub(1))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx)() }()

	require.Eventually(t, srv.Running, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestServer_Healthcheck(t *testing.T) {
	t.Parallel()

	hub := feed.NewHub(1)
	srv := server.New("127.0.0.1:0", hub, server.WithMaxConnections(1))
	check := srv.Healthcheck()
	assert.ErrorIs(t, check(context.Background()), server.ErrNotRunning)

	srv, _ = serve(t, hub, server.WithMaxConnections(1))
	check = srv.Healthcheck()
	assert.NoError(t, check(context.Background()))

	c := dial(t, srv.Addr())
	c.readLine(t)
	require.Eventually(t, func() bool {
		return errors.Is(check(context.Background()), server.ErrSaturated)
	}, time.Second, time.Millisecond)
}

func TestServer_ActiveConnectionsCountConsumersOnly(t *testing.T) {
	t.Parallel()

	hub := feed.NewHub(1)
	hub.Update("100.00")
	m := metrics.Noop()
	srv, _ := serve(t, hub, server.WithMaxConnections(2), server.WithMetrics(m))
	check := srv.Healthcheck()

	// The accept loop already holds the next slot while it waits in Accept.
	assert.Zero(t, srv.ActiveConnections())
	assert.NoError(t, check(context.Background()))

	c1 := dial(t, srv.Addr())
	c1.readLine(t)
	require.Eventually(t, func() bool { return srv.ActiveConnections() == 1 }, time.Second, time.Millisecond)
	assert.NoError(t, check(context.Background()), "one free slot left")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PermitsInUse))

	c2 := dial(t, srv.Addr())
	c2.readLine(t)
	require.Eventually(t, func() bool { return srv.ActiveConnections() == 2 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, check(context.Background()), server.ErrSaturated)

	require.NoError(t, c1.conn.Close())
	require.Eventually(t, func() bool { return srv.ActiveConnections() == 1 }, time.Second, time.Millisecond)
	assert.NoError(t, check(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PermitsInUse))
}

// timeoutError is a net.Error that reports a timeout.
type timeoutError struct{}

func (timeoutError) Error() string   { return "accept timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// scriptedListener returns the scripted errors from Accept, in order.
type scriptedListener struct {
	mu        sync.Mutex
	errs      []error
	closeOnce sync.Once
	closed    chan struct{}
}

func newScriptedListener(errs ...error) *scriptedListener {
	return &scriptedListener{errs: errs, closed: make(chan struct{})}
}

func (l *scriptedListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	if len(l.errs) > 0 {
		err := l.errs[0]
		l.errs = l.errs[1:]
		l.mu.Unlock()
		return nil, err
	}
	l.mu.Unlock()

	<-l.closed
	return nil, net.ErrClosed
}

func (l *scriptedListener) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *scriptedListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func TestServer_AcceptErrors(t *testing.T) {
	t.Parallel()

	t.Run("transient errors are retried", func(t *testing.T) {
		t.Parallel()

		m := metrics.Noop()
		ln := newScriptedListener(timeoutError{}, timeoutError{})
		srv := server.New("test", feed.NewHub(1), server.WithMetrics(m))

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Serve(ctx, ln) }()

		require.Eventually(t, func() bool {
			return testutil.ToFloat64(m.AcceptErrors.WithLabelValues(metrics.KindTransient)) == 2
		}, 2*time.Second, time.Millisecond)
		assert.True(t, srv.Running())

		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("Serve did not return after cancel")
		}
	})

	t.Run("fatal error stops the server", func(t *testing.T) {
		t.Parallel()

		m := metrics.Noop()
		boom := errors.New("listener exploded")
		ln := newScriptedListener(timeoutError{}, boom)
		srv := server.New("test", feed.NewHub(1), server.WithMetrics(m))

		err := srv.Serve(context.Background(), ln)
		require.Error(t, err)
		assert.ErrorIs(t, err, server.ErrFatalAccept)
		assert.ErrorIs(t, err, boom)
		assert.False(t, srv.Running())
		assert.Equal(t, 1.0, testutil.ToFloat64(m.AcceptErrors.WithLabelValues(metrics.KindFatal)))
	})
}

func TestServer_AcceptRateLimit(t *testing.T) {
	t.Parallel()

	hub := feed.NewHub(1)
	hub.Update("100.00")
	srv, _ := serve(t, hub, server.WithAcceptRate(1000, 1))

	for range 3 {
		c := dial(t, srv.Addr())
		assert.Equal(t, "100.00\n", c.readLine(t))
	}
}
