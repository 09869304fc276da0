package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/pricefeed/core/admission"
	"github.com/dmitrymomot/pricefeed/core/feed"
	"github.com/dmitrymomot/pricefeed/core/logger"
	"github.com/dmitrymomot/pricefeed/core/metrics"
	"github.com/dmitrymomot/pricefeed/pkg/broadcast"
)

// Feed is the read side of the value hub used by connection handlers.
// *feed.Hub satisfies it.
type Feed interface {
	Subscribe() *broadcast.Subscription[feed.Update]
	Latest() (feed.Value, uint64)
}

// Server accepts consumer connections and streams feed values to them.
// Safe for concurrent use.
type Server struct {
	mu           sync.RWMutex
	addr         string
	feed         Feed
	logger       *slog.Logger
	metrics      *metrics.Collector
	maxConns     int
	writeTimeout time.Duration
	shutdown     time.Duration
	tlsConfig    *tls.Config
	limiter      *rate.Limiter
	placeholder  feed.Value
	stateHook    func(connID string, st State)

	running   bool
	listener  net.Listener
	admission *admission.Controller
	cancel    context.CancelFunc
	done      chan struct{}
	stopErr   error
	handlers  sync.WaitGroup
	// Consumers currently served. The accept loop's own pending permit is not counted.
	active atomic.Int64
}

// New creates a new Server with the given address, feed and options.
// Defaults to 1000 concurrent consumers, a 30-second shutdown timeout and a no-op logger.
func New(addr string, f Feed, opts ...Option) *Server {
	s := &Server{
		addr:         addr,
		feed:         f,
		logger:       logger.Discard(),
		metrics:      metrics.Noop(),
		maxConns:     DefaultMaxConnections,
		writeTimeout: DefaultWriteTimeout,
		shutdown:     DefaultShutdownTimeout,
		placeholder:  feed.Initializing(""),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start listens on the configured address and serves until the context is
// cancelled, Stop is called, or the listener fails.
// Returns nil on orderly shutdown and an ErrFatalAccept error if the listener breaks.
func (s *Server) Start(ctx context.Context) error {
	s.mu.RLock()
	addr, tlsConfig, running := s.addr, s.tlsConfig, s.running
	s.mu.RUnlock()

	if running {
		return ErrServerAlreadyRunning
	}
	if addr == "" {
		return ErrMissingAddress
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w on %s: %w", ErrListen, addr, err)
	}
	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln. The server owns ln and closes it on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerAlreadyRunning
	}
	if s.feed == nil {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrNilFeed
	}
	ctl, err := admission.New(s.maxConns)
	if err != nil {
		s.mu.Unlock()
		_ = ln.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.running = true
	s.listener = ln
	s.admission = ctl
	s.cancel = cancel
	s.done = done
	s.stopErr = nil
	s.mu.Unlock()

	// Unblock Acquire and Accept as soon as the server is asked to stop.
	stopAccept := context.AfterFunc(ctx, func() {
		ctl.Shutdown()
		_ = ln.Close()
	})
	defer stopAccept()

	s.logger.InfoContext(ctx, "feed server started",
		logger.Component("server"),
		logger.Addr(ln.Addr().String()),
		slog.Int("max_connections", ctl.Capacity()))

	err = s.acceptLoop(ctx, ln, ctl)

	cancel()
	ctl.Shutdown()
	_ = ln.Close()
	drainErr := s.drain()

	s.mu.Lock()
	s.running = false
	s.listener = nil
	s.admission = nil
	s.cancel = nil
	s.stopErr = drainErr
	s.mu.Unlock()
	close(done)

	s.logger.Info("feed server stopped", logger.Component("server"))
	return err
}

// Stop stops accepting, closes every consumer connection and waits up to the
// shutdown timeout for handlers to exit.
// Returns immediately if the server is not running.
func (s *Server) Stop() error {
	s.mu.RLock()
	running, cancel, done, timeout := s.running, s.cancel, s.done, s.shutdown
	s.mu.RUnlock()

	if !running || cancel == nil {
		return nil
	}

	s.logger.Info("shutting down feed server gracefully", logger.Component("server"), logger.Duration(timeout))
	cancel()
	<-done

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopErr
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// The returned function serves until ctx is cancelled (returning nil) or the
// listener fails.
func (s *Server) Run(ctx context.Context) func() error {
	return func() error {
		err := s.Start(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}
}

// Addr returns the bound listener address while serving, the configured address otherwise.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Running reports whether the accept loop is active.
func (s *Server) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ActiveConnections returns the number of consumers currently being served.
func (s *Server) ActiveConnections() int {
	return int(s.active.Load())
}

// Healthcheck reports ErrNotRunning when the accept loop is down and
// ErrSaturated when every connection slot is taken.
func (s *Server) Healthcheck() func(context.Context) error {
	return func(context.Context) error {
		s.mu.RLock()
		defer s.mu.RUnlock()

		if !s.running || s.admission == nil {
			return ErrNotRunning
		}
		if s.active.Load() >= int64(s.admission.Capacity()) {
			return ErrSaturated
		}
		return nil
	}
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener, ctl *admission.Controller) error {
	backoff := newAcceptBackoff()

	for {
		// The slot is taken before accepting, so a saturated server leaves
		// new peers waiting in the kernel backlog.
		waitStart := time.Now()
		permit, err := ctl.Acquire(ctx)
		if err != nil {
			return nil
		}
		s.metrics.AcceptWaitSeconds.Observe(time.Since(waitStart).Seconds())

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				permit.Release()
				return nil
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			permit.Release()
			if ctx.Err() != nil {
				return nil
			}

			if isTransientAcceptError(err) {
				delay, _ := backoff.Next()
				s.metrics.AcceptErrors.WithLabelValues(metrics.KindTransient).Inc()
				s.logger.WarnContext(ctx, "accept failed, retrying",
					logger.Component("server"),
					logger.Error(err),
					logger.Duration(delay))

				t := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					t.Stop()
					return nil
				case <-t.C:
				}
				continue
			}

			s.metrics.AcceptErrors.WithLabelValues(metrics.KindFatal).Inc()
			s.logger.ErrorContext(ctx, "listener failed",
				logger.Component("server"),
				logger.Error(err))
			return fmt.Errorf("%w: %w", ErrFatalAccept, err)
		}

		backoff = newAcceptBackoff()
		s.metrics.ConnectionsAccepted.Inc()
		s.metrics.PermitsInUse.Inc()
		s.active.Add(1)

		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			s.handle(ctx, conn, permit)
		}()
	}
}

func (s *Server) drain() error {
	s.mu.RLock()
	timeout := s.shutdown
	s.mu.RUnlock()

	finished := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(finished)
	}()

	if timeout <= 0 {
		<-finished
		return nil
	}

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-finished:
		return nil
	case <-t.C:
		s.logger.Error("connection handlers did not exit in time",
			logger.Component("server"),
			logger.Duration(timeout))
		return ErrShutdownTimeout
	}
}

func newAcceptBackoff() retry.Backoff {
	return retry.WithCappedDuration(maxAcceptDelay, retry.NewExponential(5*time.Millisecond))
}

// isTransientAcceptError reports whether accepting may succeed if retried.
func isTransientAcceptError(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return false
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	for _, errno := range []syscall.Errno{
		syscall.ECONNABORTED,
		syscall.ECONNRESET,
		syscall.EINTR,
		syscall.EMFILE,
		syscall.ENFILE,
		syscall.ENOBUFS,
		syscall.ENOMEM,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
