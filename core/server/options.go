package server

import (
	"crypto/tls"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrymomot/pricefeed/core/feed"
	"github.com/dmitrymomot/pricefeed/core/metrics"
)

// Option configures server behavior.
type Option func(*Server)

// WithTLS serves consumers over TLS.
func WithTLS(config *tls.Config) Option {
	return func(s *Server) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.tlsConfig = config
	}
}

// WithLogger sets a custom logger for server and connection events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Server) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if m != nil {
			s.metrics = m
		}
	}
}

// WithShutdownTimeout sets the maximum time to wait for handlers on shutdown.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.shutdown = timeout
	}
}

// WithMaxConnections sets how many consumers may be served at once.
func WithMaxConnections(n int) Option {
	return func(s *Server) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.maxConns = n
	}
}

// WithWriteTimeout bounds each flush to a consumer. Zero disables the deadline.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.writeTimeout = timeout
	}
}

// WithAcceptRate limits how fast new connections are accepted.
// A non-positive limit disables rate limiting.
func WithAcceptRate(limit float64, burst int) Option {
	return func(s *Server) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if limit <= 0 {
			s.limiter = nil
			return
		}
		if burst <= 0 {
			burst = DefaultAcceptBurst
		}
		s.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

// WithPlaceholder sets the line sent to consumers that connect before the
// first value has been produced.
func WithPlaceholder(v feed.Value) Option {
	return func(s *Server) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if v != "" {
			s.placeholder = v
		}
	}
}

// WithStateHook registers fn to observe connection state transitions.
// fn runs on the handler goroutine and must not block.
func WithStateHook(fn func(connID string, st State)) Option {
	return func(s *Server) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.stateHook = fn
	}
}
