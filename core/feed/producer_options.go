package feed

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/pricefeed/core/metrics"
)

// ProducerOption configures a Producer.
type ProducerOption func(*producerOptions)

type producerOptions struct {
	interval     time.Duration
	fetchTimeout time.Duration
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *metrics.Collector
	errorValue   func(error) Value
}

// WithInterval sets the pause between fetch cycles.
func WithInterval(d time.Duration) ProducerOption {
	return func(o *producerOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithFetchTimeout bounds a single Fetch call. Zero disables the bound.
func WithFetchTimeout(d time.Duration) ProducerOption {
	return func(o *producerOptions) {
		if d >= 0 {
			o.fetchTimeout = d
		}
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) ProducerOption {
	return func(o *producerOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithProducerLogger sets the logger.
func WithProducerLogger(l *slog.Logger) ProducerOption {
	return func(o *producerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProducerMetrics sets the metrics collector.
func WithProducerMetrics(m *metrics.Collector) ProducerOption {
	return func(o *producerOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithErrorValue overrides how fetch failures are rendered for consumers.
func WithErrorValue(fn func(error) Value) ProducerOption {
	return func(o *producerOptions) {
		if fn != nil {
			o.errorValue = fn
		}
	}
}
