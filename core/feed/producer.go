package feed

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/pricefeed/core/logger"
	"github.com/dmitrymomot/pricefeed/core/metrics"
)

// DefaultInterval is the pause between fetches when none is configured.
const DefaultInterval = 5 * time.Second

// Producer is the single loop that fetches values and hands them to the Hub.
type Producer struct {
	source       Source
	name         string
	hub          *Hub
	interval     time.Duration
	fetchTimeout time.Duration
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *metrics.Collector
	errorValue   func(error) Value

	mu     sync.Mutex
	cancel context.CancelFunc

	running  atomic.Bool
	cycles   atomic.Int64
	failures atomic.Int64
	lastOK   atomic.Int64 // unix nanos of the last successful fetch
}

// ProducerStats is a point-in-time view of the producer.
type ProducerStats struct {
	Cycles        int64
	Failures      int64
	LastSuccessAt time.Time
	IsRunning     bool
}

// NewProducer creates a producer that feeds hub from source.
func NewProducer(source Source, hub *Hub, opts ...ProducerOption) (*Producer, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if hub == nil {
		return nil, ErrNilHub
	}

	o := &producerOptions{
		interval:     DefaultInterval,
		fetchTimeout: DefaultInterval,
		clock:        clockwork.NewRealClock(),
		logger:       logger.Discard(),
		metrics:      metrics.Noop(),
		errorValue:   ErrorValue,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Producer{
		source:       source,
		name:         sourceName(source),
		hub:          hub,
		interval:     o.interval,
		fetchTimeout: o.fetchTimeout,
		clock:        o.clock,
		logger:       o.logger,
		metrics:      o.metrics,
		errorValue:   o.errorValue,
	}, nil
}

// NewProducerFromConfig creates a producer using interval and timeout from cfg.
// Additional options override config values.
func NewProducerFromConfig(cfg Config, source Source, hub *Hub, opts ...ProducerOption) (*Producer, error) {
	if cfg.Interval <= 0 {
		return nil, ErrInvalidInterval
	}
	allOpts := append([]ProducerOption{
		WithInterval(cfg.Interval),
		WithFetchTimeout(cfg.FetchTimeout),
	}, opts...)
	return NewProducer(source, hub, allOpts...)
}

// Start runs the fetch loop until ctx is cancelled, Stop is called, or the
// source reports a fatal error. The first fetch happens immediately.
// Returns nil on cancellation and the *FetchError on a fatal failure.
func (p *Producer) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return ErrProducerRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	p.running.Store(true)
	defer func() {
		p.running.Store(false)
		p.mu.Lock()
		p.cancel = nil
		p.mu.Unlock()
		cancel()
	}()

	p.logger.InfoContext(ctx, "producer started",
		logger.Component("producer"),
		logger.Key("source", p.name),
		logger.Interval(p.interval))

	if err := p.cycle(ctx); err != nil {
		return p.exit(ctx, err)
	}

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return p.exit(ctx, nil)
		case <-ticker.Chan():
			if err := p.cycle(ctx); err != nil {
				return p.exit(ctx, err)
			}
		}
	}
}

// Stop cancels a running Start. Returns ErrProducerNotRunning otherwise.
func (p *Producer) Stop() error {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel == nil {
		return ErrProducerNotRunning
	}
	cancel()
	return nil
}

// Run provides errgroup compatibility: the returned function blocks until the
// context is cancelled (returning nil) or the source fails fatally.
func (p *Producer) Run(ctx context.Context) func() error {
	return func() error {
		return p.Start(ctx)
	}
}

// Stats returns counters for monitoring.
func (p *Producer) Stats() ProducerStats {
	var last time.Time
	if ns := p.lastOK.Load(); ns > 0 {
		last = time.Unix(0, ns)
	}
	return ProducerStats{
		Cycles:        p.cycles.Load(),
		Failures:      p.failures.Load(),
		LastSuccessAt: last,
		IsRunning:     p.running.Load(),
	}
}

// Healthcheck fails when the producer is not running or has not published a
// good value within maxAge.
func (p *Producer) Healthcheck(maxAge time.Duration) func(context.Context) error {
	return func(context.Context) error {
		stats := p.Stats()
		if !stats.IsRunning {
			return ErrProducerNotRunning
		}
		if stats.LastSuccessAt.IsZero() || p.clock.Since(stats.LastSuccessAt) > maxAge {
			return ErrStale
		}
		return nil
	}
}

// cycle performs one fetch and publishes the outcome. It only returns an error
// for a fatal source failure.
func (p *Producer) cycle(ctx context.Context) error {
	start := p.clock.Now()
	defer func() {
		p.metrics.ProducerCycleSeconds.Observe(p.clock.Since(start).Seconds())
	}()
	p.cycles.Add(1)

	fetchCtx := ctx
	if p.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()
	}

	v, err := p.source.Fetch(fetchCtx)
	if err != nil {
		// Shutdown interrupted the fetch; nothing to report to consumers.
		if ctx.Err() != nil {
			return nil
		}

		fetchErr := &FetchError{Source: p.name, Err: err}
		p.failures.Add(1)
		p.metrics.FetchErrors.Inc()
		p.publish(p.errorValue(err))

		if IsFatal(err) {
			p.logger.ErrorContext(ctx, "source failed permanently",
				logger.Component("producer"),
				logger.Error(fetchErr))
			return fetchErr
		}

		p.logger.WarnContext(ctx, "fetch failed, published error value",
			logger.Component("producer"),
			logger.Error(fetchErr))
		return nil
	}

	p.lastOK.Store(p.clock.Now().UnixNano())
	p.publish(v)
	return nil
}

func (p *Producer) publish(v Value) {
	u := p.hub.Update(v)
	p.metrics.ValuesPublished.Inc()
	p.logger.Debug("value published",
		logger.Component("producer"),
		logger.Key("seq", u.Seq),
		logger.Value(v.String()),
		logger.Count("subscribers", p.hub.Subscribers()))
}

func (p *Producer) exit(ctx context.Context, err error) error {
	if err != nil {
		return err
	}
	p.logger.InfoContext(context.WithoutCancel(ctx), "producer stopped",
		logger.Component("producer"),
		slog.Int64("cycles", p.cycles.Load()))
	return nil
}
