package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/pricefeed/core/config"
	"github.com/dmitrymomot/pricefeed/core/feed"
	"github.com/dmitrymomot/pricefeed/core/logger"
	"github.com/dmitrymomot/pricefeed/core/metrics"
	"github.com/dmitrymomot/pricefeed/core/server"
	"github.com/dmitrymomot/pricefeed/integration/database/redis"
	"github.com/dmitrymomot/pricefeed/integration/quote/finnhub"
)

// App wires the producer, hub, feed server and ops endpoints together.
type App struct {
	config   Config
	logger   *slog.Logger
	clock    clockwork.Clock
	registry *prometheus.Registry
	metrics  *metrics.Collector
	source   feed.Source
	hub      *feed.Hub
	producer *feed.Producer
	server   *server.Server
	ops      *opsServer

	checks  []func(context.Context) error
	closers []func() error
}

type AppOption func(*App) error

func NewApp(opts ...AppOption) (*App, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	app := &App{
		config: cfg,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.logger == nil {
		app.logger = logger.New(
			logger.WithEnvironment(app.config.Env, app.config.AppName),
			logger.WithLevelString(app.config.LogLevel),
		)
	}

	if app.registry == nil {
		app.registry = metrics.NewRegistry()
	}
	app.metrics = metrics.New(app.registry)

	if app.source == nil {
		src, err := app.buildSource(context.Background())
		if err != nil {
			app.close()
			return nil, err
		}
		app.source = src
	}

	app.hub = feed.NewHub(app.config.Feed.LagCapacity)

	producerOpts := []feed.ProducerOption{
		feed.WithProducerLogger(app.logger),
		feed.WithProducerMetrics(app.metrics),
	}
	if app.clock != nil {
		producerOpts = append(producerOpts, feed.WithClock(app.clock))
	}
	p, err := feed.NewProducerFromConfig(app.config.Feed, app.source, app.hub, producerOpts...)
	if err != nil {
		app.close()
		return nil, err
	}
	app.producer = p

	s, err := server.NewFromConfig(app.config.Server, app.hub,
		server.WithLogger(app.logger),
		server.WithMetrics(app.metrics),
		server.WithPlaceholder(feed.Initializing(app.config.Feed.Symbol)),
	)
	if err != nil {
		app.close()
		return nil, err
	}
	app.server = s

	app.checks = append([]func(context.Context) error{
		app.producer.Healthcheck(app.config.Feed.MaxStaleness),
		app.server.Healthcheck(),
	}, app.checks...)

	if app.config.OpsAddr != "" {
		app.ops = newOpsServer(app.config.OpsAddr, app.opsHandler(), app.logger)
	}

	return app, nil
}

// Run starts the producer, the feed server and the ops listener, and blocks
// until ctx is cancelled or one of them fails. The first failure stops the rest.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	a.logger.InfoContext(ctx, "starting price feed",
		logger.Symbol(a.config.Feed.Symbol),
		slog.String("source", a.config.Feed.Source),
		logger.Addr(a.config.Server.Addr),
		logger.Interval(a.config.Feed.Interval))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(a.producer.Run(ctx))
	eg.Go(a.server.Run(ctx))
	if a.ops != nil {
		eg.Go(a.ops.Run(ctx))
	}

	err := eg.Wait()
	a.hub.Close()

	if err != nil {
		return err
	}
	a.logger.Info("price feed stopped")
	return nil
}

// Hub exposes the value hub.
func (a *App) Hub() *feed.Hub { return a.hub }

// Server exposes the feed server.
func (a *App) Server() *server.Server { return a.server }

// Producer exposes the producer.
func (a *App) Producer() *feed.Producer { return a.producer }

func (a *App) buildSource(ctx context.Context) (feed.Source, error) {
	cfg := a.config.Feed

	switch cfg.Source {
	case feed.SourceSynthetic, "":
		return feed.NewRandom(cfg.Symbol, cfg.SyntheticMin, cfg.SyntheticMax, nil), nil

	case feed.SourceFinnhub:
		return finnhub.New(a.config.Finnhub, cfg.Symbol, finnhub.WithLogger(a.logger))

	case feed.SourceRedis:
		client, err := redis.Connect(ctx, a.config.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.checks = append(a.checks, redis.Healthcheck(client))
		return redis.NewSource(client, a.config.Redis.QuoteKey, cfg.Symbol)

	default:
		return nil, fmt.Errorf("%w: %q", feed.ErrUnknownSource, cfg.Source)
	}
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("failed to release resource", logger.Error(err))
		}
	}
	a.closers = nil
}

func WithConfig(cfg Config) AppOption {
	return func(app *App) error {
		app.config = cfg
		return nil
	}
}

func WithLogger(logger *slog.Logger) AppOption {
	return func(app *App) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		app.logger = logger
		return nil
	}
}

func WithSource(src feed.Source) AppOption {
	return func(app *App) error {
		if src == nil {
			return errors.New("source cannot be nil")
		}
		app.source = src
		return nil
	}
}

func WithRegistry(reg *prometheus.Registry) AppOption {
	return func(app *App) error {
		if reg == nil {
			return errors.New("registry cannot be nil")
		}
		app.registry = reg
		return nil
	}
}

func WithClock(clock clockwork.Clock) AppOption {
	return func(app *App) error {
		if clock == nil {
			return errors.New("clock cannot be nil")
		}
		app.clock = clock
		return nil
	}
}

func WithHealthcheck(check func(context.Context) error) AppOption {
	return func(app *App) error {
		if check == nil {
			return errors.New("healthcheck cannot be nil")
		}
		app.checks = append(app.checks, check)
		return nil
	}
}
