package pricefeed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/pricefeed/core/health"
	"github.com/dmitrymomot/pricefeed/core/logger"
	"github.com/dmitrymomot/pricefeed/core/metrics"
)

const (
	opsReadTimeout     = 5 * time.Second
	opsShutdownTimeout = 5 * time.Second
)

// OpsHandler serves /metrics, /health/live and /health/ready.
func (a *App) OpsHandler() http.Handler {
	return a.opsHandler()
}

func (a *App) opsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler(a.registry))
	mux.Handle("GET /health/live", health.Liveness())
	mux.Handle("GET /health/ready", health.Readiness(a.logger, a.checks...))
	return mux
}

// opsServer runs the plain HTTP listener for the ops endpoints.
type opsServer struct {
	srv    *http.Server
	logger *slog.Logger
}

func newOpsServer(addr string, h http.Handler, log *slog.Logger) *opsServer {
	return &opsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: opsReadTimeout,
			ReadTimeout:       opsReadTimeout,
		},
		logger: log,
	}
}

// Run is errgroup-compatible: it serves until ctx is cancelled, then shuts down.
func (o *opsServer) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			o.logger.InfoContext(ctx, "starting ops server", logger.Addr(o.srv.Addr))
			if err := o.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
		defer cancel()
		if err := o.srv.Shutdown(shutdownCtx); err != nil {
			o.logger.Error("ops server shutdown error", logger.Error(err))
			return err
		}
		<-errCh
		return nil
	}
}
