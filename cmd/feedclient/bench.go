package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/pricefeed/core/logger"
)

// Config controls the load run.
type Config struct {
	Addr    string        `env:"FEEDCLIENT_ADDR" envDefault:"127.0.0.1:8080"`
	Clients int           `env:"FEEDCLIENT_CLIENTS" envDefault:"3"`
	Reads   int           `env:"FEEDCLIENT_READS" envDefault:"10"`
	Timeout time.Duration `env:"FEEDCLIENT_TIMEOUT" envDefault:"5s"`
}

// Report summarizes a load run.
type Report struct {
	Bytes    int64
	Duration time.Duration
	Failed   int
	TimedOut int
}

// Throughput is bytes per second over the whole run.
func (r Report) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Bytes) / r.Duration.Seconds()
}

// AvgLatency spreads the run duration over every planned read.
func (r Report) AvgLatency(clients, reads int) time.Duration {
	n := clients * reads
	if n <= 0 {
		return 0
	}
	return r.Duration / time.Duration(n)
}

// bench opens cfg.Clients concurrent connections and performs cfg.Reads raw
// reads on each. A client that fails or exceeds cfg.Timeout still contributes
// the bytes it received.
func bench(ctx context.Context, cfg Config, log *slog.Logger) Report {
	start := time.Now()

	var (
		total    atomic.Int64
		failed   atomic.Int32
		timedOut atomic.Int32
	)

	var eg errgroup.Group
	for i := range cfg.Clients {
		eg.Go(func() error {
			n, err := runClient(ctx, i, cfg, log)
			total.Add(n)
			switch {
			case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
				timedOut.Add(1)
				log.Warn("client timed out", logger.Key("client", i))
			case err != nil:
				failed.Add(1)
				log.Warn("client failed", logger.Key("client", i), logger.Error(err))
			}
			return nil
		})
	}
	_ = eg.Wait()

	return Report{
		Bytes:    total.Load(),
		Duration: time.Since(start),
		Failed:   int(failed.Load()),
		TimedOut: int(timedOut.Load()),
	}
}

func runClient(ctx context.Context, id int, cfg Config, log *slog.Logger) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	log.Debug("client connecting", logger.Key("client", id))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.Addr)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	var total int64
	buf := make([]byte, 1024)
	for range cfg.Reads {
		n, err := conn.Read(buf)
		total += int64(n)
		if n > 0 {
			log.Info("client read", logger.Key("client", id), logger.Value(string(buf[:n])))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			return total, err
		}
	}
	log.Debug("client finished", logger.Key("client", id))
	return total, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
