// Command feedclient is a small load generator for the price feed: it opens
// several consumers, reads a fixed number of chunks from each and reports
// throughput.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/pricefeed/core/config"
	"github.com/dmitrymomot/pricefeed/core/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	config.MustLoad(&cfg) // panic on error

	log := logger.New(logger.WithDevelopment("feedclient"))
	log.Info("Starting clients",
		logger.Addr(cfg.Addr),
		logger.Count("clients", cfg.Clients),
		logger.Count("reads", cfg.Reads))

	r := bench(ctx, cfg, log)

	fmt.Printf("Processed %d bytes in %.2fs\n", r.Bytes, r.Duration.Seconds())
	fmt.Printf("Throughput: %.2f bytes/sec\n", r.Throughput())
	fmt.Printf("Avg latency per message: %.2fms\n",
		float64(r.AvgLatency(cfg.Clients, cfg.Reads).Microseconds())/1000)
	if r.Failed > 0 || r.TimedOut > 0 {
		fmt.Printf("Failed: %d, timed out: %d\n", r.Failed, r.TimedOut)
		os.Exit(1)
	}
}
