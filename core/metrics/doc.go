// Package metrics defines the Prometheus metrics exported by the feed server.
//
// Components receive a *Collector through an option and default to Noop, so
// tests never touch the global registry:
//
//	reg := metrics.NewRegistry()
//	m := metrics.New(reg)
//
//	srv := server.New(addr, hub, server.WithMetrics(m))
//	mux.Handle("/metrics", metrics.Handler(reg))
package metrics
