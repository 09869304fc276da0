// Package health provides HTTP handlers for service health monitoring.
//
// Handlers:
//   - Liveness: Process is running (no dependency checks)
//   - Readiness: All dependencies are available
//
// Usage:
//
//	mux := http.NewServeMux()
//	mux.Handle("GET /health/live", health.Liveness())
//	mux.Handle("GET /health/ready", health.Readiness(
//		log,
//		producer.Healthcheck(time.Minute),
//		srv.Healthcheck(),
//		redis.Healthcheck(client),
//	))
//
// Dependency checks must follow func(context.Context) error signature:
//
//	func checkRedis(ctx context.Context) error {
//		return client.Ping(ctx).Err()
//	}
package health
