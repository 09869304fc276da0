package server

import "time"

const (
	// DefaultAddr is the loopback address the feed listens on when none is set.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultMaxConnections bounds concurrently served consumers.
	DefaultMaxConnections = 1000

	// DefaultWriteTimeout bounds a single flush to a consumer.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultShutdownTimeout is how long Stop waits for handlers to exit.
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultAcceptBurst is the limiter burst used when an accept rate is set.
	DefaultAcceptBurst = 100

	// maxAcceptDelay caps the backoff between transient accept failures.
	maxAcceptDelay = time.Second

	// readBufferSize is the chunk size used to drain consumer input.
	readBufferSize = 512
)
