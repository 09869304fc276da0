// Package server streams feed values to TCP consumers.
//
// Each accepted connection first receives the latest cached value (or a
// placeholder before the first value exists) and then every value published
// afterwards, one newline-terminated line per value. The number of concurrent
// consumers is bounded by an admission controller; a slot is taken before a
// connection is accepted, so a saturated server leaves new peers in the
// kernel backlog instead of accepting and dropping them.
//
// Basic usage:
//
//	hub := feed.NewHub(broadcast.DefaultCapacity)
//	srv := server.New("127.0.0.1:8080", hub,
//		server.WithMaxConnections(1000),
//		server.WithLogger(log),
//	)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx))
//	if err := g.Wait(); err != nil {
//		log.Error("feed server failed", logger.Error(err))
//	}
//
// Connection handlers are small state machines (Init, SendingInitial,
// Streaming, Closed). Whatever ends a connection, the handler always reaches
// Closed, which releases the admission slot, the subscription and the socket.
// Slow consumers lose the oldest buffered values rather than slowing anyone
// else; drops are logged and counted in metrics.
//
// Accept failures are split in two. Timeouts and resource exhaustion
// (EMFILE, ECONNABORTED and similar) are logged and retried with a capped
// exponential backoff; anything else stops the server with ErrFatalAccept.
package server
