// Package finnhub fetches stock quotes from the Finnhub REST API and exposes
// them as a feed source.
//
//	client, err := finnhub.New(cfg, "AAPL", finnhub.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	producer, err := feed.NewProducer(client, hub)
//
// Each fetch is one GET /quote call. Transport errors, 429 and 5xx responses
// are retried with exponential backoff; the whole call runs behind a circuit
// breaker so a dead upstream is not hammered every interval. A rejected API
// key (401/403) is reported as feed.ErrFatal and stops the producer.
package finnhub
