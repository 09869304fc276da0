// Package feed produces the value stream served to consumers.
//
// A Source fetches one Value per call. The Producer calls it on a fixed
// interval and hands each result to a Hub, which stores it in the latest-value
// cache and then publishes it to every subscriber. A failed fetch is not
// swallowed: it becomes an error line ("Error fetching price: ...") that is
// cached and published like any other value, and the loop carries on. A source
// error wrapped with Fatal is published the same way, after which the producer
// stops and returns the error to its caller.
//
//	hub := feed.NewHub(16)
//	src := feed.NewRandom("AAPL", 100, 200, nil)
//
//	p, err := feed.NewProducer(src, hub,
//		feed.WithInterval(500*time.Millisecond),
//		feed.WithProducerLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//
//	eg.Go(p.Run(ctx))
package feed
