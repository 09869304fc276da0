// Package broadcast provides a generic in-memory fan-out with bounded,
// per-subscriber queues.
//
// A single producer publishes values; every live Subscription receives every
// value published while it is live, in publication order. Publishing never
// blocks on a consumer. When a subscriber falls behind and its queue is full,
// the oldest undelivered value is dropped and the next call to Next reports a
// *LaggedError carrying the number of dropped values.
//
// # Usage
//
//	b := broadcast.New[string](16)
//	defer b.Close()
//
//	sub := b.Subscribe()
//	defer sub.Close()
//
//	go func() {
//		for {
//			v, err := sub.Next(ctx)
//			switch {
//			case errors.Is(err, broadcast.ErrLagged):
//				continue // some values were dropped, keep going
//			case err != nil:
//				return
//			}
//			fmt.Println(v)
//		}
//	}()
//
//	b.Publish("Stock Price: 100.00")
//
// # Suspension
//
// Next waits on a channel, so an idle subscriber costs a parked goroutine and
// nothing else. No lock is held while waiting.
//
// # Closing
//
// Subscription.Close unsubscribes and discards buffered values. Broadcaster.Close
// stops fan-out; subscribers still drain what they had buffered and then get
// ErrClosed.
package broadcast
