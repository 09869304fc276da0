// Package redis connects to Redis and exposes a quote key as a feed source.
//
// Connect parses the connection URL, then pings with retries until the
// server answers or the attempts run out:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Source reads one key per fetch. The key holds either a bare price
// ("187.32"), rendered as a stock price line for the configured symbol, or a
// ready-made line that is forwarded unchanged. Any writer can drive the feed
// this way:
//
//	redis-cli SET quote:AAPL 187.32
//
// Healthcheck returns a readiness check that pings the server.
package redis
