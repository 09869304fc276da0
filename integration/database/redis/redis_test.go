package redis_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pricefeed/core/feed"
	"github.com/dmitrymomot/pricefeed/integration/database/redis"
)

// unreachable points at a port nothing listens on.
const unreachable = "redis://127.0.0.1:1/0"

func TestConnect(t *testing.T) {
	t.Parallel()

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(context.Background(), redis.Config{})
		assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("malformed url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://localhost:6379"})
		assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
	})

	t.Run("server never answers", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(context.Background(), redis.Config{
			ConnectionURL:  unreachable,
			RetryAttempts:  2,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: 2 * time.Second,
		})
		assert.ErrorIs(t, err, redis.ErrRedisNotReady)
	})
}

func TestHealthcheck_Unreachable(t *testing.T) {
	t.Parallel()

	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	err := redis.Healthcheck(client)(context.Background())
	assert.ErrorIs(t, err, redis.ErrHealthcheckFailed)
}

func TestNewSource(t *testing.T) {
	t.Parallel()

	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	_, err := redis.NewSource(client, "", "AAPL")
	assert.ErrorIs(t, err, redis.ErrEmptyQuoteKey)

	src, err := redis.NewSource(client, "quote:AAPL", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "redis", src.Name())

	_, err = src.Fetch(context.Background())
	assert.Error(t, err, "fetch against an unreachable server must fail")
}

func TestParseQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		symbol string
		raw    string
		want   feed.Value
	}{
		{"bare price", "AAPL", "187.3", "Stock Price (AAPL): 187.30"},
		{"bare price without symbol", "", " 101 \n", "Stock Price: 101.00"},
		{"ready-made line", "AAPL", "AAPL halted\n", "AAPL halted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, redis.ParseQuote(tt.symbol, tt.raw))
		})
	}
}
