package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/pricefeed/core/feed"
)

// Source reads the current quote from a single Redis key.
type Source struct {
	client redis.Cmdable
	key    string
	symbol string
}

// NewSource creates a feed source over key. symbol labels bare prices.
func NewSource(client redis.Cmdable, key, symbol string) (*Source, error) {
	if key == "" {
		return nil, ErrEmptyQuoteKey
	}
	return &Source{client: client, key: key, symbol: symbol}, nil
}

// Name identifies the source in logs and errors.
func (s *Source) Name() string {
	return "redis"
}

// Fetch reads the key. A missing key is an ordinary fetch error.
func (s *Source) Fetch(ctx context.Context) (feed.Value, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", ErrQuoteNotSet, s.key)
	}
	if err != nil {
		return "", err
	}
	return ParseQuote(s.symbol, raw), nil
}

// ParseQuote renders a stored value: numbers become a price line, anything
// else is forwarded as is.
func ParseQuote(symbol, raw string) feed.Value {
	raw = strings.TrimSpace(raw)
	if price, err := strconv.ParseFloat(raw, 64); err == nil {
		return feed.QuoteValue(symbol, price)
	}
	return feed.NewValue(raw)
}
