package feed_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/pricefeed/core/feed"
)

func TestValue_Line(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   feed.Value
		want string
	}{
		{"plain", "100.00", "100.00\n"},
		{"already terminated", "100.00\n", "100.00\n"},
		{"crlf", "100.00\r\n", "100.00\n"},
		{"empty", "", "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.in.Line()))
		})
	}
}

func TestNewValue(t *testing.T) {
	t.Parallel()
	assert.Equal(t, feed.Value("Stock price (AAPL): 187.2"), feed.NewValue("Stock price (AAPL): 187.2\n"))
}

func TestErrorValue(t *testing.T) {
	t.Parallel()

	v := feed.ErrorValue(errors.New("upstream timeout\nretry later"))
	assert.Equal(t, feed.Value("Error fetching price: upstream timeout retry later"), v)
	assert.True(t, feed.IsError(v))
	assert.False(t, feed.IsError("Stock Price: 101.00"))
	assert.True(t, feed.IsError(feed.ErrorValue(nil)))
}

func TestPlaceholderAndQuote(t *testing.T) {
	t.Parallel()

	assert.Equal(t, feed.Value("Stock Price (AAPL): Initializing"), feed.Initializing("AAPL"))
	assert.Equal(t, feed.Value("Stock Price: Initializing"), feed.Initializing(""))
	assert.Equal(t, feed.Value("Stock Price (AAPL): 187.20"), feed.QuoteValue("AAPL", 187.2))
	assert.Equal(t, feed.Value("Stock Price: 100.00"), feed.QuoteValue("", 100))
}

func TestFetchError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := &feed.FetchError{Source: "finnhub", Err: cause}
	assert.Equal(t, "fetch from finnhub failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	fatal := &feed.FetchError{Err: feed.Fatal(cause)}
	assert.ErrorIs(t, fatal, feed.ErrFatal)
	assert.ErrorIs(t, fatal, cause)
	assert.Nil(t, feed.Fatal(nil))
}
