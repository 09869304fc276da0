package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker"

	"github.com/dmitrymomot/pricefeed/core/feed"
	"github.com/dmitrymomot/pricefeed/core/logger"
)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 64 << 10

// Quote is the /quote response body.
type Quote struct {
	Current       float64 `json:"c"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Time returns the quote timestamp.
func (q Quote) Time() time.Time {
	return time.Unix(q.Timestamp, 0)
}

// Client is a Finnhub quote client for a single symbol. It implements feed.Source.
type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	symbol    string
	retries   uint64
	baseDelay time.Duration
	cb        *gobreaker.CircuitBreaker
	logger    *slog.Logger
}

// New creates a client for symbol.
func New(cfg Config, symbol string, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if symbol == "" {
		return nil, ErrMissingSymbol
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}

	c := &Client{
		http:      &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		symbol:    symbol,
		retries:   uint64(max(cfg.RetryAttempts, 0)),
		baseDelay: cfg.RetryBaseDelay,
		logger:    logger.Discard(),
	}
	if c.baseDelay <= 0 {
		c.baseDelay = 100 * time.Millisecond
	}

	for _, opt := range opts {
		opt(c)
	}

	failures := max(cfg.BreakerFailures, 1)
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "finnhub",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				logger.Component(name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return c, nil
}

// Name identifies the source in logs and errors.
func (c *Client) Name() string {
	return "finnhub"
}

// Fetch implements feed.Source.
func (c *Client) Fetch(ctx context.Context) (feed.Value, error) {
	q, err := c.Quote(ctx)
	if err != nil {
		return "", err
	}
	return feed.QuoteValue(c.symbol, q.Current), nil
}

// Quote fetches the current quote, retrying transient failures.
func (c *Client) Quote(ctx context.Context) (Quote, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		var q Quote
		attempt := 0
		err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
			attempt++
			var err error
			q, err = c.fetch(ctx)
			if err != nil && attempt <= int(c.retries) && isRetryable(err) {
				c.logger.DebugContext(ctx, "quote request failed, retrying",
					logger.Component("finnhub"),
					logger.RetryCount(attempt),
					logger.Error(err))
			}
			return err
		})
		return q, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Quote{}, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	if err != nil {
		return Quote{}, err
	}
	return res.(Quote), nil
}

// State reports the circuit breaker state.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}

func (c *Client) backoff() retry.Backoff {
	return retry.WithMaxRetries(c.retries,
		retry.WithCappedDuration(10*c.baseDelay, retry.NewExponential(c.baseDelay)))
}

// fetch performs a single request. Failures worth retrying are marked with
// retry.RetryableError.
func (c *Client) fetch(ctx context.Context) (Quote, error) {
	query := url.Values{"symbol": {c.symbol}, "token": {c.apiKey}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+query.Encode(), nil)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error carries the full URL, token included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		if ctx.Err() != nil {
			return Quote{}, fmt.Errorf("%w: %w", ErrRequest, err)
		}
		return Quote{}, retry.RetryableError(fmt.Errorf("%w: %w", ErrRequest, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Quote{}, retry.RetryableError(fmt.Errorf("%w: %w", ErrRequest, err))
	}

	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return Quote{}, feed.Fatal(fmt.Errorf("%w: %w", ErrUnauthorized, &StatusError{Code: code}))
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return Quote{}, retry.RetryableError(&StatusError{Code: code})
	case code != http.StatusOK:
		return Quote{}, &StatusError{Code: code}
	}

	var q Quote
	if err := json.Unmarshal(body, &q); err != nil {
		return Quote{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	// Unknown symbols come back as an all-zero quote.
	if q.Current == 0 && q.Timestamp == 0 {
		return Quote{}, fmt.Errorf("%w: %s", ErrNoData, c.symbol)
	}
	return q, nil
}

func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	return errors.Is(err, ErrRequest)
}
