package finnhub

import (
	"errors"
	"fmt"
)

var (
	ErrMissingAPIKey   = errors.New("finnhub API key is required")
	ErrMissingSymbol   = errors.New("symbol is required")
	ErrInvalidBaseURL  = errors.New("invalid finnhub base URL")
	ErrRequest         = errors.New("finnhub request failed")
	ErrUnauthorized    = errors.New("finnhub rejected the API key")
	ErrInvalidResponse = errors.New("finnhub response could not be parsed")
	ErrNoData          = errors.New("no quote data for symbol")
	ErrCircuitOpen     = errors.New("finnhub circuit breaker is open")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}
