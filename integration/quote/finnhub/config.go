package finnhub

import "time"

// Config holds Finnhub client settings.
type Config struct {
	APIKey         string        `env:"FINNHUB_API_KEY"`
	BaseURL        string        `env:"FINNHUB_BASE_URL" envDefault:"https://finnhub.io/api/v1"`
	RequestTimeout time.Duration `env:"FINNHUB_REQUEST_TIMEOUT" envDefault:"5s"`

	// Retries after the first attempt, and the first backoff delay.
	RetryAttempts  int           `env:"FINNHUB_RETRY_ATTEMPTS" envDefault:"2"`
	RetryBaseDelay time.Duration `env:"FINNHUB_RETRY_BASE_DELAY" envDefault:"200ms"`

	// Consecutive failed fetches that open the breaker, and how long it stays open.
	BreakerFailures uint32        `env:"FINNHUB_BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout  time.Duration `env:"FINNHUB_BREAKER_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns a Config with the same defaults as the env tags.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "https://finnhub.io/api/v1",
		RequestTimeout:  5 * time.Second,
		RetryAttempts:   2,
		RetryBaseDelay:  200 * time.Millisecond,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}
