package feed

import "time"

// Source kinds accepted in Config.Source.
const (
	SourceSynthetic = "synthetic"
	SourceFinnhub   = "finnhub"
	SourceRedis     = "redis"
)

// Config holds producer and fan-out settings.
type Config struct {
	Source       string        `env:"FEED_SOURCE" envDefault:"synthetic"`
	Symbol       string        `env:"FEED_SYMBOL" envDefault:"AAPL"`
	Interval     time.Duration `env:"FEED_INTERVAL" envDefault:"5s"`
	FetchTimeout time.Duration `env:"FEED_FETCH_TIMEOUT" envDefault:"3s"`

	// Per-consumer queue length before the oldest values are dropped.
	LagCapacity int `env:"FEED_LAG_CAPACITY" envDefault:"16"`

	// Bounds for the synthetic source.
	SyntheticMin float64 `env:"FEED_SYNTHETIC_MIN" envDefault:"100"`
	SyntheticMax float64 `env:"FEED_SYNTHETIC_MAX" envDefault:"200"`

	// Producer is reported unhealthy when no good value arrived within this window.
	MaxStaleness time.Duration `env:"FEED_MAX_STALENESS" envDefault:"1m"`
}

// DefaultConfig returns a Config with the same defaults as the env tags.
func DefaultConfig() Config {
	return Config{
		Source:       SourceSynthetic,
		Symbol:       "AAPL",
		Interval:     DefaultInterval,
		FetchTimeout: 3 * time.Second,
		LagCapacity:  16,
		SyntheticMin: 100,
		SyntheticMax: 200,
		MaxStaleness: time.Minute,
	}
}
