// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package loads a .env file on first use and uses the caarlos0/env
// library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	type FeedConfig struct {
//		Addr           string `env:"FEED_ADDR" envDefault:"127.0.0.1:8080"`
//		MaxConnections int    `env:"FEED_MAX_CONNECTIONS" envDefault:"1000"`
//		APIKey         string `env:"FINNHUB_API_KEY,required"`
//	}
//
//	func main() {
//		var cfg FeedConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per process. Different types
// are cached independently. Reset clears the cache, which is mostly useful in
// tests that change the environment between loads.
package config
