package server

import (
	"fmt"
	"time"
)

// Config holds server configuration with environment variable support.
type Config struct {
	// Listen address
	Addr string `env:"FEED_ADDR" envDefault:"127.0.0.1:8080"`

	// Admission
	MaxConnections int     `env:"FEED_MAX_CONNECTIONS" envDefault:"1000"`
	AcceptRate     float64 `env:"FEED_ACCEPT_RATE" envDefault:"0"` // connections per second, 0 = unlimited
	AcceptBurst    int     `env:"FEED_ACCEPT_BURST" envDefault:"100"`

	// Timeouts
	WriteTimeout    time.Duration `env:"FEED_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"FEED_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// TLS Configuration (optional)
	TLSCertFile string `env:"FEED_TLS_CERT_FILE" envDefault:""`
	TLSKeyFile  string `env:"FEED_TLS_KEY_FILE" envDefault:""`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            DefaultAddr,
		MaxConnections:  DefaultMaxConnections,
		AcceptBurst:     DefaultAcceptBurst,
		WriteTimeout:    DefaultWriteTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// NewFromConfig creates a Server from configuration.
// Additional options can override config values.
func NewFromConfig(cfg Config, f Feed, opts ...Option) (*Server, error) {
	if cfg.Addr == "" {
		return nil, ErrMissingAddress
	}
	if f == nil {
		return nil, ErrNilFeed
	}

	configOpts := make([]Option, 0, len(opts)+5)

	if cfg.MaxConnections > 0 {
		configOpts = append(configOpts, WithMaxConnections(cfg.MaxConnections))
	}
	if cfg.WriteTimeout > 0 {
		configOpts = append(configOpts, WithWriteTimeout(cfg.WriteTimeout))
	}
	if cfg.ShutdownTimeout > 0 {
		configOpts = append(configOpts, WithShutdownTimeout(cfg.ShutdownTimeout))
	}
	if cfg.AcceptRate > 0 {
		configOpts = append(configOpts, WithAcceptRate(cfg.AcceptRate, cfg.AcceptBurst))
	}

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		tlsConfig, err := loadTLSFromFiles(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS configuration from files %s, %s: %w",
				cfg.TLSCertFile, cfg.TLSKeyFile, err)
		}
		configOpts = append(configOpts, WithTLS(tlsConfig))
	}

	configOpts = append(configOpts, opts...)

	return New(cfg.Addr, f, configOpts...), nil
}
