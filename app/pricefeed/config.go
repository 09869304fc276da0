package pricefeed

import (
	"github.com/dmitrymomot/pricefeed/core/feed"
	"github.com/dmitrymomot/pricefeed/core/server"
	"github.com/dmitrymomot/pricefeed/integration/database/redis"
	"github.com/dmitrymomot/pricefeed/integration/quote/finnhub"
)

type Config struct {
	Feed    feed.Config
	Server  server.Config
	Finnhub finnhub.Config
	Redis   redis.Config

	AppName  string `env:"APP_NAME" envDefault:"pricefeed"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Metrics and health endpoints; empty disables the ops listener.
	OpsAddr string `env:"OPS_ADDR" envDefault:"127.0.0.1:9090"`
}
