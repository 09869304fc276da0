package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/pricefeed/app/pricefeed"
	"github.com/dmitrymomot/pricefeed/core/config"
	"github.com/dmitrymomot/pricefeed/core/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg pricefeed.Config
	config.MustLoad(&cfg) // panic on error

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.AppName),
		logger.WithLevelString(cfg.LogLevel),
	)
	logger.SetAsDefault(log)

	app, err := pricefeed.NewApp(
		pricefeed.WithConfig(cfg),
		pricefeed.WithLogger(log),
	)
	if err != nil {
		log.Error("Failed to initialize application", logger.Component("app"), logger.Error(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Error("Failed to run price feed", logger.Component("app"), logger.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped")
}
