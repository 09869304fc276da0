// Package logger provides structured logging utilities built on Go's standard slog package.
//
// # Basic Usage
//
//	log := logger.New(
//		logger.WithDevelopment("pricefeed"),
//		logger.WithLevel(slog.LevelDebug),
//	)
//
//	log.Info("feed server listening",
//		logger.Component("server"),
//		logger.Addr("127.0.0.1:8080"),
//	)
//
// # Environment Configurations
//
//	// Development: text format, debug level, stdout
//	devLogger := logger.New(logger.WithDevelopment("pricefeed"))
//
//	// Production: JSON format, info level, stdout
//	prodLogger := logger.New(logger.WithProduction("pricefeed"))
//
//	// Picked from APP_ENV
//	log := logger.New(logger.WithEnvironment(cfg.Env, cfg.AppName))
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for nil or empty inputs so they can be
// passed unconditionally:
//
//	log.Warn("consumer lagging",
//		logger.ConnID(id),
//		logger.RemoteAddr(conn.RemoteAddr()),
//		logger.Lagged(n),
//	)
//
//	log.Error("fetch failed",
//		logger.Error(err),
//		logger.Symbol("AAPL"),
//		logger.RetryCount(3),
//	)
//
// # Testing with Custom Output
//
//	var buf bytes.Buffer
//	log := logger.New(
//		logger.WithJSONFormatter(),
//		logger.WithOutput(&buf),
//	)
//	log.Info("Test message", logger.Component("test"))
//	assert.Contains(t, buf.String(), `"component":"test"`)
package logger
