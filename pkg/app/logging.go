package app

import (
	"context"
	"log/slog"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/config"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
)

const logCollection = "logs"

// SetupLogging installs the process logger. With LOG_MONGO_URI set, records
// are also shipped to MongoDB; the returned func flushes that sink.
func SetupLogging(ctx context.Context, cfg *config.Config) func(context.Context) error {
	if cfg.LogMongoURI == "" {
		logger.Setup(cfg.IsProduction())
		return func(context.Context) error { return nil }
	}

	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}
	mh, err := logger.NewMongoHandler(ctx, cfg.LogMongoURI, cfg.LogMongoDB, logCollection, level)
	if err != nil {
		logger.Setup(cfg.IsProduction())
		logger.Warn("mongo log sink disabled", "error", err)
		return func(context.Context) error { return nil }
	}
	logger.Setup(cfg.IsProduction(), mh)
	return mh.Close
}
