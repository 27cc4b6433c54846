package main

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/olyamironova/order-execution-engine/internal/adapter/in_memory"
	"github.com/olyamironova/order-execution-engine/internal/adapter/redisq"
	apihttp "github.com/olyamironova/order-execution-engine/internal/api/http"
	"github.com/olyamironova/order-execution-engine/internal/config"
	"github.com/olyamironova/order-execution-engine/internal/dispatch"
	"github.com/olyamironova/order-execution-engine/internal/notify"
	"github.com/olyamironova/order-execution-engine/internal/routing"
	"github.com/olyamironova/order-execution-engine/internal/worker"
)

func main() {
	cfg := config.LoadFromEnv("")

	logger, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	registry := notify.NewRegistry(logger)
	router := routing.NewService(logger)
	pool := worker.NewPool(router, registry, cfg.Worker.Concurrency, logger)

	durable := redisq.New(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, logger)
	fallback := in_memory.NewQueue(cfg.Worker.FallbackDelay, pool.Do, logger)
	dispatcher := dispatch.New(durable, fallback, cfg.Worker.ProbeTimeout, logger)

	if !dispatcher.FallbackMode() {
		go durable.Consume(context.Background(), pool.Do)
	}

	server := apihttp.NewHTTPServer(dispatcher, registry, cfg.SubmitInterval, logger)
	logger.Info("starting HTTP server", zap.String("addr", cfg.HTTPAddr))
	if err := server.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	c.EncoderConfig.TimeKey = "ts"
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return c.Build()
}
