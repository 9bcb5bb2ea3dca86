package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/joseph-ayodele/invoice-autofill/internal/app"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/queue"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.Redis.Addr == "" {
		logger.Error("REDIS_ADDR env var is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{JobLog: true, Cache: true})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB),
		asynq.Config{
			Concurrency: cfg.Redis.Concurrency,
		},
	)

	registry := queue.NewHandlersRegistry()
	importWorker := queue.NewImportWorker(a.Processor, logger)
	registry.Register(queue.TypeInvoiceImport, asynq.HandlerFunc(importWorker.ProcessTask))

	logger.Info("starting worker", "concurrency", cfg.Redis.Concurrency)
	if err := srv.Start(registry.Mux()); err != nil {
		logger.Error("worker error", "error", err)
		a.Close()
		os.Exit(1)
	}
	<-ctx.Done()
	logger.Info("shutting down worker")
	srv.Shutdown()
}
