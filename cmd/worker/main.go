package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/app"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/observability"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/platform/cache"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/platform/db"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/promotions"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	promoRepo := promotions.NewRepository(pool)
	promoCache := promotions.NewStatusCache(redisClient, cfg.StatusCacheTTL)
	sweeper := promotions.NewSweeper(promoRepo, promoCache, logger)
	metrics := observability.NewMetrics()

	sweepTask, err := jobs.NewPromotionsSweepTask()
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	purgeTask, err := jobs.NewPromotionsPurgeTask()
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPromotionsSweep, Handler: jobs.NewSweepHandler(sweeper, metrics, logger)},
			{Type: jobs.TaskPromotionsPurge, Handler: jobs.NewPurgeHandler(sweeper, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SweepSpec, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.PurgeSpec, Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
