package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kanak-erp/kanak/internal/app"
	"github.com/kanak-erp/kanak/internal/catalog"
	"github.com/kanak-erp/kanak/internal/goldloan"
	jobmetrics "github.com/kanak-erp/kanak/internal/jobs"
	"github.com/kanak-erp/kanak/internal/platform/cache"
	"github.com/kanak-erp/kanak/internal/platform/db"
	"github.com/kanak-erp/kanak/internal/platform/remote"
	"github.com/kanak-erp/kanak/jobs"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	api := remote.NewClient(cfg.BackendAPIURL,
		remote.WithToken(cfg.BackendAPIToken),
		remote.WithTimeout(cfg.BackendAPITimeout))
	lookup := catalog.NewLookup(catalog.NewClient(api), catalog.NewCache(redisClient, cfg.CatalogCacheTTL), logger)

	var loans goldloan.Repository = goldloan.NewMemoryRepository()
	if cfg.PGDSN != "" {
		pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 4, ConnectTimeout: 5 * time.Second})
		if err != nil {
			logger.Error("connect database", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		loans = goldloan.NewPGRepository(pool)
	} else {
		logger.Warn("PG_DSN not set, overdue scan sees no loans")
	}

	metrics := jobmetrics.NewMetrics(nil)
	refreshJob := jobs.NewCatalogRefreshJob(lookup, redisClient, logger, metrics)
	overdueJob := jobs.NewOverdueScanJob(loans, logger, metrics)

	refreshTask, err := jobs.NewCatalogRefreshTask("scheduled")
	if err != nil {
		logger.Error("build catalog refresh task", slog.Any("error", err))
		os.Exit(1)
	}
	overdueTask, err := jobs.NewOverdueScanTask(time.Time{})
	if err != nil {
		logger.Error("build overdue scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCatalogRefresh, Handler: refreshJob.Handle},
			{Type: jobs.TaskGoldLoanOverdueScan, Handler: overdueJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.CatalogRefreshCron, Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 1 * * *", Task: overdueTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
