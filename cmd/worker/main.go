package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/pharmadesk/pharmadesk/internal/analytics"
	"github.com/pharmadesk/pharmadesk/internal/app"
	"github.com/pharmadesk/pharmadesk/internal/catalog"
	"github.com/pharmadesk/pharmadesk/internal/observability"
	"github.com/pharmadesk/pharmadesk/internal/orders"
	"github.com/pharmadesk/pharmadesk/internal/platform/cache"
	"github.com/pharmadesk/pharmadesk/internal/platform/db"
	"github.com/pharmadesk/pharmadesk/internal/purchase"
	"github.com/pharmadesk/pharmadesk/internal/receiving"
	"github.com/pharmadesk/pharmadesk/internal/shared"
	"github.com/pharmadesk/pharmadesk/internal/shopauth"
	"github.com/pharmadesk/pharmadesk/jobs"
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
	slog.SetDefault(logger)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	metrics := observability.NewMetrics()

	shopRepo := shopauth.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	orderRepo := orders.NewRepository(pool)
	purchaseRepo := purchase.NewRepository(pool)
	receivingRepo := receiving.NewRepository(pool)

	orderService := orders.NewService(orderRepo, catalogRepo, metrics, logger)

	statsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	if err := statsCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("stats cache subscribe", slog.Any("error", err))
	}
	analyticsService := analytics.NewService(orderRepo, purchaseRepo, receivingRepo, statsCache, logger)

	triageJob := jobs.NewOrderTriageJob(orderService, analyticsService, shopRepo, logger)
	snapshotJob := jobs.NewQueueSnapshotJob(analyticsService, shopRepo, logger)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), logger)

	triageTask, err := jobs.NewOrderTriageTask(jobs.OrderTriagePayload{ShopID: 0})
	if err != nil {
		logger.Error("build triage task", slog.Any("error", err))
		os.Exit(1)
	}
	snapshotTask, err := jobs.NewQueueSnapshotTask(jobs.QueueSnapshotPayload{ShopID: 0})
	if err != nil {
		logger.Error("build snapshot task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOrderTriage, Handler: triageJob.Handle},
			{Type: jobs.TaskQueueSnapshot, Handler: snapshotJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.TriageCron, Task: triageTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3)}},
			{Spec: cfg.QueueSnapshotCron, Task: snapshotTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting",
		slog.String("triage_cron", cfg.TriageCron),
		slog.String("snapshot_cron", cfg.QueueSnapshotCron))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
