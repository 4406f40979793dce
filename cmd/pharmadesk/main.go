package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pharmadesk/pharmadesk/internal/analytics"
	"github.com/pharmadesk/pharmadesk/internal/app"
	"github.com/pharmadesk/pharmadesk/internal/catalog"
	"github.com/pharmadesk/pharmadesk/internal/inventory"
	"github.com/pharmadesk/pharmadesk/internal/observability"
	"github.com/pharmadesk/pharmadesk/internal/orders"
	"github.com/pharmadesk/pharmadesk/internal/platform/cache"
	"github.com/pharmadesk/pharmadesk/internal/platform/db"
	"github.com/pharmadesk/pharmadesk/internal/purchase"
	"github.com/pharmadesk/pharmadesk/internal/receiving"
	"github.com/pharmadesk/pharmadesk/internal/shared"
	"github.com/pharmadesk/pharmadesk/internal/shopauth"
	"github.com/pharmadesk/pharmadesk/internal/storage"
	"github.com/pharmadesk/pharmadesk/internal/suppliers"
	"github.com/pharmadesk/pharmadesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
	idempotency := shared.NewIdempotencyStore(pool)

	triageClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := triageClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	uploads, err := storage.NewLocal(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		logger.Error("init upload store", slog.Any("error", err))
		os.Exit(1)
	}

	shopRepo := shopauth.NewRepository(pool)
	shopAuth := shopauth.NewMiddleware(shopRepo, logger)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	supplierRepo := suppliers.NewRepository(pool)
	supplierService := suppliers.NewService(supplierRepo, logger)
	supplierHandler := suppliers.NewHandler(logger, supplierService)

	receivingRepo := receiving.NewRepository(pool)
	receivingService := receiving.NewService(receivingRepo, logger)
	receivingHandler := receiving.NewHandler(logger, receivingService)

	linkGRN := func(ctx context.Context, shopID, entryID, grnID int64, invoiceImageURL string) error {
		_, err := receivingService.LinkGRN(ctx, shopID, entryID, grnID, invoiceImageURL)
		return err
	}
	purchaseRepo := purchase.NewRepository(pool)
	purchaseService := purchase.NewService(purchaseRepo, supplierService, idempotency, metrics, linkGRN, triageClient, logger)
	purchaseHandler := purchase.NewHandler(logger, purchaseService, uploads)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, metrics, triageClient, logger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	orderRepo := orders.NewRepository(pool)
	orderService := orders.NewService(orderRepo, catalogRepo, metrics, logger)
	orderHandler := orders.NewHandler(logger, orderService)

	statsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	if err := statsCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("stats cache subscribe", slog.Any("error", err))
	}
	analyticsService := analytics.NewService(orderRepo, purchaseRepo, receivingRepo, statsCache, logger)
	analyticsHandler := analytics.NewHandler(logger, analyticsService)

	router := app.NewRouter(app.RouterDeps{
		Logger:    logger,
		Config:    cfg,
		Metrics:   metrics,
		ShopAuth:  shopAuth,
		Catalog:   catalogHandler,
		Suppliers: supplierHandler,
		Receiving: receivingHandler,
		Purchase:  purchaseHandler,
		Inventory: inventoryHandler,
		Orders:    orderHandler,
		Analytics: analyticsHandler,
		UploadDir: uploads.Dir(),
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
