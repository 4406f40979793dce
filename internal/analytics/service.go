package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pharmadesk/pharmadesk/internal/orders"
)

// OrderSource exposes the order-side reads the dashboard needs.
type OrderSource interface {
	CreatedAtByStatuses(ctx context.Context, shopID int64, statuses []orders.Status) ([]time.Time, error)
	CountByStatus(ctx context.Context, shopID int64) (map[orders.Status]int, error)
}

// PurchaseSource exposes the purchase-side reads the dashboard needs.
type PurchaseSource interface {
	PendingCreatedAt(ctx context.Context, shopID int64) ([]time.Time, error)
}

// ReceivingSource exposes the dock-side reads the dashboard needs.
type ReceivingSource interface {
	CountPendingGRN(ctx context.Context, shopID int64) (int, error)
}

// Service derives dashboard statistics. It never mutates order or purchase
// state; triage runs in the background worker, not here.
type Service struct {
	orders     OrderSource
	purchases  PurchaseSource
	receivings ReceivingSource
	cache      *Cache
	logger     *slog.Logger
	printer    *message.Printer
	now        func() time.Time
}

// NewService builds Service instance.
func NewService(orderSrc OrderSource, purchaseSrc PurchaseSource, receivingSrc ReceivingSource,
	cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		orders:     orderSrc,
		purchases:  purchaseSrc,
		receivings: receivingSrc,
		cache:      cache,
		logger:     logger,
		printer:    message.NewPrinter(language.English),
		now:        time.Now,
	}
}

// DashboardStats is the full dashboard payload.
type DashboardStats struct {
	OrderAgeing      Histogram             `json:"orderAgeing"`
	GRNAgeing        Histogram             `json:"grnAgeing"`
	OrdersByStatus   map[orders.Status]int `json:"ordersByStatus"`
	PendingReceiving int                   `json:"pendingReceiving"`
	Summary          string                `json:"summary"`
	GeneratedAt      time.Time             `json:"generatedAt"`
}

// openOrderStatuses are the states whose age feeds the order histogram.
var openOrderStatuses = []orders.Status{
	orders.StatusPending, orders.StatusConfirmed, orders.StatusPicking, orders.StatusOnHold,
}

// Dashboard returns the cached dashboard snapshot, computing it on miss.
func (s *Service) Dashboard(ctx context.Context, shopID int64) (DashboardStats, error) {
	key, err := s.cache.BuildKey(ctx, "stats", "dashboard", fmt.Sprintf("%d", shopID))
	if err != nil {
		return DashboardStats{}, err
	}
	var stats DashboardStats
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (any, error) {
		return s.compute(ctx, shopID)
	})
	if err != nil {
		return DashboardStats{}, err
	}
	return stats, nil
}

func (s *Service) compute(ctx context.Context, shopID int64) (DashboardStats, error) {
	now := s.now()
	var (
		orderStamps []time.Time
		grnStamps   []time.Time
		byStatus    map[orders.Status]int
		pendingRecv int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orderStamps, err = s.orders.CreatedAtByStatuses(gctx, shopID, openOrderStatuses)
		return err
	})
	g.Go(func() error {
		var err error
		grnStamps, err = s.purchases.PendingCreatedAt(gctx, shopID)
		return err
	})
	g.Go(func() error {
		var err error
		byStatus, err = s.orders.CountByStatus(gctx, shopID)
		return err
	})
	g.Go(func() error {
		var err error
		pendingRecv, err = s.receivings.CountPendingGRN(gctx, shopID)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}

	stats := DashboardStats{
		OrderAgeing:      BuildHistogram(OrderBuckets, now, orderStamps),
		GRNAgeing:        BuildHistogram(GRNBuckets, now, grnStamps),
		OrdersByStatus:   byStatus,
		PendingReceiving: pendingRecv,
		GeneratedAt:      now,
	}
	stats.Summary = s.printer.Sprintf("%d open orders, %d pending GRNs, %d arrivals awaiting GRN",
		stats.OrderAgeing.Total, stats.GRNAgeing.Total, pendingRecv)

	s.logger.Debug("dashboard stats computed",
		slog.Int64("shop_id", shopID),
		slog.Int("open_orders", stats.OrderAgeing.Total),
		slog.Int("pending_grns", stats.GRNAgeing.Total))
	return stats, nil
}

// Invalidate drops every cached snapshot, typically after a triage pass or a
// stock commit.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
