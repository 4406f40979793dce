package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pharmadesk/pharmadesk/internal/observability"
	"github.com/pharmadesk/pharmadesk/internal/shared"
)

// RepositoryPort abstracts order persistence.
type RepositoryPort interface {
	Get(ctx context.Context, shopID, id int64) (Order, error)
	List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Order, int, error)
	ListOpen(ctx context.Context, shopID int64) ([]Order, error)
	UpdateStatus(ctx context.Context, shopID, id int64, status Status) error
	CountByStatus(ctx context.Context, shopID int64) (map[Status]int, error)
}

// StockReader exposes current stock levels to the triage engine.
type StockReader interface {
	QuantityByIDs(ctx context.Context, shopID int64, ids []int64) (map[int64]int64, error)
}

// Service coordinates order listing, manual transitions and triage.
type Service struct {
	repo    RepositoryPort
	stock   StockReader
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, stock StockReader, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{repo: repo, stock: stock, metrics: metrics, logger: logger}
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, shopID, id int64) (Order, error) {
	return s.repo.Get(ctx, shopID, id)
}

// List returns paginated orders.
func (s *Service) List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Order, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, shopID, limit, offset, filters)
}

// UpdateStatus applies a manual operator transition.
func (s *Service) UpdateStatus(ctx context.Context, shopID, id int64, status Status) (Order, error) {
	if !ValidStatus(status) {
		return Order{}, fmt.Errorf("orders: status %q: %w", status, shared.ErrValidation)
	}
	if err := s.repo.UpdateStatus(ctx, shopID, id, status); err != nil {
		return Order{}, err
	}
	s.logger.Info("order status updated",
		slog.Int64("shop_id", shopID),
		slog.Int64("order_id", id),
		slog.String("status", string(status)))
	return s.repo.Get(ctx, shopID, id)
}

// CountByStatus aggregates orders per state for the dashboard.
func (s *Service) CountByStatus(ctx context.Context, shopID int64) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx, shopID)
}
