package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pharmadesk/pharmadesk/internal/catalog"
	"github.com/pharmadesk/pharmadesk/internal/observability"
	"github.com/pharmadesk/pharmadesk/internal/shared"
)

// TriageScheduler enqueues an order triage pass after stock changes.
type TriageScheduler interface {
	EnqueueTriage(ctx context.Context, shopID int64) error
}

// Service coordinates manual stock adjustments.
type Service struct {
	repo     RepositoryPort
	metrics  *observability.Metrics
	triage   TriageScheduler
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, metrics *observability.Metrics, triage TriageScheduler, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		metrics:  metrics,
		triage:   triage,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// AdjustInput captures one manual adjustment.
type AdjustInput struct {
	ProductID int64   `json:"productId" validate:"required,gt=0"`
	Type      LogType `json:"type" validate:"required,oneof=IN OUT"`
	Quantity  int64   `json:"quantity" validate:"required,gt=0"`
	Reason    string  `json:"reason"`
}

// Adjust records an adjustment. OUT applies to the product immediately in the
// same transaction; IN is staged behind put-away like purchased stock.
func (s *Service) Adjust(ctx context.Context, shopID int64, input AdjustInput) (Log, error) {
	if err := s.validate.Struct(input); err != nil {
		return Log{}, fmt.Errorf("inventory: %w: %s", shared.ErrValidation, err)
	}
	l := Log{
		ShopID:    shopID,
		ProductID: input.ProductID,
		Type:      input.Type,
		Quantity:  input.Quantity,
		Reason:    input.Reason,
		Status:    StatusPutawayPending,
	}
	err := s.repo.WithinTx(ctx, func(tx Tx) error {
		if l.Type == TypeOut {
			if err := tx.Deduct(ctx, shopID, l.ProductID, l.Quantity); err != nil {
				if errors.Is(err, catalog.ErrInsufficientStock) {
					return fmt.Errorf("inventory: product %d: %s: %w",
						l.ProductID, err, shared.ErrConflict)
				}
				return err
			}
			now := s.now()
			l.Status = StatusCompleted
			l.CompletedAt = &now
		}
		return tx.InsertLog(ctx, &l)
	})
	if err != nil {
		return Log{}, err
	}

	if l.Type == TypeOut {
		if s.metrics != nil {
			s.metrics.ObserveStockCommit("adjustment")
		}
		s.scheduleTriage(ctx, shopID)
	}
	s.logger.Info("inventory adjustment recorded",
		slog.Int64("shop_id", shopID),
		slog.Int64("product_id", l.ProductID),
		slog.String("type", string(l.Type)),
		slog.Int64("quantity", l.Quantity),
		slog.String("status", string(l.Status)))
	return l, nil
}

// CompletePutaway applies a staged IN adjustment to the product and closes
// the ledger entry, exactly once.
func (s *Service) CompletePutaway(ctx context.Context, shopID, logID int64) (Log, error) {
	var result Log
	err := s.repo.WithinTx(ctx, func(tx Tx) error {
		l, err := tx.GetLogForUpdate(ctx, shopID, logID)
		if err != nil {
			return err
		}
		if l.Type != TypeIn {
			return fmt.Errorf("inventory: log %d is %s: %w", logID, l.Type, shared.ErrValidation)
		}
		if l.Status == StatusCompleted {
			return fmt.Errorf("inventory: log %d already completed: %w", logID, shared.ErrConflict)
		}
		if err := tx.Apply(ctx, shopID, l.ProductID, l.Quantity); err != nil {
			return err
		}
		now := s.now()
		if err := tx.MarkCompleted(ctx, shopID, logID, now); err != nil {
			return err
		}
		l.Status = StatusCompleted
		l.CompletedAt = &now
		result = l
		return nil
	})
	if err != nil {
		return Log{}, err
	}

	if s.metrics != nil {
		s.metrics.ObserveStockCommit("adjustment")
	}
	s.logger.Info("adjustment put-away completed",
		slog.Int64("shop_id", shopID),
		slog.Int64("log_id", logID),
		slog.Int64("product_id", result.ProductID))
	s.scheduleTriage(ctx, shopID)
	return result, nil
}

// List returns paginated ledger entries.
func (s *Service) List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Log, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, shopID, limit, offset, filters)
}

func (s *Service) scheduleTriage(ctx context.Context, shopID int64) {
	if s.triage == nil {
		return
	}
	if err := s.triage.EnqueueTriage(ctx, shopID); err != nil {
		s.logger.Error("enqueue triage", slog.Int64("shop_id", shopID), slog.Any("error", err))
	}
}
