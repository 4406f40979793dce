package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/pharmadesk/pharmadesk/internal/analytics"
	"github.com/pharmadesk/pharmadesk/internal/orders"
)

// ShopSource lists the shops a fan-out task covers.
type ShopSource interface {
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

// OrderTriageJob runs the stock-sufficiency pass over open orders.
type OrderTriageJob struct {
	Orders    *orders.Service
	Analytics *analytics.Service
	Shops     ShopSource
	Logger    *slog.Logger
}

// NewOrderTriageJob wires dependencies for the triage handler.
func NewOrderTriageJob(orderSvc *orders.Service, analyticsSvc *analytics.Service, shops ShopSource, logger *slog.Logger) *OrderTriageJob {
	return &OrderTriageJob{Orders: orderSvc, Analytics: analyticsSvc, Shops: shops, Logger: logger}
}

// Handle processes TaskOrderTriage tasks.
func (j *OrderTriageJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("order triage: handler not configured")
	}
	var payload OrderTriagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	shopIDs := []int64{payload.ShopID}
	if payload.ShopID == 0 {
		ids, err := j.Shops.ListActiveIDs(ctx)
		if err != nil {
			return err
		}
		shopIDs = ids
	}

	changed := false
	for _, shopID := range shopIDs {
		result, err := j.Orders.Triage(ctx, shopID)
		if err != nil {
			j.Logger.Error("triage pass failed",
				slog.Int64("shop_id", shopID), slog.Any("error", err))
			return err
		}
		if result.Promoted > 0 || result.Demoted > 0 {
			changed = true
		}
	}

	if changed && j.Analytics != nil {
		if err := j.Analytics.Invalidate(ctx); err != nil {
			j.Logger.Warn("invalidate stats cache", slog.Any("error", err))
		}
	}
	return nil
}
