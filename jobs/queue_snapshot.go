package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/pharmadesk/pharmadesk/internal/analytics"
)

// QueueSnapshotJob keeps the dashboard cache warm so the stats endpoint stays
// a pure read.
type QueueSnapshotJob struct {
	Analytics *analytics.Service
	Shops     ShopSource
	Logger    *slog.Logger
}

// NewQueueSnapshotJob wires dependencies for the snapshot handler.
func NewQueueSnapshotJob(analyticsSvc *analytics.Service, shops ShopSource, logger *slog.Logger) *QueueSnapshotJob {
	return &QueueSnapshotJob{Analytics: analyticsSvc, Shops: shops, Logger: logger}
}

// Handle processes TaskQueueSnapshot tasks.
func (j *QueueSnapshotJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("queue snapshot: handler not configured")
	}
	var payload QueueSnapshotPayload
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

	for _, shopID := range shopIDs {
		if _, err := j.Analytics.Dashboard(ctx, shopID); err != nil {
			j.Logger.Error("snapshot warmup failed",
				slog.Int64("shop_id", shopID), slog.Any("error", err))
			return err
		}
	}
	return nil
}
