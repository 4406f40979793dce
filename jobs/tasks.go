// Package jobs carries the background work: the recurring order triage pass
// and the dashboard snapshot warmup.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOrderTriage re-evaluates open orders against current stock.
	TaskOrderTriage = "orders:triage"
	// TaskQueueSnapshot refreshes the cached dashboard statistics.
	TaskQueueSnapshot = "stats:snapshot"
	// TaskIdempotencyCleanup expires old put-away idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// NewIdempotencyCleanupTask constructs a cleanup task. It carries no payload;
// retention is fixed by the handler.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

// OrderTriagePayload selects the triage scope. ShopID zero fans out to every
// active shop.
type OrderTriagePayload struct {
	ShopID int64 `json:"shopId"`
}

// NewOrderTriageTask constructs an order triage task.
func NewOrderTriageTask(payload OrderTriagePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTriage, data), nil
}

// QueueSnapshotPayload selects the snapshot scope. ShopID zero warms every
// active shop.
type QueueSnapshotPayload struct {
	ShopID int64 `json:"shopId"`
}

// NewQueueSnapshotTask constructs a snapshot warmup task.
func NewQueueSnapshotTask(payload QueueSnapshotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQueueSnapshot, data), nil
}
