// Package inventory keeps the append-only adjustment ledger for stock
// mutations made outside the purchase pipeline.
package inventory

import "time"

// LogType is the direction of a manual adjustment.
type LogType string

// LogStatus tracks whether an inbound adjustment has been shelved yet.
type LogStatus string

const (
	TypeIn  LogType = "IN"
	TypeOut LogType = "OUT"

	StatusPutawayPending LogStatus = "Putaway_Pending"
	StatusCompleted      LogStatus = "Completed"
)

// Log is one ledger entry. Quantity is in base stock units. An IN entry does
// not touch the product until its put-away completes; an OUT entry applies
// immediately, atomically with the log write.
type Log struct {
	ID          int64      `json:"id"`
	ShopID      int64      `json:"shopId"`
	ProductID   int64      `json:"productId"`
	Type        LogType    `json:"type"`
	Quantity    int64      `json:"quantity"`
	Reason      string     `json:"reason,omitempty"`
	Status      LogStatus  `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
