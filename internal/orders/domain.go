// Package orders holds online orders and the stock-driven triage engine that
// routes them between the picking and hold queues.
package orders

import "time"

// Status is the order state machine. Triage only ever writes Picking or
// OnHold; every other transition is a manual operator action.
type Status string

const (
	StatusPending            Status = "pending"
	StatusConfirmed          Status = "confirmed"
	StatusPicking            Status = "Picking"
	StatusOnHold             Status = "On Hold"
	StatusBilling            Status = "Billing"
	StatusPacking            Status = "Packing"
	StatusQualityCheck       Status = "Quality Check"
	StatusUnderQC            Status = "Under QC"
	StatusScannedForShipping Status = "Scanned For Shipping"
	StatusShipped            Status = "shipped"
	StatusShipping           Status = "Shipping"
	StatusProblemQueue       Status = "Problem Queue"
	StatusPicklistGenerated  Status = "Picklist Generated"
	StatusUnallocated        Status = "Unallocated"
	StatusDelivered          Status = "delivered"
	StatusCancelled          Status = "cancelled"
	StatusReturned           Status = "Returned"
	StatusSalesReturn        Status = "Sales Return"
)

var knownStatuses = map[Status]struct{}{
	StatusPending: {}, StatusConfirmed: {}, StatusPicking: {}, StatusOnHold: {},
	StatusBilling: {}, StatusPacking: {}, StatusQualityCheck: {}, StatusUnderQC: {},
	StatusScannedForShipping: {}, StatusShipped: {}, StatusShipping: {},
	StatusProblemQueue: {}, StatusPicklistGenerated: {}, StatusUnallocated: {},
	StatusDelivered: {}, StatusCancelled: {}, StatusReturned: {}, StatusSalesReturn: {},
}

// ValidStatus reports whether s is a known order state.
func ValidStatus(s Status) bool {
	_, ok := knownStatuses[s]
	return ok
}

// triageable holds the states the triage engine re-evaluates. Orders further
// down the fulfilment line are left alone.
var triageable = map[Status]struct{}{
	StatusPending: {}, StatusConfirmed: {}, StatusPicking: {}, StatusOnHold: {},
}

// Triageable reports whether the triage engine may touch an order in state s.
func Triageable(s Status) bool {
	_, ok := triageable[s]
	return ok
}

// Item is one order line. ProductName and ProductPrice are frozen at order
// time and never re-read from the catalog.
type Item struct {
	ProductID    int64   `json:"productId"`
	ProductName  string  `json:"productName"`
	ProductPrice float64 `json:"productPrice"`
	Quantity     int64   `json:"quantity"`
}

// Order is one online order.
type Order struct {
	ID          int64     `json:"id"`
	ShopID      int64     `json:"shopId"`
	OrderNumber string    `json:"orderNumber"`
	Items       []Item    `json:"items"`
	Subtotal    float64   `json:"subtotal"`
	Discount    float64   `json:"discount"`
	Total       float64   `json:"total"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
