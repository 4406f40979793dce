// Package suppliers holds the supplier master used by inbound purchases.
package suppliers

import "time"

// SupplierStatus marks a supplier active or soft-deleted.
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "Active"
	SupplierStatusInactive SupplierStatus = "Inactive"
)

// Supplier is one vendor a shop buys from.
type Supplier struct {
	ID        int64          `json:"id"`
	ShopID    int64          `json:"shopId"`
	Name      string         `json:"name"`
	GSTIN     string         `json:"gstin,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	Email     string         `json:"email,omitempty"`
	Address   string         `json:"address,omitempty"`
	Status    SupplierStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
