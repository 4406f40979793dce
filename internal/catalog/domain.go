package catalog

import (
	"errors"
	"time"
)

// ProductStatus marks a product active or soft-deleted.
type ProductStatus string

const (
	// ProductStatusActive means the product is sellable.
	ProductStatusActive ProductStatus = "Active"
	// ProductStatusInactive soft-deletes a product referenced by history.
	ProductStatusInactive ProductStatus = "Inactive"
)

// Product is one SKU in one shop. Quantity is always expressed in base stock
// units; invoice quantities arrive in strips/packs and are converted through
// PackSize before touching Quantity.
type Product struct {
	ID                int64         `json:"id"`
	ShopID            int64         `json:"shopId"`
	Name              string        `json:"name"`
	SKU               string        `json:"sku"`
	Category          string        `json:"category,omitempty"`
	Packing           string        `json:"packing,omitempty"`
	BatchNumber       string        `json:"batchNumber,omitempty"`
	ExpiryDate        *time.Time    `json:"expiryDate,omitempty"`
	ManufacturingDate *time.Time    `json:"manufacturingDate,omitempty"`
	Quantity          int64         `json:"quantity"`
	PurchasePrice     float64       `json:"purchasePrice"`
	SellingPrice      float64       `json:"sellingPrice"`
	MRP               float64       `json:"mrp"`
	HSNCode           string        `json:"hsnCode,omitempty"`
	TaxPercent        float64       `json:"tax"`
	RackLocation      string        `json:"rackLocation,omitempty"`
	ReorderLevel      int64         `json:"reorderLevel"`
	IsInventoryLive   bool          `json:"isInventoryLive"`
	Status            ProductStatus `json:"status"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// ReceiptSync carries the line-item fields that overwrite the product master
// when a purchase commits. Nil pointers leave the stored value untouched.
type ReceiptSync struct {
	PurchasePrice     *float64
	SellingPrice      *float64
	MRP               *float64
	BatchNumber       *string
	ExpiryDate        *time.Time
	ManufacturingDate *time.Time
	HSNCode           *string
	Packing           *string
	TaxPercent        *float64
	RackLocation      *string
}

// ErrInsufficientStock indicates an outbound mutation would drive quantity negative.
var ErrInsufficientStock = errors.New("catalog: insufficient stock")
