// Package receiving tracks dock-level arrival of supplier shipments before
// any GRN is raised against them.
package receiving

import "time"

// ValidationStatus is the physical validation axis of an entry.
type ValidationStatus string

// GRNStatus is the system linkage axis of an entry. It moves independently of
// the physical validation status.
type GRNStatus string

const (
	ValidationPending ValidationStatus = "Pending"
	ValidationDone    ValidationStatus = "Done"

	GRNPending GRNStatus = "Pending"
	GRNDone    GRNStatus = "Done"
)

// Entry is one dock-arrival event. PhysicalReceivingID and SystemID live in
// their own ID spaces so floor staff can reference shipments without database
// ids.
type Entry struct {
	ID                  int64            `json:"id"`
	ShopID              int64            `json:"shopId"`
	SystemID            string           `json:"systemId"`
	PhysicalReceivingID string           `json:"physicalReceivingId"`
	SupplierName        string           `json:"supplierName"`
	InvoiceNumber       string           `json:"invoiceNumber"`
	InvoiceValue        float64          `json:"invoiceValue"`
	SKUCount            int              `json:"skuCount"`
	InvoiceDate         time.Time        `json:"invoiceDate"`
	OrderNumber         string           `json:"orderNumber,omitempty"`
	BoxCount            int              `json:"boxCount"`
	PolyCount           int              `json:"polyCount"`
	Location            string           `json:"location,omitempty"`
	POIDs               string           `json:"poIds,omitempty"`
	IsPONotPresent      bool             `json:"isPoNotPresent"`
	Status              ValidationStatus `json:"status"`
	ValidatedBy         string           `json:"validatedBy,omitempty"`
	ValidationDate      *time.Time       `json:"validationDate,omitempty"`
	GRNStatus           GRNStatus        `json:"grnStatus"`
	GRNID               *int64           `json:"grnId,omitempty"`
	GRNDate             *time.Time       `json:"grnDate,omitempty"`
	InvoiceImageURL     string           `json:"invoiceImageUrl,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}
