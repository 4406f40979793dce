// Package purchase implements the supplier invoice (GRN) state machine and
// the put-away gated stock commit.
package purchase

import "time"

// Status is the GRN state machine. Received is terminal for the stock-commit
// invariant: quantities are applied exactly once on the transition into it.
type Status string

const (
	StatusPending        Status = "Pending"
	StatusPutawayPending Status = "Putaway_Pending"
	StatusReceived       Status = "Received"
	StatusCancelled      Status = "Cancelled"
)

// Priority orders the put-away queue on the floor.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// PaymentStatus tracks settlement with the supplier.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPartial PaymentStatus = "Partial"
	PaymentPaid    PaymentStatus = "Paid"
)

// Item is one invoice line. ReceivedQty and the free quantities are expressed
// in strips/packs; conversion to stock units happens at commit time via the
// product's packing descriptor.
type Item struct {
	ID              int64      `json:"id"`
	ProductID       int64      `json:"productId"`
	ProductName     string     `json:"productName,omitempty"`
	SupplierSKUID   string     `json:"supplierSkuId,omitempty"`
	SKUID           string     `json:"skuId,omitempty"`
	Pack            string     `json:"pack,omitempty"`
	BatchNumber     string     `json:"batchNumber,omitempty"`
	ExpiryDate      *time.Time `json:"expiryDate,omitempty"`
	MfgDate         *time.Time `json:"mfgDate,omitempty"`
	SystemMRP       float64    `json:"systemMrp,omitempty"`
	OrderedQty      int64      `json:"orderedQty"`
	ReceivedQty     int64      `json:"receivedQty"`
	PhysicalFreeQty int64      `json:"physicalFreeQty"`
	SchemeFreeQty   int64      `json:"schemeFreeQty"`
	PORate          float64    `json:"poRate,omitempty"`
	PTR             float64    `json:"ptr,omitempty"`
	BaseRate        float64    `json:"baseRate"`
	SchemeDiscount  float64    `json:"schemeDiscount"`
	DiscountPercent float64    `json:"discountPercent"`
	Amount          float64    `json:"amount"`
	HSNCode         string     `json:"hsnCode,omitempty"`
	CGST            float64    `json:"cgst"`
	SGST            float64    `json:"sgst"`
	IGST            float64    `json:"igst"`
	PurchasePrice   float64    `json:"purchasePrice"`
	SellingPrice    float64    `json:"sellingPrice,omitempty"`
	MRP             float64    `json:"mrp,omitempty"`
	Margin          float64    `json:"margin"`
	RackLocation    string     `json:"rackLocation,omitempty"`
}

// GSTRate is the combined percentage of an item's CGST, SGST and IGST parts.
func (it Item) GSTRate() float64 {
	return it.CGST + it.SGST + it.IGST
}

// TaxSlab accumulates taxable value and derived tax for one GST rate.
type TaxSlab struct {
	Taxable float64 `json:"taxable"`
	Tax     float64 `json:"tax"`
}

// TaxBreakup buckets invoice lines into the four recognised GST slabs. Lines
// carrying any other combined rate are left out of the breakup.
type TaxBreakup struct {
	GST5  TaxSlab `json:"gst5"`
	GST12 TaxSlab `json:"gst12"`
	GST18 TaxSlab `json:"gst18"`
	GST28 TaxSlab `json:"gst28"`
}

// InvoiceSummary carries the invoice level derived totals.
type InvoiceSummary struct {
	TaxableAmount  float64 `json:"taxableAmount"`
	TCSAmount      float64 `json:"tcsAmount"`
	MRPValue       float64 `json:"mrpValue"`
	NetAmount      float64 `json:"netAmount"`
	AmountAfterGST float64 `json:"amountAfterGst"`
	RoundAmount    float64 `json:"roundAmount"`
	InvoiceAmount  float64 `json:"invoiceAmount"`
}

// Purchase is one supplier invoice.
type Purchase struct {
	ID                  int64          `json:"id"`
	ShopID              int64          `json:"shopId"`
	InvoiceNumber       string         `json:"invoiceNumber"`
	SupplierID          int64          `json:"supplierId"`
	PhysicalReceivingID *int64         `json:"physicalReceivingId,omitempty"`
	Priority            Priority       `json:"priority"`
	ReceivingLocation   string         `json:"receivingLocation"`
	InvoiceDate         *time.Time     `json:"invoiceDate,omitempty"`
	Items               []Item         `json:"items"`
	InvoiceSummary      InvoiceSummary `json:"invoiceSummary"`
	TaxBreakup          TaxBreakup     `json:"taxBreakup"`
	SubTotal            float64        `json:"subTotal"`
	TaxAmount           float64        `json:"taxAmount"`
	Discount            float64        `json:"discount"`
	GrandTotal          float64        `json:"grandTotal"`
	Status              Status         `json:"status"`
	PaymentStatus       PaymentStatus  `json:"paymentStatus"`
	PaymentMethod       string         `json:"paymentMethod"`
	Notes               string         `json:"notes,omitempty"`
	InvoiceImageURL     string         `json:"invoiceImageUrl,omitempty"`
	PurchaseDate        time.Time      `json:"purchaseDate"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// ValidStatus reports whether s is a known GRN state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPutawayPending, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// Stats aggregates a purchase listing for the dashboard header.
type Stats struct {
	TotalCount     int     `json:"totalCount"`
	PendingCount   int     `json:"pendingCount"`
	PutawayCount   int     `json:"putawayCount"`
	ReceivedCount  int     `json:"receivedCount"`
	CancelledCount int     `json:"cancelledCount"`
	PendingValue   float64 `json:"pendingValue"`
	ReceivedValue  float64 `json:"receivedValue"`
}
