package purchase

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

// SupplierChecker verifies the supplier reference before a purchase is raised.
type SupplierChecker interface {
	Exists(ctx context.Context, shopID, supplierID int64) (bool, error)
}

// GRNLinkFunc back-links a created purchase onto its physical receiving entry.
type GRNLinkFunc func(ctx context.Context, shopID, entryID, grnID int64, invoiceImageURL string) error

// TriageScheduler enqueues an order triage pass after stock changes.
type TriageScheduler interface {
	EnqueueTriage(ctx context.Context, shopID int64) error
}

// Service coordinates the GRN state machine and stock commits.
type Service struct {
	repo        RepositoryPort
	suppliers   SupplierChecker
	idempotency *shared.IdempotencyStore
	metrics     *observability.Metrics
	linkGRN     GRNLinkFunc
	triage      TriageScheduler
	validate    *validator.Validate
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service instance. linkGRN and triage may be nil in
// worker-only wiring.
func NewService(repo RepositoryPort, suppliers SupplierChecker, idempotency *shared.IdempotencyStore,
	metrics *observability.Metrics, linkGRN GRNLinkFunc, triage TriageScheduler, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		suppliers:   suppliers,
		idempotency: idempotency,
		metrics:     metrics,
		linkGRN:     linkGRN,
		triage:      triage,
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
	}
}

// CreatePurchaseInput captures one supplier invoice.
type CreatePurchaseInput struct {
	InvoiceNumber       string        `json:"invoiceNumber"`
	SupplierID          int64         `json:"supplierId" validate:"required,gt=0"`
	PhysicalReceivingID *int64        `json:"physicalReceivingId"`
	Priority            Priority      `json:"priority"`
	ReceivingLocation   string        `json:"receivingLocation"`
	InvoiceDate         *time.Time    `json:"invoiceDate"`
	Items               []Item        `json:"items" validate:"required,min=1,dive"`
	Discount            float64       `json:"discount" validate:"gte=0"`
	Status              Status        `json:"status"`
	PaymentStatus       PaymentStatus `json:"paymentStatus"`
	PaymentMethod       string        `json:"paymentMethod"`
	Notes               string        `json:"notes"`
	InvoiceImageURL     string        `json:"invoiceImageUrl"`
}

// Create records a purchase. When the caller supplies pre-verified goods
// (status Received) the stock commit happens in the same transaction;
// otherwise quantities stay staged until put-away.
func (s *Service) Create(ctx context.Context, shopID int64, input CreatePurchaseInput) (Purchase, error) {
	if err := s.validate.Struct(input); err != nil {
		return Purchase{}, fmt.Errorf("purchase: %w: %s", shared.ErrValidation, err)
	}
	status := input.Status
	if status == "" {
		status = StatusPending
	}
	if !ValidStatus(status) || status == StatusCancelled {
		return Purchase{}, fmt.Errorf("purchase: status %q: %w", input.Status, shared.ErrValidation)
	}
	for i := range input.Items {
		if input.Items[i].ProductID <= 0 {
			return Purchase{}, fmt.Errorf("purchase: item %d missing product: %w", i, shared.ErrValidation)
		}
		if input.Items[i].ReceivedQty < 0 || input.Items[i].PhysicalFreeQty < 0 || input.Items[i].SchemeFreeQty < 0 {
			return Purchase{}, fmt.Errorf("purchase: item %d negative quantity: %w", i, shared.ErrValidation)
		}
	}

	ok, err := s.suppliers.Exists(ctx, shopID, input.SupplierID)
	if err != nil {
		return Purchase{}, fmt.Errorf("purchase: check supplier: %w", err)
	}
	if !ok {
		return Purchase{}, fmt.Errorf("purchase: supplier %d: %w", input.SupplierID, shared.ErrNotFound)
	}

	now := s.now()
	priority := input.Priority
	if priority == "" {
		priority = PriorityP3
	}
	location := input.ReceivingLocation
	if location == "" {
		location = "Dock-1"
	}
	paymentStatus := input.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = PaymentPending
	}
	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "Cash"
	}

	subTotal, taxAmount, grandTotal := Totals(input.Items)
	p := Purchase{
		ShopID:              shopID,
		InvoiceNumber:       input.InvoiceNumber,
		SupplierID:          input.SupplierID,
		PhysicalReceivingID: input.PhysicalReceivingID,
		Priority:            priority,
		ReceivingLocation:   location,
		InvoiceDate:         input.InvoiceDate,
		Items:               input.Items,
		InvoiceSummary:      ComputeInvoiceSummary(input.Items),
		TaxBreakup:          ComputeTaxBreakup(input.Items),
		SubTotal:            subTotal,
		TaxAmount:           taxAmount,
		Discount:            input.Discount,
		GrandTotal:          grandTotal - input.Discount,
		Status:              status,
		PaymentStatus:       paymentStatus,
		PaymentMethod:       paymentMethod,
		Notes:               input.Notes,
		InvoiceImageURL:     input.InvoiceImageURL,
		PurchaseDate:        now,
	}

	err = s.repo.WithinTx(ctx, func(tx Tx) error {
		if p.InvoiceNumber == "" {
			number, err := tx.NextInvoiceNumber(ctx, shopID, now.Year())
			if err != nil {
				return err
			}
			p.InvoiceNumber = number
		}
		if err := tx.InsertPurchase(ctx, &p); err != nil {
			return err
		}
		if p.Status == StatusReceived {
			return s.commitStock(ctx, tx, shopID, p.Items)
		}
		return nil
	})
	if err != nil {
		return Purchase{}, err
	}

	if p.Status == StatusReceived && s.metrics != nil {
		s.metrics.ObserveStockCommit("create")
	}
	s.logger.Info("purchase created",
		slog.Int64("shop_id", shopID),
		slog.Int64("purchase_id", p.ID),
		slog.String("invoice_number", p.InvoiceNumber),
		slog.String("status", string(p.Status)))

	if input.PhysicalReceivingID != nil && s.linkGRN != nil {
		if err := s.linkGRN(ctx, shopID, *input.PhysicalReceivingID, p.ID, p.InvoiceImageURL); err != nil {
			s.logger.Error("link grn to physical receiving",
				slog.Int64("purchase_id", p.ID), slog.Any("error", err))
		}
	}
	if p.Status == StatusReceived {
		s.scheduleTriage(ctx, shopID)
	}
	return p, nil
}

// VerifiedItem corrects one stored line during physical verification.
type VerifiedItem struct {
	ItemID       int64      `json:"itemId"`
	ReceivedQty  *int64     `json:"receivedQty"`
	BatchNumber  *string    `json:"batchNumber"`
	ExpiryDate   *time.Time `json:"expiryDate"`
	RackLocation *string    `json:"rackLocation"`
}

// ProcessPutAway commits staged stock for a pending purchase. Re-running it
// against an already received purchase fails with a conflict and applies
// nothing.
func (s *Service) ProcessPutAway(ctx context.Context, shopID, purchaseID int64, verified []VerifiedItem) (Purchase, error) {
	key := fmt.Sprintf("PUTAWAY:%d:%d", shopID, purchaseID)
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, shared.ModulePurchase); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Purchase{}, fmt.Errorf("purchase: put-away already applied: %w", shared.ErrConflict)
			}
			return Purchase{}, err
		}
	}

	var result Purchase
	err := s.repo.WithinTx(ctx, func(tx Tx) error {
		p, err := tx.GetForUpdate(ctx, shopID, purchaseID)
		if err != nil {
			return err
		}
		switch p.Status {
		case StatusReceived:
			return fmt.Errorf("purchase: %d already received: %w", purchaseID, shared.ErrConflict)
		case StatusCancelled:
			return fmt.Errorf("purchase: %d cancelled: %w", purchaseID, shared.ErrConflict)
		}

		if len(verified) > 0 {
			applyVerified(p.Items, verified)
			if err := tx.ReplaceItems(ctx, shopID, p.ID, p.Items); err != nil {
				return err
			}
		}
		if err := s.commitStock(ctx, tx, shopID, p.Items); err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, shopID, p.ID, StatusReceived); err != nil {
			return err
		}
		p.Status = StatusReceived
		result = p
		return nil
	})
	if err != nil {
		if s.idempotency != nil && !errors.Is(err, shared.ErrConflict) {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Purchase{}, err
	}

	if s.metrics != nil {
		s.metrics.ObserveStockCommit("putaway")
	}
	s.logger.Info("put-away committed",
		slog.Int64("shop_id", shopID),
		slog.Int64("purchase_id", purchaseID),
		slog.String("invoice_number", result.InvoiceNumber))
	s.scheduleTriage(ctx, shopID)
	return result, nil
}

func applyVerified(items []Item, verified []VerifiedItem) {
	byID := make(map[int64]*Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	for _, v := range verified {
		it, ok := byID[v.ItemID]
		if !ok {
			continue
		}
		if v.ReceivedQty != nil {
			it.ReceivedQty = *v.ReceivedQty
		}
		if v.BatchNumber != nil {
			it.BatchNumber = *v.BatchNumber
		}
		if v.ExpiryDate != nil {
			it.ExpiryDate = v.ExpiryDate
		}
		if v.RackLocation != nil {
			it.RackLocation = *v.RackLocation
		}
	}
}

// commitStock converts each line to stock units and applies it to the product
// ledger. Runs inside the caller's transaction so a dangling product reference
// aborts the whole invoice.
func (s *Service) commitStock(ctx context.Context, tx Tx, shopID int64, items []Item) error {
	for _, it := range items {
		product, err := tx.Product(ctx, shopID, it.ProductID)
		if err != nil {
			return err
		}
		strips := it.ReceivedQty + it.PhysicalFreeQty + it.SchemeFreeQty
		units := strips * catalog.PackSize(product.Packing)
		if err := tx.ApplyReceipt(ctx, shopID, it.ProductID, units, receiptSync(it)); err != nil {
			return err
		}
	}
	return nil
}

// receiptSync maps the populated line fields onto the product master.
func receiptSync(it Item) catalog.ReceiptSync {
	var sync catalog.ReceiptSync
	if it.PurchasePrice > 0 {
		v := it.PurchasePrice
		sync.PurchasePrice = &v
	}
	if it.SellingPrice > 0 {
		v := it.SellingPrice
		sync.SellingPrice = &v
	}
	if it.MRP > 0 {
		v := it.MRP
		sync.MRP = &v
	}
	if it.BatchNumber != "" {
		v := it.BatchNumber
		sync.BatchNumber = &v
	}
	if it.ExpiryDate != nil {
		sync.ExpiryDate = it.ExpiryDate
	}
	if it.MfgDate != nil {
		sync.ManufacturingDate = it.MfgDate
	}
	if it.HSNCode != "" {
		v := it.HSNCode
		sync.HSNCode = &v
	}
	if it.Pack != "" {
		v := it.Pack
		sync.Packing = &v
	}
	if rate := it.GSTRate(); rate > 0 {
		sync.TaxPercent = &rate
	}
	if it.RackLocation != "" {
		v := it.RackLocation
		sync.RackLocation = &v
	}
	return sync
}

func (s *Service) scheduleTriage(ctx context.Context, shopID int64) {
	if s.triage == nil {
		return
	}
	if err := s.triage.EnqueueTriage(ctx, shopID); err != nil {
		s.logger.Error("enqueue triage", slog.Int64("shop_id", shopID), slog.Any("error", err))
	}
}

// BulkPutawayRow is one line of a warehouse slotting upload.
type BulkPutawayRow struct {
	InvoiceNumber string `json:"invoiceNumber" validate:"required"`
	SKUID         string `json:"skuId"`
	ProductName   string `json:"productName"`
	RackLocation  string `json:"rackLocation" validate:"required"`
}

// BulkPutawayResult reports how the upload matched.
type BulkPutawayResult struct {
	Matched   int              `json:"matched"`
	Unmatched []BulkPutawayRow `json:"unmatched,omitempty"`
}

// BulkPutawayUpload corrects rack locations on purchases still awaiting
// put-away. It never moves status or touches stock.
func (s *Service) BulkPutawayUpload(ctx context.Context, shopID int64, rows []BulkPutawayRow) (BulkPutawayResult, error) {
	if len(rows) == 0 {
		return BulkPutawayResult{}, fmt.Errorf("purchase: empty upload: %w", shared.ErrValidation)
	}
	var result BulkPutawayResult
	for _, row := range rows {
		if row.InvoiceNumber == "" || row.RackLocation == "" {
			result.Unmatched = append(result.Unmatched, row)
			continue
		}
		p, err := s.repo.FindPutawayPendingByInvoice(ctx, shopID, row.InvoiceNumber)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				result.Unmatched = append(result.Unmatched, row)
				continue
			}
			return BulkPutawayResult{}, err
		}
		item, ok := matchItem(p.Items, row)
		if !ok {
			result.Unmatched = append(result.Unmatched, row)
			continue
		}
		if err := s.repo.UpdateItemRack(ctx, shopID, p.ID, item.ID, row.RackLocation); err != nil {
			return BulkPutawayResult{}, err
		}
		result.Matched++
	}
	s.logger.Info("bulk put-away upload processed",
		slog.Int64("shop_id", shopID),
		slog.Int("matched", result.Matched),
		slog.Int("unmatched", len(result.Unmatched)))
	return result, nil
}

func matchItem(items []Item, row BulkPutawayRow) (Item, bool) {
	for _, it := range items {
		if row.SKUID != "" && it.SKUID == row.SKUID {
			return it, true
		}
		if row.SKUID == "" && row.ProductName != "" && it.ProductName == row.ProductName {
			return it, true
		}
	}
	return Item{}, false
}

// Cancel voids a purchase before any goods are reconciled.
func (s *Service) Cancel(ctx context.Context, shopID, purchaseID int64) (Purchase, error) {
	var result Purchase
	err := s.repo.WithinTx(ctx, func(tx Tx) error {
		p, err := tx.GetForUpdate(ctx, shopID, purchaseID)
		if err != nil {
			return err
		}
		if p.Status != StatusPending {
			return fmt.Errorf("purchase: cannot cancel from %s: %w", p.Status, shared.ErrConflict)
		}
		if err := tx.SetStatus(ctx, shopID, p.ID, StatusCancelled); err != nil {
			return err
		}
		p.Status = StatusCancelled
		result = p
		return nil
	})
	if err != nil {
		return Purchase{}, err
	}
	s.logger.Info("purchase cancelled", slog.Int64("shop_id", shopID), slog.Int64("purchase_id", purchaseID))
	return result, nil
}

// Get returns one purchase with items.
func (s *Service) Get(ctx context.Context, shopID, id int64) (Purchase, error) {
	return s.repo.Get(ctx, shopID, id)
}

// List returns paginated purchases plus aggregate stats over the filter.
func (s *Service) List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Purchase, int, Stats, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	purchases, total, err := s.repo.List(ctx, shopID, limit, offset, filters)
	if err != nil {
		return nil, 0, Stats{}, err
	}
	stats, err := s.repo.Stats(ctx, shopID, filters)
	if err != nil {
		return nil, 0, Stats{}, err
	}
	return purchases, total, stats, nil
}
