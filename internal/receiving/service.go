package receiving

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pharmadesk/pharmadesk/internal/shared"
)

// RepositoryPort abstracts receiving persistence.
type RepositoryPort interface {
	Create(ctx context.Context, e Entry) (Entry, error)
	Get(ctx context.Context, shopID, id int64) (Entry, error)
	GetByPhysicalID(ctx context.Context, shopID int64, physicalID string) (Entry, error)
	List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Entry, int, error)
	MarkValidated(ctx context.Context, shopID, id int64, validatedBy string, at time.Time) (Entry, error)
	MarkGRNLinked(ctx context.Context, shopID, id, grnID int64, invoiceImageURL string, at time.Time) (Entry, error)
	CountPendingGRN(ctx context.Context, shopID int64) (int, error)
}

// Service coordinates dock receiving operations.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, validate: validator.New(), logger: logger, now: time.Now}
}

// CreateEntryInput captures one dock arrival.
type CreateEntryInput struct {
	SupplierName   string    `json:"supplierName" validate:"required,min=2"`
	InvoiceNumber  string    `json:"invoiceNumber" validate:"required"`
	InvoiceValue   float64   `json:"invoiceValue" validate:"gte=0"`
	SKUCount       int       `json:"skuCount" validate:"gte=0"`
	InvoiceDate    time.Time `json:"invoiceDate" validate:"required"`
	OrderNumber    string    `json:"orderNumber"`
	BoxCount       int       `json:"boxCount" validate:"gte=0"`
	PolyCount      int       `json:"polyCount" validate:"gte=0"`
	Location       string    `json:"location"`
	POIDs          string    `json:"poIds"`
	IsPONotPresent bool      `json:"isPoNotPresent"`
}

// Create records a dock arrival and mints its floor-facing ids.
func (s *Service) Create(ctx context.Context, shopID int64, input CreateEntryInput) (Entry, error) {
	if err := s.validate.Struct(input); err != nil {
		return Entry{}, fmt.Errorf("receiving: %w: %s", shared.ErrValidation, err)
	}
	now := s.now()
	entry := Entry{
		ShopID:              shopID,
		SystemID:            fmt.Sprintf("SYS-%d-%03d", now.UnixMilli(), rand.Intn(1000)),
		PhysicalReceivingID: fmt.Sprintf("PHY-%04d", 1000+rand.Intn(9000)),
		SupplierName:        strings.TrimSpace(input.SupplierName),
		InvoiceNumber:       strings.TrimSpace(input.InvoiceNumber),
		InvoiceValue:        input.InvoiceValue,
		SKUCount:            input.SKUCount,
		InvoiceDate:         input.InvoiceDate,
		OrderNumber:         input.OrderNumber,
		BoxCount:            input.BoxCount,
		PolyCount:           input.PolyCount,
		Location:            input.Location,
		POIDs:               input.POIDs,
		IsPONotPresent:      input.IsPONotPresent,
		Status:              ValidationPending,
		GRNStatus:           GRNPending,
	}
	created, err := s.repo.Create(ctx, entry)
	if err != nil {
		return Entry{}, fmt.Errorf("receiving: create entry: %w", err)
	}
	s.logger.Info("physical receiving recorded",
		slog.Int64("shop_id", shopID),
		slog.String("physical_receiving_id", created.PhysicalReceivingID),
		slog.String("invoice_number", created.InvoiceNumber))
	return created, nil
}

// Resolve fetches an entry by database id or by its PHY-#### id.
func (s *Service) Resolve(ctx context.Context, shopID int64, ref string) (Entry, error) {
	if id, ok := parseID(ref); ok {
		e, err := s.repo.Get(ctx, shopID, id)
		if err == nil {
			return e, nil
		}
	}
	return s.repo.GetByPhysicalID(ctx, shopID, ref)
}

func parseID(ref string) (int64, bool) {
	var id int64
	for i := 0; i < len(ref); i++ {
		if ref[i] < '0' || ref[i] > '9' {
			return 0, false
		}
		id = id*10 + int64(ref[i]-'0')
	}
	return id, len(ref) > 0
}

// List returns paginated entries.
func (s *Service) List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Entry, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, shopID, limit, offset, filters)
}

// Validate marks the physical check complete. Staff name defaults when the
// floor terminal sends none.
func (s *Service) Validate(ctx context.Context, shopID, id int64, validatedBy string) (Entry, error) {
	if validatedBy == "" {
		validatedBy = "Staff"
	}
	entry, err := s.repo.MarkValidated(ctx, shopID, id, validatedBy, s.now())
	if err != nil {
		return Entry{}, err
	}
	s.logger.Info("physical receiving validated",
		slog.Int64("shop_id", shopID),
		slog.String("physical_receiving_id", entry.PhysicalReceivingID),
		slog.String("validated_by", validatedBy))
	return entry, nil
}

// LinkGRN back-links a created purchase onto the entry and closes its GRN axis.
func (s *Service) LinkGRN(ctx context.Context, shopID, id, grnID int64, invoiceImageURL string) (Entry, error) {
	entry, err := s.repo.MarkGRNLinked(ctx, shopID, id, grnID, invoiceImageURL, s.now())
	if err != nil {
		return Entry{}, err
	}
	s.logger.Info("grn linked to physical receiving",
		slog.Int64("shop_id", shopID),
		slog.String("physical_receiving_id", entry.PhysicalReceivingID),
		slog.Int64("grn_id", grnID))
	return entry, nil
}

// CountPendingGRN reports validated arrivals still awaiting a GRN.
func (s *Service) CountPendingGRN(ctx context.Context, shopID int64) (int, error) {
	return s.repo.CountPendingGRN(ctx, shopID)
}
