package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pharmadesk/pharmadesk/internal/shared"
)

// RepositoryPort abstracts product persistence for the service.
type RepositoryPort interface {
	Create(ctx context.Context, p Product) (Product, error)
	Get(ctx context.Context, shopID, id int64) (Product, error)
	List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Product, int, error)
	SetStatus(ctx context.Context, shopID, id int64, status ProductStatus) error
	QuantityByIDs(ctx context.Context, shopID int64, ids []int64) (map[int64]int64, error)
}

// Service coordinates product master operations.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, validate: validator.New(), logger: logger}
}

// CreateProductInput captures a new product master entry.
type CreateProductInput struct {
	Name              string     `json:"name" validate:"required,min=2"`
	SKU               string     `json:"sku" validate:"required,min=2"`
	Category          string     `json:"category"`
	Packing           string     `json:"packing"`
	BatchNumber       string     `json:"batchNumber"`
	ExpiryDate        *time.Time `json:"expiryDate"`
	ManufacturingDate *time.Time `json:"manufacturingDate"`
	PurchasePrice     float64    `json:"purchasePrice" validate:"gte=0"`
	SellingPrice      float64    `json:"sellingPrice" validate:"gte=0"`
	MRP               float64    `json:"mrp" validate:"gte=0"`
	HSNCode           string     `json:"hsnCode"`
	TaxPercent        float64    `json:"tax" validate:"gte=0,lte=100"`
	RackLocation      string     `json:"rackLocation"`
	ReorderLevel      int64      `json:"reorderLevel" validate:"gte=0"`
}

// Create registers a product for the shop. Stock always starts at zero and
// only purchase put-away commits can raise it.
func (s *Service) Create(ctx context.Context, shopID int64, input CreateProductInput) (Product, error) {
	if err := s.validate.Struct(input); err != nil {
		return Product{}, fmt.Errorf("catalog: %w: %s", shared.ErrValidation, err)
	}
	p := Product{
		ShopID:            shopID,
		Name:              strings.TrimSpace(input.Name),
		SKU:               strings.TrimSpace(input.SKU),
		Category:          input.Category,
		Packing:           input.Packing,
		BatchNumber:       input.BatchNumber,
		ExpiryDate:        input.ExpiryDate,
		ManufacturingDate: input.ManufacturingDate,
		Quantity:          0,
		PurchasePrice:     input.PurchasePrice,
		SellingPrice:      input.SellingPrice,
		MRP:               input.MRP,
		HSNCode:           input.HSNCode,
		TaxPercent:        input.TaxPercent,
		RackLocation:      input.RackLocation,
		ReorderLevel:      input.ReorderLevel,
		Status:            ProductStatusActive,
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: create product: %w", err)
	}
	s.logger.Info("product created",
		slog.Int64("shop_id", shopID),
		slog.Int64("product_id", created.ID),
		slog.String("sku", created.SKU))
	return created, nil
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, shopID, id int64) (Product, error) {
	return s.repo.Get(ctx, shopID, id)
}

// List returns paginated products.
func (s *Service) List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Product, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, shopID, limit, offset, filters)
}

// Deactivate soft-deletes a product so ledger history stays intact.
func (s *Service) Deactivate(ctx context.Context, shopID, id int64) error {
	if err := s.repo.SetStatus(ctx, shopID, id, ProductStatusInactive); err != nil {
		return err
	}
	s.logger.Info("product deactivated", slog.Int64("shop_id", shopID), slog.Int64("product_id", id))
	return nil
}

// Reactivate restores a soft-deleted product.
func (s *Service) Reactivate(ctx context.Context, shopID, id int64) error {
	return s.repo.SetStatus(ctx, shopID, id, ProductStatusActive)
}
