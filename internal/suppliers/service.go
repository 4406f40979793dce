package suppliers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pharmadesk/pharmadesk/internal/shared"
)

// RepositoryPort abstracts supplier persistence.
type RepositoryPort interface {
	Create(ctx context.Context, s Supplier) (Supplier, error)
	Get(ctx context.Context, shopID, id int64) (Supplier, error)
	Exists(ctx context.Context, shopID, id int64) (bool, error)
	List(ctx context.Context, shopID int64, limit, offset int, search string) ([]Supplier, int, error)
	SetStatus(ctx context.Context, shopID, id int64, status SupplierStatus) error
}

// Service coordinates supplier master operations.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, validate: validator.New(), logger: logger}
}

// CreateSupplierInput captures a new supplier.
type CreateSupplierInput struct {
	Name    string `json:"name" validate:"required,min=2"`
	GSTIN   string `json:"gstin" validate:"omitempty,len=15"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}

// Create registers a supplier for the shop. GSTIN is normalised before
// validation so padded or lowercase input still passes the length check.
func (s *Service) Create(ctx context.Context, shopID int64, input CreateSupplierInput) (Supplier, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.GSTIN = strings.ToUpper(strings.TrimSpace(input.GSTIN))
	if err := s.validate.Struct(input); err != nil {
		return Supplier{}, fmt.Errorf("suppliers: %w: %s", shared.ErrValidation, err)
	}
	created, err := s.repo.Create(ctx, Supplier{
		ShopID:  shopID,
		Name:    input.Name,
		GSTIN:   input.GSTIN,
		Phone:   input.Phone,
		Email:   input.Email,
		Address: input.Address,
		Status:  SupplierStatusActive,
	})
	if err != nil {
		return Supplier{}, fmt.Errorf("suppliers: create: %w", err)
	}
	s.logger.Info("supplier created", slog.Int64("shop_id", shopID), slog.Int64("supplier_id", created.ID))
	return created, nil
}

// Get returns one supplier.
func (s *Service) Get(ctx context.Context, shopID, id int64) (Supplier, error) {
	return s.repo.Get(ctx, shopID, id)
}

// Exists reports whether the supplier is usable for new purchases.
func (s *Service) Exists(ctx context.Context, shopID, id int64) (bool, error) {
	return s.repo.Exists(ctx, shopID, id)
}

// List returns paginated suppliers.
func (s *Service) List(ctx context.Context, shopID int64, limit, offset int, search string) ([]Supplier, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, shopID, limit, offset, search)
}

// Deactivate soft-deletes a supplier; history referencing it stays readable.
func (s *Service) Deactivate(ctx context.Context, shopID, id int64) error {
	return s.repo.SetStatus(ctx, shopID, id, SupplierStatusInactive)
}
