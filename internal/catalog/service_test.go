package catalog

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadesk/pharmadesk/internal/shared"
)

type memoryProductRepo struct {
	nextID   int64
	products map[int64]Product
}

func newMemoryProductRepo() *memoryProductRepo {
	return &memoryProductRepo{nextID: 1, products: map[int64]Product{}}
}

func (m *memoryProductRepo) Create(_ context.Context, p Product) (Product, error) {
	p.ID = m.nextID
	m.nextID++
	m.products[p.ID] = p
	return p, nil
}

func (m *memoryProductRepo) Get(_ context.Context, shopID, id int64) (Product, error) {
	p, ok := m.products[id]
	if !ok || p.ShopID != shopID {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryProductRepo) List(_ context.Context, shopID int64, _, _ int, _ ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range m.products {
		if p.ShopID == shopID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *memoryProductRepo) SetStatus(_ context.Context, shopID, id int64, status ProductStatus) error {
	p, ok := m.products[id]
	if !ok || p.ShopID != shopID {
		return shared.ErrNotFound
	}
	p.Status = status
	m.products[id] = p
	return nil
}

func (m *memoryProductRepo) QuantityByIDs(_ context.Context, shopID int64, ids []int64) (map[int64]int64, error) {
	out := map[int64]int64{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok && p.ShopID == shopID {
			out[id] = p.Quantity
		}
	}
	return out, nil
}

func TestCreateProductStartsWithoutStock(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo, slog.Default())

	created, err := svc.Create(context.Background(), 7, CreateProductInput{
		Name:         "Paracetamol 500mg",
		SKU:          "PARA-500",
		Packing:      "1x10",
		SellingPrice: 25,
		MRP:          30,
		TaxPercent:   12,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), created.Quantity)
	assert.False(t, created.IsInventoryLive)
	assert.Equal(t, ProductStatusActive, created.Status)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryProductRepo(), slog.Default())

	_, err := svc.Create(context.Background(), 7, CreateProductInput{Name: "x"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeactivateKeepsRecord(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo, slog.Default())

	created, err := svc.Create(context.Background(), 7, CreateProductInput{
		Name: "Cetirizine", SKU: "CET-10",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), 7, created.ID))
	got, err := svc.Get(context.Background(), 7, created.ID)
	require.NoError(t, err)
	assert.Equal(t, ProductStatusInactive, got.Status)

	require.NoError(t, svc.Reactivate(context.Background(), 7, created.ID))
	got, err = svc.Get(context.Background(), 7, created.ID)
	require.NoError(t, err)
	assert.Equal(t, ProductStatusActive, got.Status)
}

func TestDeactivateUnknownProduct(t *testing.T) {
	svc := NewService(newMemoryProductRepo(), slog.Default())
	assert.ErrorIs(t, svc.Deactivate(context.Background(), 7, 99), shared.ErrNotFound)
}
