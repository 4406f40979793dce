package suppliers

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadesk/pharmadesk/internal/shared"
)

type memorySupplierRepo struct {
	nextID    int64
	suppliers map[int64]Supplier
}

func newMemorySupplierRepo() *memorySupplierRepo {
	return &memorySupplierRepo{nextID: 1, suppliers: map[int64]Supplier{}}
}

func (m *memorySupplierRepo) Create(_ context.Context, s Supplier) (Supplier, error) {
	s.ID = m.nextID
	m.nextID++
	m.suppliers[s.ID] = s
	return s, nil
}

func (m *memorySupplierRepo) Get(_ context.Context, shopID, id int64) (Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok || s.ShopID != shopID {
		return Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *memorySupplierRepo) Exists(_ context.Context, shopID, id int64) (bool, error) {
	s, ok := m.suppliers[id]
	return ok && s.ShopID == shopID && s.Status == SupplierStatusActive, nil
}

func (m *memorySupplierRepo) List(_ context.Context, shopID int64, _, _ int, _ string) ([]Supplier, int, error) {
	var out []Supplier
	for _, s := range m.suppliers {
		if s.ShopID == shopID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *memorySupplierRepo) SetStatus(_ context.Context, shopID, id int64, status SupplierStatus) error {
	s, ok := m.suppliers[id]
	if !ok || s.ShopID != shopID {
		return shared.ErrNotFound
	}
	s.Status = status
	m.suppliers[id] = s
	return nil
}

func TestCreateSupplierNormalizesGSTIN(t *testing.T) {
	svc := NewService(newMemorySupplierRepo(), slog.Default())

	created, err := svc.Create(context.Background(), 7, CreateSupplierInput{
		Name:  "Medline Distributors",
		GSTIN: " 27aaacm1234f1z5 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "27AAACM1234F1Z5", created.GSTIN)
	assert.Equal(t, SupplierStatusActive, created.Status)
}

func TestCreateSupplierRejectsBadGSTIN(t *testing.T) {
	svc := NewService(newMemorySupplierRepo(), slog.Default())

	_, err := svc.Create(context.Background(), 7, CreateSupplierInput{
		Name:  "Medline Distributors",
		GSTIN: "TOOSHORT",
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeactivatedSupplierFailsExistence(t *testing.T) {
	svc := NewService(newMemorySupplierRepo(), slog.Default())

	created, err := svc.Create(context.Background(), 7, CreateSupplierInput{Name: "Medline Distributors"})
	require.NoError(t, err)

	ok, err := svc.Exists(context.Background(), 7, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Deactivate(context.Background(), 7, created.ID))
	ok, err = svc.Exists(context.Background(), 7, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExistsIsShopScoped(t *testing.T) {
	svc := NewService(newMemorySupplierRepo(), slog.Default())

	created, err := svc.Create(context.Background(), 7, CreateSupplierInput{Name: "Medline Distributors"})
	require.NoError(t, err)

	ok, err := svc.Exists(context.Background(), 8, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
