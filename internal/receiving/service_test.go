package receiving

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadesk/pharmadesk/internal/shared"
)

type memoryEntryRepo struct {
	nextID  int64
	entries map[int64]Entry
}

func newMemoryEntryRepo() *memoryEntryRepo {
	return &memoryEntryRepo{nextID: 1, entries: map[int64]Entry{}}
}

func (m *memoryEntryRepo) Create(_ context.Context, e Entry) (Entry, error) {
	e.ID = m.nextID
	m.nextID++
	m.entries[e.ID] = e
	return e, nil
}

func (m *memoryEntryRepo) Get(_ context.Context, shopID, id int64) (Entry, error) {
	e, ok := m.entries[id]
	if !ok || e.ShopID != shopID {
		return Entry{}, shared.ErrNotFound
	}
	return e, nil
}

func (m *memoryEntryRepo) GetByPhysicalID(_ context.Context, shopID int64, physicalID string) (Entry, error) {
	for _, e := range m.entries {
		if e.ShopID == shopID && e.PhysicalReceivingID == physicalID {
			return e, nil
		}
	}
	return Entry{}, shared.ErrNotFound
}

func (m *memoryEntryRepo) List(_ context.Context, shopID int64, _, _ int, filters ListFilters) ([]Entry, int, error) {
	var out []Entry
	for _, e := range m.entries {
		if e.ShopID != shopID {
			continue
		}
		if filters.GRNStatus != "" && e.GRNStatus != filters.GRNStatus {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func (m *memoryEntryRepo) MarkValidated(_ context.Context, shopID, id int64, validatedBy string, at time.Time) (Entry, error) {
	e, ok := m.entries[id]
	if !ok || e.ShopID != shopID {
		return Entry{}, shared.ErrNotFound
	}
	e.Status = ValidationDone
	e.ValidatedBy = validatedBy
	e.ValidationDate = &at
	m.entries[id] = e
	return e, nil
}

func (m *memoryEntryRepo) MarkGRNLinked(_ context.Context, shopID, id, grnID int64, invoiceImageURL string, at time.Time) (Entry, error) {
	e, ok := m.entries[id]
	if !ok || e.ShopID != shopID {
		return Entry{}, shared.ErrNotFound
	}
	e.GRNStatus = GRNDone
	e.GRNID = &grnID
	e.GRNDate = &at
	if invoiceImageURL != "" {
		e.InvoiceImageURL = invoiceImageURL
	}
	m.entries[id] = e
	return e, nil
}

func (m *memoryEntryRepo) CountPendingGRN(_ context.Context, shopID int64) (int, error) {
	n := 0
	for _, e := range m.entries {
		if e.ShopID == shopID && e.GRNStatus == GRNPending {
			n++
		}
	}
	return n, nil
}

func TestCreateEntryMintsIDs(t *testing.T) {
	svc := NewService(newMemoryEntryRepo(), slog.Default())

	entry, err := svc.Create(context.Background(), 3, CreateEntryInput{
		SupplierName:  "MediWholesale",
		InvoiceNumber: "INV-889",
		InvoiceValue:  12500,
		SKUCount:      14,
		InvoiceDate:   time.Now(),
		BoxCount:      4,
		PolyCount:     2,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(entry.PhysicalReceivingID, "PHY-"))
	assert.Len(t, entry.PhysicalReceivingID, 8)
	assert.True(t, strings.HasPrefix(entry.SystemID, "SYS-"))
	assert.Equal(t, ValidationPending, entry.Status)
	assert.Equal(t, GRNPending, entry.GRNStatus)
}

func TestCreateEntryValidation(t *testing.T) {
	svc := NewService(newMemoryEntryRepo(), slog.Default())

	_, err := svc.Create(context.Background(), 3, CreateEntryInput{SupplierName: "X"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestResolveByPhysicalID(t *testing.T) {
	repo := newMemoryEntryRepo()
	svc := NewService(repo, slog.Default())

	created, err := svc.Create(context.Background(), 3, CreateEntryInput{
		SupplierName:  "MediWholesale",
		InvoiceNumber: "INV-889",
		InvoiceDate:   time.Now(),
	})
	require.NoError(t, err)

	byPhy, err := svc.Resolve(context.Background(), 3, created.PhysicalReceivingID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byPhy.ID)

	byID, err := svc.Resolve(context.Background(), 3, "1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	_, err = svc.Resolve(context.Background(), 3, "PHY-0000")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestValidateDefaultsStaff(t *testing.T) {
	repo := newMemoryEntryRepo()
	svc := NewService(repo, slog.Default())

	created, err := svc.Create(context.Background(), 3, CreateEntryInput{
		SupplierName:  "MediWholesale",
		InvoiceNumber: "INV-889",
		InvoiceDate:   time.Now(),
	})
	require.NoError(t, err)

	validated, err := svc.Validate(context.Background(), 3, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ValidationDone, validated.Status)
	assert.Equal(t, "Staff", validated.ValidatedBy)
	assert.NotNil(t, validated.ValidationDate)
	// GRN axis moves independently of the physical one.
	assert.Equal(t, GRNPending, validated.GRNStatus)
}

func TestLinkGRNClosesPendingCount(t *testing.T) {
	repo := newMemoryEntryRepo()
	svc := NewService(repo, slog.Default())

	created, err := svc.Create(context.Background(), 3, CreateEntryInput{
		SupplierName:  "MediWholesale",
		InvoiceNumber: "INV-889",
		InvoiceDate:   time.Now(),
	})
	require.NoError(t, err)

	pending, err := svc.CountPendingGRN(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	linked, err := svc.LinkGRN(context.Background(), 3, created.ID, 42, "/uploads/inv-889.jpg")
	require.NoError(t, err)
	assert.Equal(t, GRNDone, linked.GRNStatus)
	require.NotNil(t, linked.GRNID)
	assert.Equal(t, int64(42), *linked.GRNID)
	assert.Equal(t, "/uploads/inv-889.jpg", linked.InvoiceImageURL)

	pending, err = svc.CountPendingGRN(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, pending)
}
