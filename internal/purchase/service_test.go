package purchase

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadesk/pharmadesk/internal/catalog"
	"github.com/pharmadesk/pharmadesk/internal/shared"
)

// memoryPurchaseRepo implements RepositoryPort and Tx against maps so the
// state machine can be exercised without a database.
type memoryPurchaseRepo struct {
	nextPurchaseID int64
	nextItemID     int64
	purchases      map[int64]*Purchase
	products       map[int64]*catalog.Product
	sequences      map[string]int64
}

func newMemoryPurchaseRepo() *memoryPurchaseRepo {
	return &memoryPurchaseRepo{
		nextPurchaseID: 1,
		nextItemID:     1,
		purchases:      map[int64]*Purchase{},
		products:       map[int64]*catalog.Product{},
		sequences:      map[string]int64{},
	}
}

func (m *memoryPurchaseRepo) addProduct(p catalog.Product) {
	m.products[p.ID] = &p
}

func (m *memoryPurchaseRepo) WithinTx(_ context.Context, fn func(tx Tx) error) error {
	return fn(m)
}

func (m *memoryPurchaseRepo) NextInvoiceNumber(_ context.Context, shopID int64, year int) (string, error) {
	key := fmt.Sprintf("%d:%d", shopID, year)
	m.sequences[key]++
	return fmt.Sprintf("GRN-%d-%04d", year, m.sequences[key]), nil
}

func (m *memoryPurchaseRepo) InsertPurchase(_ context.Context, p *Purchase) error {
	p.ID = m.nextPurchaseID
	m.nextPurchaseID++
	for i := range p.Items {
		p.Items[i].ID = m.nextItemID
		m.nextItemID++
	}
	clone := *p
	clone.Items = append([]Item(nil), p.Items...)
	m.purchases[p.ID] = &clone
	return nil
}

func (m *memoryPurchaseRepo) GetForUpdate(_ context.Context, shopID, id int64) (Purchase, error) {
	p, ok := m.purchases[id]
	if !ok || p.ShopID != shopID {
		return Purchase{}, shared.ErrNotFound
	}
	clone := *p
	clone.Items = append([]Item(nil), p.Items...)
	return clone, nil
}

func (m *memoryPurchaseRepo) SetStatus(_ context.Context, shopID, id int64, status Status) error {
	p, ok := m.purchases[id]
	if !ok || p.ShopID != shopID {
		return shared.ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *memoryPurchaseRepo) ReplaceItems(_ context.Context, shopID, purchaseID int64, items []Item) error {
	p, ok := m.purchases[purchaseID]
	if !ok || p.ShopID != shopID {
		return shared.ErrNotFound
	}
	p.Items = append([]Item(nil), items...)
	return nil
}

func (m *memoryPurchaseRepo) Product(_ context.Context, shopID, productID int64) (catalog.Product, error) {
	p, ok := m.products[productID]
	if !ok || p.ShopID != shopID {
		return catalog.Product{}, shared.ErrNotFound
	}
	return *p, nil
}

func (m *memoryPurchaseRepo) ApplyReceipt(_ context.Context, shopID, productID, deltaUnits int64, sync catalog.ReceiptSync) error {
	p, ok := m.products[productID]
	if !ok || p.ShopID != shopID {
		return shared.ErrNotFound
	}
	p.Quantity += deltaUnits
	p.IsInventoryLive = true
	if sync.PurchasePrice != nil {
		p.PurchasePrice = *sync.PurchasePrice
	}
	if sync.RackLocation != nil {
		p.RackLocation = *sync.RackLocation
	}
	return nil
}

func (m *memoryPurchaseRepo) Get(ctx context.Context, shopID, id int64) (Purchase, error) {
	return m.GetForUpdate(ctx, shopID, id)
}

func (m *memoryPurchaseRepo) List(_ context.Context, shopID int64, _, _ int, _ ListFilters) ([]Purchase, int, error) {
	var out []Purchase
	for _, p := range m.purchases {
		if p.ShopID == shopID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (m *memoryPurchaseRepo) Stats(_ context.Context, shopID int64, _ ListFilters) (Stats, error) {
	var s Stats
	for _, p := range m.purchases {
		if p.ShopID != shopID {
			continue
		}
		s.TotalCount++
		switch p.Status {
		case StatusPending:
			s.PendingCount++
		case StatusPutawayPending:
			s.PutawayCount++
		case StatusReceived:
			s.ReceivedCount++
		case StatusCancelled:
			s.CancelledCount++
		}
	}
	return s, nil
}

func (m *memoryPurchaseRepo) FindPutawayPendingByInvoice(_ context.Context, shopID int64, invoiceNumber string) (Purchase, error) {
	for _, p := range m.purchases {
		if p.ShopID == shopID && p.InvoiceNumber == invoiceNumber && p.Status == StatusPutawayPending {
			clone := *p
			clone.Items = append([]Item(nil), p.Items...)
			return clone, nil
		}
	}
	return Purchase{}, shared.ErrNotFound
}

func (m *memoryPurchaseRepo) UpdateItemRack(_ context.Context, shopID, purchaseID, itemID int64, rack string) error {
	p, ok := m.purchases[purchaseID]
	if !ok || p.ShopID != shopID {
		return shared.ErrNotFound
	}
	for i := range p.Items {
		if p.Items[i].ID == itemID {
			p.Items[i].RackLocation = rack
			return nil
		}
	}
	return shared.ErrNotFound
}

type stubSuppliers struct {
	known map[int64]bool
}

func (s stubSuppliers) Exists(_ context.Context, _, supplierID int64) (bool, error) {
	return s.known[supplierID], nil
}

type recordingTriage struct {
	calls []int64
}

func (r *recordingTriage) EnqueueTriage(_ context.Context, shopID int64) error {
	r.calls = append(r.calls, shopID)
	return nil
}

func newTestService(repo *memoryPurchaseRepo, triage TriageScheduler) *Service {
	svc := NewService(repo, stubSuppliers{known: map[int64]bool{1: true}}, nil, nil, nil, triage, slog.Default())
	svc.now = func() time.Time { return time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestDirectCommitConvertsStripsToUnits(t *testing.T) {
	repo := newMemoryPurchaseRepo()
	repo.addProduct(catalog.Product{ID: 10, ShopID: 1, Packing: "1x10", Quantity: 0})
	triage := &recordingTriage{}
	svc := newTestService(repo, triage)

	p, err := svc.Create(context.Background(), 1, CreatePurchaseInput{
		SupplierID: 1,
		Status:     StatusReceived,
		Items: []Item{{
			ProductID:       10,
			ReceivedQty:     5,
			PhysicalFreeQty: 1,
			SchemeFreeQty:   0,
			BaseRate:        100,
			PurchasePrice:   100,
			Amount:          500,
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, p.Status)
	assert.Equal(t, int64(60), repo.products[10].Quantity)
	assert.True(t, repo.products[10].IsInventoryLive)
	assert.Equal(t, []int64{1}, triage.calls)
}

func TestPutawayPendingLeavesStockUntouched(t *testing.T) {
	repo := newMemoryPurchaseRepo()
	repo.addProduct(catalog.Product{ID: 10, ShopID: 1, Packing: "1x10", Quantity: 40})
	triage := &recordingTriage{}
	svc := newTestService(repo, triage)

	p, err := svc.Create(context.Background(), 1, CreatePurchaseInput{
		SupplierID: 1,
		Status:     StatusPutawayPending,
		Items: []Item{{
			ProductID: 10, ReceivedQty: 5, PhysicalFreeQty: 1,
			BaseRate: 100, PurchasePrice: 100, Amount: 500,
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(40), repo.products[10].Quantity)
	assert.Empty(t, triage.calls)

	committed, err := svc.ProcessPutAway(context.Background(), 1, p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, committed.Status)
	assert.Equal(t, int64(100), repo.products[10].Quantity)
	assert.Equal(t, []int64{1}, triage.calls)
}

func TestPutAwayIdempotence(t *testing.T) {
	repo := newMemoryPurchaseRepo()
	repo.addProduct(catalog.Product{ID: 10, ShopID: 1, Packing: "1x10"})
	svc := newTestService(repo, nil)

	p, err := svc.Create(context.Background(), 1, CreatePurchaseInput{
		SupplierID: 1,
		Status:     StatusPutawayPending,
		Items:      []Item{{ProductID: 10, ReceivedQty: 5, BaseRate: 100, PurchasePrice: 100, Amount: 500}},
	})
	require.NoError(t, err)

	_, err = svc.ProcessPutAway(context.Background(), 1, p.ID, nil)
	require.NoError(t, err)
	after := repo.products[10].Quantity

	_, err = svc.ProcessPutAway(context.Background(), 1, p.ID, nil)
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, after, repo.products[10].Quantity)
}

func TestPutAwayVerifiedItemsOverride(t *testing.T) {
	repo := newMemoryPurchaseRepo()
	repo.addProduct(catalog.Product{ID: 10, ShopID: 1, Packing: "1x10"})
	svc := newTestService(repo, nil)

	p, err := svc.Create(context.Background(), 1, CreatePurchaseInput{
		SupplierID: 1,
		Status:     StatusPutawayPending,
		Items:      []Item{{ProductID: 10, ReceivedQty: 5, BaseRate: 100, PurchasePrice: 100, Amount: 500}},
	})
	require.NoError(t, err)

	corrected := int64(3)
	rack := "A-12"
	_, err = svc.ProcessPutAway(context.Background(), 1, p.ID, []VerifiedItem{{
		ItemID:       p.Items[0].ID,
		ReceivedQty:  &corrected,
		RackLocation: &rack,
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(30), repo.products[10].Quantity)
	assert.Equal(t, "A-12", repo.products[10].RackLocation)
}

func TestInvoiceAutoNumbering(t *testing.T) {
	repo := newMemoryPurchaseRepo()
	repo.addProduct(catalog.Product{ID: 10, ShopID: 1, Packing: "1x10"})
	svc := newTestService(repo, nil)

	first, err := svc.Create(context.Background(), 1, CreatePurchaseInput{
		SupplierID: 1,
		Items:      []Item{{ProductID: 10, ReceivedQty: 1, BaseRate: 10, PurchasePrice: 10, Amount: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, "GRN-2024-0001", first.InvoiceNumber)

	second, err := svc.Create(context.Background(), 1, CreatePurchaseInput{
		SupplierID: 1,
		Items:      []Item{{ProductID: 10, ReceivedQty: 1, BaseRate: 10, PurchasePrice: 10, Amount: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, "GRN-2024-0002", second.InvoiceNumber)

	supplied, err := svc.Create(context.Background(), 1, CreatePurchaseInput{
		SupplierID:    1,
		InvoiceNumber: "SUP/2024/99",
		Items:         []Item{{ProductID: 10, ReceivedQty: 1, BaseRate: 10, PurchasePrice: 10, Amount: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SUP/2024/99", supplied.InvoiceNumber)
}

func TestCreateRejectsUnknownSupplier(t *testing.T) {
	repo := newMemoryPurchaseRepo()
	svc := newTestService(repo, nil)

	_, err := svc.Create(context.Background(), 1, CreatePurchaseInput{
		SupplierID: 99,
		Items:      []Item{{ProductID: 10, ReceivedQty: 1, Amount: 10, PurchasePrice: 10}},
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateComputesTaxBreakup(t *testing.T) {
	repo := newMemoryPurchaseRepo()
	repo.addProduct(catalog.Product{ID: 10, ShopID: 1, Packing: "1x10"})
	svc := newTestService(repo, nil)

	p, err := svc.Create(context.Background(), 1, CreatePurchaseInput{
		SupplierID: 1,
		Items: []Item{{
			ProductID: 10, ReceivedQty: 2, BaseRate: 100, CGST: 9, SGST: 9,
			PurchasePrice: 100, Amount: 200,
		}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 200.0, p.TaxBreakup.GST18.Taxable, 0.001)
	assert.InDelta(t, 36.0, p.TaxBreakup.GST18.Tax, 0.001)
}

func TestCancelOnlyFromPending(t *testing.T) {
	repo := newMemoryPurchaseRepo()
	repo.addProduct(catalog.Product{ID: 10, ShopID: 1, Packing: "1x10"})
	svc := newTestService(repo, nil)

	pending, err := svc.Create(context.Background(), 1, CreatePurchaseInput{
		SupplierID: 1,
		Items:      []Item{{ProductID: 10, ReceivedQty: 1, BaseRate: 10, PurchasePrice: 10, Amount: 10}},
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), 1, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	received, err := svc.Create(context.Background(), 1, CreatePurchaseInput{
		SupplierID: 1,
		Status:     StatusReceived,
		Items:      []Item{{ProductID: 10, ReceivedQty: 1, BaseRate: 10, PurchasePrice: 10, Amount: 10}},
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), 1, received.ID)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestBulkPutawayUpdatesRackOnly(t *testing.T) {
	repo := newMemoryPurchaseRepo()
	repo.addProduct(catalog.Product{ID: 10, ShopID: 1, Packing: "1x10", Quantity: 7})
	svc := newTestService(repo, nil)

	p, err := svc.Create(context.Background(), 1, CreatePurchaseInput{
		SupplierID: 1,
		Status:     StatusPutawayPending,
		Items: []Item{{
			ProductID: 10, SKUID: "SKU-10", ReceivedQty: 5,
			BaseRate: 100, PurchasePrice: 100, Amount: 500,
		}},
	})
	require.NoError(t, err)

	result, err := svc.BulkPutawayUpload(context.Background(), 1, []BulkPutawayRow{
		{InvoiceNumber: p.InvoiceNumber, SKUID: "SKU-10", RackLocation: "B-07"},
		{InvoiceNumber: "GRN-2024-9999", SKUID: "SKU-10", RackLocation: "C-01"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Matched)
	assert.Len(t, result.Unmatched, 1)

	stored, err := svc.Get(context.Background(), 1, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "B-07", stored.Items[0].RackLocation)
	assert.Equal(t, StatusPutawayPending, stored.Status)
	assert.Equal(t, int64(7), repo.products[10].Quantity)
}
