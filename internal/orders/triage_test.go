package orders

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadesk/pharmadesk/internal/shared"
)

type memoryOrderRepo struct {
	nextID  int64
	orders  map[int64]*Order
	updates int
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{nextID: 1, orders: map[int64]*Order{}}
}

func (m *memoryOrderRepo) add(shopID int64, status Status, items ...Item) *Order {
	o := &Order{
		ID:        m.nextID,
		ShopID:    shopID,
		Status:    status,
		Items:     items,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.orders[o.ID] = o
	return o
}

func (m *memoryOrderRepo) Get(_ context.Context, shopID, id int64) (Order, error) {
	o, ok := m.orders[id]
	if !ok || o.ShopID != shopID {
		return Order{}, shared.ErrNotFound
	}
	return *o, nil
}

func (m *memoryOrderRepo) List(_ context.Context, shopID int64, _, _ int, _ ListFilters) ([]Order, int, error) {
	var out []Order
	for _, o := range m.orders {
		if o.ShopID == shopID {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (m *memoryOrderRepo) ListOpen(_ context.Context, shopID int64) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		if o.ShopID == shopID && Triageable(o.Status) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memoryOrderRepo) UpdateStatus(_ context.Context, shopID, id int64, status Status) error {
	o, ok := m.orders[id]
	if !ok || o.ShopID != shopID {
		return shared.ErrNotFound
	}
	o.Status = status
	m.updates++
	return nil
}

func (m *memoryOrderRepo) CountByStatus(_ context.Context, shopID int64) (map[Status]int, error) {
	out := map[Status]int{}
	for _, o := range m.orders {
		if o.ShopID == shopID {
			out[o.Status]++
		}
	}
	return out, nil
}

type stubStock map[int64]int64

func (s stubStock) QuantityByIDs(_ context.Context, _ int64, ids []int64) (map[int64]int64, error) {
	out := map[int64]int64{}
	for _, id := range ids {
		if qty, ok := s[id]; ok {
			out[id] = qty
		}
	}
	return out, nil
}

func TestTriagePromotesFulfillableOrders(t *testing.T) {
	repo := newMemoryOrderRepo()
	o := repo.add(1, StatusPending, Item{ProductID: 10, Quantity: 2})
	svc := NewService(repo, stubStock{10: 5}, nil, slog.Default())

	result, err := svc.Triage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Promoted)
	assert.Equal(t, StatusPicking, repo.orders[o.ID].Status)
}

func TestTriageDemotesShortOrders(t *testing.T) {
	repo := newMemoryOrderRepo()
	o := repo.add(1, StatusPicking,
		Item{ProductID: 10, Quantity: 2},
		Item{ProductID: 11, Quantity: 1})
	svc := NewService(repo, stubStock{10: 5, 11: 0}, nil, slog.Default())

	result, err := svc.Triage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Demoted)
	assert.Equal(t, StatusOnHold, repo.orders[o.ID].Status)
}

func TestTriageTreatsMissingProductAsInsufficient(t *testing.T) {
	repo := newMemoryOrderRepo()
	o := repo.add(1, StatusConfirmed, Item{ProductID: 99, Quantity: 1})
	svc := NewService(repo, stubStock{}, nil, slog.Default())

	_, err := svc.Triage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOnHold, repo.orders[o.ID].Status)
}

func TestTriageSkipsUnchangedOrders(t *testing.T) {
	repo := newMemoryOrderRepo()
	repo.add(1, StatusPicking, Item{ProductID: 10, Quantity: 2})
	svc := NewService(repo, stubStock{10: 5}, nil, slog.Default())

	first, err := svc.Triage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Skipped)
	assert.Zero(t, repo.updates)

	second, err := svc.Triage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Skipped)
	assert.Zero(t, repo.updates)
}

func TestTriageIgnoresClosedOrders(t *testing.T) {
	repo := newMemoryOrderRepo()
	delivered := repo.add(1, StatusDelivered, Item{ProductID: 10, Quantity: 1})
	packing := repo.add(1, StatusPacking, Item{ProductID: 10, Quantity: 1})
	svc := NewService(repo, stubStock{10: 100}, nil, slog.Default())

	result, err := svc.Triage(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, result.Evaluated)
	assert.Equal(t, StatusDelivered, repo.orders[delivered.ID].Status)
	assert.Equal(t, StatusPacking, repo.orders[packing.ID].Status)
}

func TestTriageScopedToShop(t *testing.T) {
	repo := newMemoryOrderRepo()
	mine := repo.add(1, StatusPending, Item{ProductID: 10, Quantity: 1})
	other := repo.add(2, StatusPending, Item{ProductID: 10, Quantity: 1})
	svc := NewService(repo, stubStock{10: 100}, nil, slog.Default())

	_, err := svc.Triage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPicking, repo.orders[mine.ID].Status)
	assert.Equal(t, StatusPending, repo.orders[other.ID].Status)
}

func TestUpdateStatusRejectsUnknownState(t *testing.T) {
	repo := newMemoryOrderRepo()
	o := repo.add(1, StatusPending)
	svc := NewService(repo, stubStock{}, nil, slog.Default())

	_, err := svc.UpdateStatus(context.Background(), 1, o.ID, "Teleported")
	assert.ErrorIs(t, err, shared.ErrValidation)

	updated, err := svc.UpdateStatus(context.Background(), 1, o.ID, StatusProblemQueue)
	require.NoError(t, err)
	assert.Equal(t, StatusProblemQueue, updated.Status)
}

func TestUpdateStatusAcceptsReturnStates(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, stubStock{}, nil, slog.Default())

	for _, status := range []Status{StatusReturned, StatusSalesReturn, StatusUnderQC, StatusShipping} {
		o := repo.add(1, StatusDelivered)
		updated, err := svc.UpdateStatus(context.Background(), 1, o.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}
}
