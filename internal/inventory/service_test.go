package inventory

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadesk/pharmadesk/internal/catalog"
	"github.com/pharmadesk/pharmadesk/internal/shared"
)

type memoryLedger struct {
	nextID int64
	logs   map[int64]*Log
	stock  map[int64]int64
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{nextID: 1, logs: map[int64]*Log{}, stock: map[int64]int64{}}
}

func (m *memoryLedger) WithinTx(_ context.Context, fn func(tx Tx) error) error {
	return fn(m)
}

func (m *memoryLedger) InsertLog(_ context.Context, l *Log) error {
	l.ID = m.nextID
	m.nextID++
	clone := *l
	m.logs[l.ID] = &clone
	return nil
}

func (m *memoryLedger) GetLogForUpdate(_ context.Context, shopID, id int64) (Log, error) {
	l, ok := m.logs[id]
	if !ok || l.ShopID != shopID {
		return Log{}, shared.ErrNotFound
	}
	return *l, nil
}

func (m *memoryLedger) MarkCompleted(_ context.Context, shopID, id int64, at time.Time) error {
	l, ok := m.logs[id]
	if !ok || l.ShopID != shopID {
		return shared.ErrNotFound
	}
	l.Status = StatusCompleted
	l.CompletedAt = &at
	return nil
}

func (m *memoryLedger) Deduct(_ context.Context, _, productID, units int64) error {
	if m.stock[productID] < units {
		return catalog.ErrInsufficientStock
	}
	m.stock[productID] -= units
	return nil
}

func (m *memoryLedger) Apply(_ context.Context, _, productID, units int64) error {
	m.stock[productID] += units
	return nil
}

func (m *memoryLedger) List(_ context.Context, shopID int64, _, _ int, _ ListFilters) ([]Log, int, error) {
	var out []Log
	for _, l := range m.logs {
		if l.ShopID == shopID {
			out = append(out, *l)
		}
	}
	return out, len(out), nil
}

func TestAdjustOutAppliesImmediately(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.stock[5] = 30
	svc := NewService(ledger, nil, nil, slog.Default())

	l, err := svc.Adjust(context.Background(), 1, AdjustInput{
		ProductID: 5, Type: TypeOut, Quantity: 10, Reason: "damaged strip",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, l.Status)
	assert.NotNil(t, l.CompletedAt)
	assert.Equal(t, int64(20), ledger.stock[5])
}

func TestAdjustOutRefusesNegativeStock(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.stock[5] = 3
	svc := NewService(ledger, nil, nil, slog.Default())

	_, err := svc.Adjust(context.Background(), 1, AdjustInput{
		ProductID: 5, Type: TypeOut, Quantity: 10,
	})
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, int64(3), ledger.stock[5])
	assert.Empty(t, ledger.logs)
}

func TestAdjustInIsStaged(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.stock[5] = 3
	svc := NewService(ledger, nil, nil, slog.Default())

	l, err := svc.Adjust(context.Background(), 1, AdjustInput{
		ProductID: 5, Type: TypeIn, Quantity: 10, Reason: "found in backroom",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPutawayPending, l.Status)
	assert.Equal(t, int64(3), ledger.stock[5])

	completed, err := svc.CompletePutaway(context.Background(), 1, l.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Equal(t, int64(13), ledger.stock[5])
}

func TestCompletePutawayExactlyOnce(t *testing.T) {
	ledger := newMemoryLedger()
	svc := NewService(ledger, nil, nil, slog.Default())

	l, err := svc.Adjust(context.Background(), 1, AdjustInput{ProductID: 5, Type: TypeIn, Quantity: 10})
	require.NoError(t, err)

	_, err = svc.CompletePutaway(context.Background(), 1, l.ID)
	require.NoError(t, err)
	_, err = svc.CompletePutaway(context.Background(), 1, l.ID)
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, int64(10), ledger.stock[5])
}

func TestCompletePutawayRejectsOutEntries(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.stock[5] = 10
	svc := NewService(ledger, nil, nil, slog.Default())

	l, err := svc.Adjust(context.Background(), 1, AdjustInput{ProductID: 5, Type: TypeOut, Quantity: 2})
	require.NoError(t, err)

	_, err = svc.CompletePutaway(context.Background(), 1, l.ID)
	assert.ErrorIs(t, err, shared.ErrValidation)
}
