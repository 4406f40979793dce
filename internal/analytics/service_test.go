package analytics

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadesk/pharmadesk/internal/orders"
)

type stubSources struct {
	orderStamps []time.Time
	grnStamps   []time.Time
	byStatus    map[orders.Status]int
	pendingRecv int
	calls       int
}

func (s *stubSources) CreatedAtByStatuses(_ context.Context, _ int64, _ []orders.Status) ([]time.Time, error) {
	s.calls++
	return s.orderStamps, nil
}

func (s *stubSources) CountByStatus(_ context.Context, _ int64) (map[orders.Status]int, error) {
	return s.byStatus, nil
}

func (s *stubSources) PendingCreatedAt(_ context.Context, _ int64) ([]time.Time, error) {
	return s.grnStamps, nil
}

func (s *stubSources) CountPendingGRN(_ context.Context, _ int64) (int, error) {
	return s.pendingRecv, nil
}

func newTestService(t *testing.T, src *stubSources) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(src, src, src, cache, slog.Default())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, cache
}

func TestDashboardComputesHistograms(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	src := &stubSources{
		orderStamps: []time.Time{now.Add(-2 * time.Hour), now.Add(-50 * time.Hour)},
		grnStamps:   []time.Time{now.Add(-10 * time.Hour)},
		byStatus:    map[orders.Status]int{orders.StatusPicking: 1, orders.StatusOnHold: 1},
		pendingRecv: 3,
	}
	svc, _ := newTestService(t, src)

	stats, err := svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.OrderAgeing.Total)
	assert.Equal(t, 1, stats.GRNAgeing.Total)
	assert.Equal(t, 3, stats.PendingReceiving)
	assert.Contains(t, stats.Summary, "2 open orders")
}

func TestDashboardServedFromCache(t *testing.T) {
	src := &stubSources{byStatus: map[orders.Status]int{}}
	svc, _ := newTestService(t, src)

	_, err := svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	src := &stubSources{byStatus: map[orders.Status]int{}}
	svc, _ := newTestService(t, src)

	_, err := svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background()))
	_, err = svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestDashboardPerShopKeys(t *testing.T) {
	src := &stubSources{byStatus: map[orders.Status]int{}}
	svc, _ := newTestService(t, src)

	_, err := svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.Dashboard(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}
