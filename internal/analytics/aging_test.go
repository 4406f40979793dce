package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func counts(h Histogram) map[string]int {
	out := map[string]int{}
	for _, b := range h.Buckets {
		out[b.Label] = b.Count
	}
	return out
}

func TestBuildHistogramOrderBuckets(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{
		now.Add(-1 * time.Hour),
		now.Add(-5 * time.Hour),
		now.Add(-30 * time.Hour),
		now.Add(-100 * time.Hour),
	}
	h := BuildHistogram(OrderBuckets, now, stamps)

	c := counts(h)
	assert.Equal(t, 1, c["0-3h"])
	assert.Equal(t, 1, c["3-6h"])
	assert.Equal(t, 1, c["24-36h"])
	assert.Equal(t, 1, c[">48h"])
	assert.Equal(t, 4, h.Total)
}

func TestBuildHistogramBoundaryIsLowerInclusive(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	h := BuildHistogram(GRNBuckets, now, []time.Time{now.Add(-6 * time.Hour)})

	c := counts(h)
	assert.Equal(t, 1, c["0-6h"])
	assert.Zero(t, c["6-12h"])
}

func TestBuildHistogramGRNDayBuckets(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{
		now.Add(-48 * time.Hour),
		now.Add(-80 * time.Hour),
	}
	h := BuildHistogram(GRNBuckets, now, stamps)

	c := counts(h)
	assert.Equal(t, 1, c["1-3d"])
	assert.Equal(t, 1, c[">3d"])
}

func TestBuildHistogramEmptyInput(t *testing.T) {
	h := BuildHistogram(OrderBuckets, time.Now(), nil)
	assert.Zero(t, h.Total)
	assert.Len(t, h.Buckets, len(OrderBuckets))
}

func TestBuildHistogramDeterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{now.Add(-7 * time.Hour), now.Add(-13 * time.Hour)}

	first := BuildHistogram(OrderBuckets, now, stamps)
	second := BuildHistogram(OrderBuckets, now, stamps)
	assert.Equal(t, first, second)
}
