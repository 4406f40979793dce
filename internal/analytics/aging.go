// Package analytics derives the ageing histograms and queue statistics shown
// on the operations dashboard. It is read-only over the other modules.
package analytics

import "time"

// Bucket is one age range. UpperHours of zero marks the overflow bucket.
type Bucket struct {
	Label      string
	UpperHours float64
}

// OrderBuckets are the age ranges applied to open orders.
var OrderBuckets = []Bucket{
	{"0-3h", 3},
	{"3-6h", 6},
	{"6-12h", 12},
	{"12-24h", 24},
	{"24-36h", 36},
	{"36-48h", 48},
	{">48h", 0},
}

// GRNBuckets are the age ranges applied to purchases awaiting their stock
// commit.
var GRNBuckets = []Bucket{
	{"0-6h", 6},
	{"6-12h", 12},
	{"12-24h", 24},
	{"1-3d", 72},
	{">3d", 0},
}

// BucketCount is one histogram bar.
type BucketCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Histogram is a full age distribution with its total.
type Histogram struct {
	Buckets []BucketCount `json:"buckets"`
	Total   int           `json:"total"`
}

// BuildHistogram places each timestamp into the first bucket whose upper
// bound is not exceeded. The comparison is lower-inclusive: an age of exactly
// 6h lands in 0-6h, not 6-12h. Deterministic for a fixed now.
func BuildHistogram(buckets []Bucket, now time.Time, stamps []time.Time) Histogram {
	h := Histogram{Buckets: make([]BucketCount, len(buckets))}
	for i, b := range buckets {
		h.Buckets[i].Label = b.Label
	}
	for _, ts := range stamps {
		ageHours := now.Sub(ts).Hours()
		placed := false
		for i, b := range buckets {
			if b.UpperHours > 0 && ageHours <= b.UpperHours {
				h.Buckets[i].Count++
				placed = true
				break
			}
		}
		if !placed {
			h.Buckets[len(buckets)-1].Count++
		}
		h.Total++
	}
	return h
}
