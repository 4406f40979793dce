package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackSize(t *testing.T) {
	cases := []struct {
		packing string
		want    int64
	}{
		{"1x10", 10},
		{"10x10", 10},
		{"STRIP-15", 15},
		{"BOX-24", 24},
		{"1 x 15", 15},
		{"30", 30},
		{"", 1},
		{"ABC", 1},
		{"bottle", 1},
		{"0", 1},
		{"2x0", 1},
		{"10x10 ", 10},
		{"99999999", 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PackSize(tc.packing), "packing %q", tc.packing)
	}
}
