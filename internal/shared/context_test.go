package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShopContextRoundTrip(t *testing.T) {
	shop := &Shop{ID: 7, Name: "Demo Pharmacy", Slug: "demo-pharmacy"}
	ctx := ContextWithShop(context.Background(), shop)

	got, ok := ShopFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "demo-pharmacy", got.Slug)
}

func TestShopFromContextMissing(t *testing.T) {
	got, ok := ShopFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestShopFromContextNilShop(t *testing.T) {
	ctx := ContextWithShop(context.Background(), nil)
	got, ok := ShopFromContext(ctx)
	assert.False(t, ok)
	assert.Nil(t, got)
}
