package shared

import "context"

// Shop is the authenticated tenant attached to every request.
type Shop struct {
	ID   int64
	Name string
	Slug string
}

type shopContextKey struct{}

// ContextWithShop stores the shop in context.
func ContextWithShop(ctx context.Context, shop *Shop) context.Context {
	return context.WithValue(ctx, shopContextKey{}, shop)
}

// ShopFromContext extracts the shop from context. The second return is false
// when no authenticated shop is attached to the request.
func ShopFromContext(ctx context.Context) (*Shop, bool) {
	shop, ok := ctx.Value(shopContextKey{}).(*Shop)
	return shop, ok && shop != nil
}
