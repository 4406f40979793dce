package shopauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pharmadesk/pharmadesk/internal/platform/httpx"
	"github.com/pharmadesk/pharmadesk/internal/shared"
)

const headerAPIKey = "X-Api-Key"

// KeyResolver abstracts shop lookup for the middleware.
type KeyResolver interface {
	GetByKeyID(ctx context.Context, keyID string) (ShopRecord, error)
}

// Middleware authenticates requests via "X-Api-Key: <keyID>.<secret>" and
// attaches the resolved shop to the request context.
type Middleware struct {
	resolver KeyResolver
	logger   *slog.Logger
}

// NewMiddleware builds the middleware.
func NewMiddleware(resolver KeyResolver, logger *slog.Logger) *Middleware {
	return &Middleware{resolver: resolver, logger: logger}
}

// RequireShop rejects requests without a valid shop API key.
func (m *Middleware) RequireShop(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shop, err := m.authenticate(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		ctx := shared.ContextWithShop(r.Context(), shop)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) authenticate(r *http.Request) (*shared.Shop, error) {
	raw := r.Header.Get(headerAPIKey)
	if raw == "" {
		return nil, fmt.Errorf("shopauth: missing api key: %w", shared.ErrUnauthorized)
	}
	keyID, secret, ok := strings.Cut(raw, ".")
	if !ok || keyID == "" || secret == "" {
		return nil, fmt.Errorf("shopauth: malformed api key: %w", shared.ErrUnauthorized)
	}
	rec, err := m.resolver.GetByKeyID(r.Context(), keyID)
	if err != nil {
		return nil, err
	}
	if !rec.Active {
		return nil, fmt.Errorf("shopauth: shop disabled: %w", shared.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.APIKeyHash), []byte(secret)); err != nil {
		if m.logger != nil {
			m.logger.Warn("api key mismatch", slog.String("key_id", keyID))
		}
		return nil, fmt.Errorf("shopauth: %w", shared.ErrUnauthorized)
	}
	return &shared.Shop{ID: rec.ID, Name: rec.Name, Slug: rec.Slug}, nil
}

// HashSecret derives the stored hash for an API key secret.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
