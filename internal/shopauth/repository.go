// Package shopauth resolves the tenant shop from an API key header.
package shopauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharmadesk/pharmadesk/internal/shared"
)

// ShopRecord carries the credential fields needed for key verification.
type ShopRecord struct {
	ID         int64
	Name       string
	Slug       string
	APIKeyHash string
	Active     bool
}

// Repository provides PostgreSQL backed shop lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByKeyID fetches the shop owning the given API key id.
func (r *Repository) GetByKeyID(ctx context.Context, keyID string) (ShopRecord, error) {
	const query = `SELECT id, name, slug, api_key_hash, active FROM shops WHERE api_key_id = $1`
	var rec ShopRecord
	err := r.pool.QueryRow(ctx, query, keyID).Scan(&rec.ID, &rec.Name, &rec.Slug, &rec.APIKeyHash, &rec.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ShopRecord{}, fmt.Errorf("shopauth: %w", shared.ErrUnauthorized)
		}
		return ShopRecord{}, err
	}
	return rec, nil
}

// ListActiveIDs returns the ids of all active shops, used by the triage fan-out.
func (r *Repository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM shops WHERE active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
