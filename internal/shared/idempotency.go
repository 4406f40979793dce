package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Modules namespacing idempotency keys. Put-away commits are the only writers
// today; the column keeps future modules from colliding on key format.
const ModulePurchase = "purchase"

// DefaultIdempotencyRetention bounds how long processed keys are kept. A
// put-away retry older than this window is indistinguishable from a new
// request, which is acceptable because the status guard still refuses
// re-commits on Received purchases.
const DefaultIdempotencyRetention = 30 * 24 * time.Hour

// pgUniqueViolation is the Postgres error code for unique_violation.
const pgUniqueViolation = "23505"

// ErrIdempotencyConflict reports that the key was already claimed, meaning
// the guarded work ran (or is running) once before.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore claims one-shot keys in Postgres. Claiming relies on the
// unique index on idempotency_keys.key, so two concurrent put-away requests
// for the same purchase race on the insert and exactly one wins.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// CheckAndInsert claims the key for the module, returning
// ErrIdempotencyConflict when another request already holds it.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3)`,
		key, module, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// Delete releases a claimed key so a failed put-away can be retried. Callers
// must not release on conflict errors, only on their own failed work.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	if s == nil {
		return nil
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1`, key)
	return err
}

// Cleanup drops keys older than the retention window. Zero or negative
// olderThan falls back to DefaultIdempotencyRetention.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return nil
	}
	if olderThan <= 0 {
		olderThan = DefaultIdempotencyRetention
	}
	cutoff := time.Now().Add(-olderThan)
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	return err
}
