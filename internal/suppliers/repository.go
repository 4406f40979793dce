package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharmadesk/pharmadesk/internal/shared"
)

// Repository provides PostgreSQL backed supplier persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const supplierColumns = `id, shop_id, name, COALESCE(gstin, ''), COALESCE(phone, ''),
	COALESCE(email, ''), COALESCE(address, ''), status, created_at, updated_at`

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.ShopID, &s.Name, &s.GSTIN, &s.Phone,
		&s.Email, &s.Address, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create inserts a supplier.
func (r *Repository) Create(ctx context.Context, s Supplier) (Supplier, error) {
	const query = `INSERT INTO suppliers (shop_id, name, gstin, phone, email, address, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		s.ShopID, s.Name, s.GSTIN, s.Phone, s.Email, s.Address, s.Status,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Supplier{}, err
	}
	return s, nil
}

// Get fetches a supplier scoped to the shop.
func (r *Repository) Get(ctx context.Context, shopID, id int64) (Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = $1 AND shop_id = $2`
	s, err := scanSupplier(r.pool.QueryRow(ctx, query, id, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, fmt.Errorf("suppliers: supplier %d: %w", id, shared.ErrNotFound)
		}
		return Supplier{}, err
	}
	return s, nil
}

// Exists reports whether an active supplier with the id belongs to the shop.
func (r *Repository) Exists(ctx context.Context, shopID, id int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = $1 AND shop_id = $2 AND status = 'Active')`,
		id, shopID).Scan(&ok)
	return ok, err
}

// List returns suppliers for the shop.
func (r *Repository) List(ctx context.Context, shopID int64, limit, offset int, search string) ([]Supplier, int, error) {
	where := []string{"shop_id = $1"}
	args := []any{shopID}
	if search != "" {
		args = append(args, "%"+search+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(name ILIKE $"+n+" OR gstin ILIKE $"+n+")")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM suppliers WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE ` + cond +
		` ORDER BY name LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// SetStatus flips the soft-delete flag.
func (r *Repository) SetStatus(ctx context.Context, shopID, id int64, status SupplierStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE suppliers SET status = $1, updated_at = now() WHERE id = $2 AND shop_id = $3`,
		status, id, shopID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("suppliers: supplier %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
