package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharmadesk/pharmadesk/internal/catalog"
	"github.com/pharmadesk/pharmadesk/internal/platform/db"
	"github.com/pharmadesk/pharmadesk/internal/shared"
)

// Tx gives the service transactional access to the ledger and the product
// stock so an adjustment and its stock effect commit together.
type Tx interface {
	InsertLog(ctx context.Context, l *Log) error
	GetLogForUpdate(ctx context.Context, shopID, id int64) (Log, error)
	MarkCompleted(ctx context.Context, shopID, id int64, at time.Time) error
	Deduct(ctx context.Context, shopID, productID, units int64) error
	Apply(ctx context.Context, shopID, productID, units int64) error
}

// RepositoryPort abstracts ledger persistence.
type RepositoryPort interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Log, int, error)
}

// ListFilters narrows ledger listings.
type ListFilters struct {
	ProductID int64
	Type      LogType
	Status    LogStatus
}

// Repository provides PostgreSQL backed ledger persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithinTx runs fn inside one database transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.WithTx(ctx, r.pool, func(pgtx pgx.Tx) error {
		return fn(&txRepo{tx: pgtx})
	})
}

const logColumns = `id, shop_id, product_id, type, quantity, COALESCE(reason, ''),
	status, completed_at, created_at, updated_at`

func scanLog(row pgx.Row) (Log, error) {
	var l Log
	err := row.Scan(&l.ID, &l.ShopID, &l.ProductID, &l.Type, &l.Quantity, &l.Reason,
		&l.Status, &l.CompletedAt, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// List returns ledger entries, newest first.
func (r *Repository) List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Log, int, error) {
	where := []string{"shop_id = $1"}
	args := []any{shopID}
	add := func(cond string, value any) {
		args = append(args, value)
		where = append(where, cond+" = $"+strconv.Itoa(len(args)))
	}
	if filters.ProductID > 0 {
		add("product_id", filters.ProductID)
	}
	if filters.Type != "" {
		add("type", filters.Type)
	}
	if filters.Status != "" {
		add("status", filters.Status)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_logs WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + logColumns + ` FROM inventory_logs WHERE ` + cond +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logs []Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) InsertLog(ctx context.Context, l *Log) error {
	const query = `INSERT INTO inventory_logs
		(shop_id, product_id, type, quantity, reason, status, completed_at, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
	RETURNING id, created_at, updated_at`
	err := t.tx.QueryRow(ctx, query,
		l.ShopID, l.ProductID, l.Type, l.Quantity, l.Reason, l.Status, l.CompletedAt,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inventory: insert log: %w", err)
	}
	return nil
}

func (t *txRepo) GetLogForUpdate(ctx context.Context, shopID, id int64) (Log, error) {
	query := `SELECT ` + logColumns + ` FROM inventory_logs WHERE id = $1 AND shop_id = $2 FOR UPDATE`
	l, err := scanLog(t.tx.QueryRow(ctx, query, id, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Log{}, fmt.Errorf("inventory: log %d: %w", id, shared.ErrNotFound)
		}
		return Log{}, err
	}
	return l, nil
}

func (t *txRepo) MarkCompleted(ctx context.Context, shopID, id int64, at time.Time) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE inventory_logs SET status = $1, completed_at = $2, updated_at = now()
		 WHERE id = $3 AND shop_id = $4`,
		StatusCompleted, at, id, shopID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory: log %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) Deduct(ctx context.Context, shopID, productID, units int64) error {
	return catalog.Deduct(ctx, t.tx, shopID, productID, units)
}

func (t *txRepo) Apply(ctx context.Context, shopID, productID, units int64) error {
	return catalog.ApplyReceipt(ctx, t.tx, shopID, productID, units, catalog.ReceiptSync{})
}
