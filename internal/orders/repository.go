package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharmadesk/pharmadesk/internal/shared"
)

// Repository provides PostgreSQL backed order persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `id, shop_id, order_number, subtotal, discount, total, status, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.ShopID, &o.OrderNumber, &o.Subtotal, &o.Discount, &o.Total,
		&o.Status, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *Repository) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]Item, error) {
	if len(orderIDs) == 0 {
		return map[int64][]Item{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, product_name, product_price, quantity
		 FROM order_items WHERE order_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64][]Item{}
	for rows.Next() {
		var orderID int64
		var it Item
		if err := rows.Scan(&orderID, &it.ProductID, &it.ProductName, &it.ProductPrice, &it.Quantity); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

// Get fetches one order with items.
func (r *Repository) Get(ctx context.Context, shopID, id int64) (Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND shop_id = $2`
	o, err := scanOrder(r.pool.QueryRow(ctx, query, id, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, fmt.Errorf("orders: %d: %w", id, shared.ErrNotFound)
		}
		return Order{}, err
	}
	items, err := r.loadItems(ctx, []int64{o.ID})
	if err != nil {
		return Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status    Status
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
}

// List returns orders for the shop, newest first, items included.
func (r *Repository) List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Order, int, error) {
	where := []string{"shop_id = $1"}
	args := []any{shopID}
	add := func(cond string, value any) {
		args = append(args, value)
		where = append(where, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if filters.Status != "" {
		add("status = ?", filters.Status)
	}
	if filters.Search != "" {
		add("order_number ILIKE ?", "%"+filters.Search+"%")
	}
	if filters.StartDate != nil {
		add("created_at >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		add("created_at <= ?", *filters.EndDate)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + cond +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Order
	var ids []int64
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i].Items = items[list[i].ID]
	}
	return list, total, nil
}

// ListOpen returns the shop's orders in triageable states, items included.
func (r *Repository) ListOpen(ctx context.Context, shopID int64) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE shop_id = $1 AND status = ANY($2) ORDER BY created_at`
	statuses := []string{
		string(StatusPending), string(StatusConfirmed), string(StatusPicking), string(StatusOnHold),
	}
	rows, err := r.pool.Query(ctx, query, shopID, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Order
	var ids []int64
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Items = items[list[i].ID]
	}
	return list, nil
}

// UpdateStatus moves an order to a new state.
func (r *Repository) UpdateStatus(ctx context.Context, shopID, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2 AND shop_id = $3`,
		status, id, shopID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("orders: %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// CreatedAtByStatuses returns creation times of orders currently in the given
// states, for ageing analytics.
func (r *Repository) CreatedAtByStatuses(ctx context.Context, shopID int64, statuses []Status) ([]time.Time, error) {
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}
	rows, err := r.pool.Query(ctx,
		`SELECT created_at FROM orders WHERE shop_id = $1 AND status = ANY($2)`, shopID, raw)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountByStatus aggregates the shop's orders per state.
func (r *Repository) CountByStatus(ctx context.Context, shopID int64) (map[Status]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM orders WHERE shop_id = $1 GROUP BY status`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[Status]int{}
	for rows.Next() {
		var s Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}
