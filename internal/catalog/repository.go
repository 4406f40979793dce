package catalog

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

// Repository provides PostgreSQL backed product persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, shop_id, name, sku, COALESCE(category, ''), COALESCE(packing, ''),
	COALESCE(batch_number, ''), expiry_date, manufacturing_date, quantity,
	purchase_price, selling_price, mrp, COALESCE(hsn_code, ''), tax_percent,
	COALESCE(rack_location, ''), reorder_level, is_inventory_live, status, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.ShopID, &p.Name, &p.SKU, &p.Category, &p.Packing,
		&p.BatchNumber, &p.ExpiryDate, &p.ManufacturingDate, &p.Quantity,
		&p.PurchasePrice, &p.SellingPrice, &p.MRP, &p.HSNCode, &p.TaxPercent,
		&p.RackLocation, &p.ReorderLevel, &p.IsInventoryLive, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts a product. New products start without live inventory.
func (r *Repository) Create(ctx context.Context, p Product) (Product, error) {
	const query = `INSERT INTO products
		(shop_id, name, sku, category, packing, batch_number, expiry_date, manufacturing_date,
		 quantity, purchase_price, selling_price, mrp, hsn_code, tax_percent, rack_location,
		 reorder_level, is_inventory_live, status, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,false,$17,now(),now())
	RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		p.ShopID, p.Name, p.SKU, p.Category, p.Packing, p.BatchNumber, p.ExpiryDate, p.ManufacturingDate,
		p.Quantity, p.PurchasePrice, p.SellingPrice, p.MRP, p.HSNCode, p.TaxPercent, p.RackLocation,
		p.ReorderLevel, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// Get fetches a product scoped to the shop.
func (r *Repository) Get(ctx context.Context, shopID, id int64) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND shop_id = $2`
	p, err := scanProduct(r.pool.QueryRow(ctx, query, id, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("catalog: product %d: %w", id, shared.ErrNotFound)
		}
		return Product{}, err
	}
	return p, nil
}

// ListFilters narrows product listings.
type ListFilters struct {
	Keyword  string
	Category string
	Status   string
	LowStock bool
}

// List returns products for the shop with pagination.
func (r *Repository) List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Product, int, error) {
	where := []string{"shop_id = $1"}
	args := []any{shopID}
	if filters.Keyword != "" {
		args = append(args, "%"+filters.Keyword+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(name ILIKE $"+n+" OR sku ILIKE $"+n+" OR batch_number ILIKE $"+n+")")
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if filters.LowStock {
		where = append(where, "quantity <= reorder_level")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + productColumns + ` FROM products WHERE ` + cond +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

// SetStatus flips the soft-delete flag.
func (r *Repository) SetStatus(ctx context.Context, shopID, id int64, status ProductStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET status = $1, updated_at = now() WHERE id = $2 AND shop_id = $3`,
		status, id, shopID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: product %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// GetForUpdate locks a product row inside an existing transaction.
func GetForUpdate(ctx context.Context, tx pgx.Tx, shopID, id int64) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND shop_id = $2 FOR UPDATE`
	p, err := scanProduct(tx.QueryRow(ctx, query, id, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("catalog: product %d: %w", id, shared.ErrNotFound)
		}
		return Product{}, err
	}
	return p, nil
}

// ApplyReceipt increments stock inside the caller's transaction and syncs the
// master fields supplied by the invoice line. The first successful commit
// flips is_inventory_live.
func ApplyReceipt(ctx context.Context, tx pgx.Tx, shopID, id, deltaUnits int64, sync ReceiptSync) error {
	set := []string{
		"quantity = quantity + $1",
		"is_inventory_live = true",
		"updated_at = now()",
	}
	args := []any{deltaUnits}
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, column+" = $"+strconv.Itoa(len(args)))
	}
	if sync.PurchasePrice != nil {
		add("purchase_price", *sync.PurchasePrice)
	}
	if sync.SellingPrice != nil {
		add("selling_price", *sync.SellingPrice)
	}
	if sync.MRP != nil {
		add("mrp", *sync.MRP)
	}
	if sync.BatchNumber != nil {
		add("batch_number", *sync.BatchNumber)
	}
	if sync.ExpiryDate != nil {
		add("expiry_date", *sync.ExpiryDate)
	}
	if sync.ManufacturingDate != nil {
		add("manufacturing_date", *sync.ManufacturingDate)
	}
	if sync.HSNCode != nil {
		add("hsn_code", *sync.HSNCode)
	}
	if sync.Packing != nil {
		add("packing", *sync.Packing)
	}
	if sync.TaxPercent != nil {
		add("tax_percent", *sync.TaxPercent)
	}
	if sync.RackLocation != nil {
		add("rack_location", *sync.RackLocation)
	}
	args = append(args, id, shopID)
	query := "UPDATE products SET " + strings.Join(set, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)-1) + " AND shop_id = $" + strconv.Itoa(len(args))
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: product %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// Deduct removes stock units inside the caller's transaction, refusing to go
// negative.
func Deduct(ctx context.Context, tx pgx.Tx, shopID, id, units int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE products SET quantity = quantity - $1, updated_at = now()
		 WHERE id = $2 AND shop_id = $3 AND quantity >= $1`,
		units, id, shopID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the row is missing or stock would go negative.
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND shop_id = $2)`, id, shopID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("catalog: product %d: %w", id, shared.ErrNotFound)
		}
		return ErrInsufficientStock
	}
	return nil
}

// QuantityByIDs returns current stock units for the given products. Missing
// ids are simply absent from the map.
func (r *Repository) QuantityByIDs(ctx context.Context, shopID int64, ids []int64) (map[int64]int64, error) {
	if len(ids) == 0 {
		return map[int64]int64{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, quantity FROM products WHERE shop_id = $1 AND id = ANY($2)`, shopID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]int64, len(ids))
	for rows.Next() {
		var id, qty int64
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		out[id] = qty
	}
	return out, rows.Err()
}
