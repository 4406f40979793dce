package purchase

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

// Tx gives the service transactional access to purchases and the product
// ledger so a status transition and its stock effects commit together.
type Tx interface {
	NextInvoiceNumber(ctx context.Context, shopID int64, year int) (string, error)
	InsertPurchase(ctx context.Context, p *Purchase) error
	GetForUpdate(ctx context.Context, shopID, id int64) (Purchase, error)
	SetStatus(ctx context.Context, shopID, id int64, status Status) error
	ReplaceItems(ctx context.Context, shopID, purchaseID int64, items []Item) error
	Product(ctx context.Context, shopID, productID int64) (catalog.Product, error)
	ApplyReceipt(ctx context.Context, shopID, productID, deltaUnits int64, sync catalog.ReceiptSync) error
}

// RepositoryPort abstracts purchase persistence.
type RepositoryPort interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Get(ctx context.Context, shopID, id int64) (Purchase, error)
	List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Purchase, int, error)
	Stats(ctx context.Context, shopID int64, filters ListFilters) (Stats, error)
	FindPutawayPendingByInvoice(ctx context.Context, shopID int64, invoiceNumber string) (Purchase, error)
	UpdateItemRack(ctx context.Context, shopID, purchaseID, itemID int64, rack string) error
}

// ListFilters narrows purchase listings.
type ListFilters struct {
	Status     Status
	Priority   Priority
	SupplierID int64
	Search     string
	StartDate  *time.Time
	EndDate    *time.Time
}

// Repository provides PostgreSQL backed purchase persistence.
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

const purchaseColumns = `id, shop_id, invoice_number, supplier_id, physical_receiving_id, priority,
	receiving_location, invoice_date, taxable_amount, tcs_amount, mrp_value, net_amount,
	amount_after_gst, round_amount, invoice_amount,
	gst5_taxable, gst5_tax, gst12_taxable, gst12_tax, gst18_taxable, gst18_tax, gst28_taxable, gst28_tax,
	sub_total, tax_amount, discount, grand_total, status, payment_status, payment_method,
	COALESCE(notes, ''), COALESCE(invoice_image_url, ''), purchase_date, created_at, updated_at`

func scanPurchase(row pgx.Row) (Purchase, error) {
	var p Purchase
	err := row.Scan(&p.ID, &p.ShopID, &p.InvoiceNumber, &p.SupplierID, &p.PhysicalReceivingID, &p.Priority,
		&p.ReceivingLocation, &p.InvoiceDate,
		&p.InvoiceSummary.TaxableAmount, &p.InvoiceSummary.TCSAmount, &p.InvoiceSummary.MRPValue,
		&p.InvoiceSummary.NetAmount, &p.InvoiceSummary.AmountAfterGST, &p.InvoiceSummary.RoundAmount,
		&p.InvoiceSummary.InvoiceAmount,
		&p.TaxBreakup.GST5.Taxable, &p.TaxBreakup.GST5.Tax,
		&p.TaxBreakup.GST12.Taxable, &p.TaxBreakup.GST12.Tax,
		&p.TaxBreakup.GST18.Taxable, &p.TaxBreakup.GST18.Tax,
		&p.TaxBreakup.GST28.Taxable, &p.TaxBreakup.GST28.Tax,
		&p.SubTotal, &p.TaxAmount, &p.Discount, &p.GrandTotal, &p.Status, &p.PaymentStatus, &p.PaymentMethod,
		&p.Notes, &p.InvoiceImageURL, &p.PurchaseDate, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const itemColumns = `id, product_id, COALESCE(product_name, ''), COALESCE(supplier_sku_id, ''),
	COALESCE(sku_id, ''), COALESCE(pack, ''), COALESCE(batch_number, ''), expiry_date, mfg_date,
	system_mrp, ordered_qty, received_qty, physical_free_qty, scheme_free_qty,
	po_rate, ptr, base_rate, scheme_discount, discount_percent, amount,
	COALESCE(hsn_code, ''), cgst, sgst, igst, purchase_price, selling_price, mrp, margin,
	COALESCE(rack_location, '')`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.SupplierSKUID,
		&it.SKUID, &it.Pack, &it.BatchNumber, &it.ExpiryDate, &it.MfgDate,
		&it.SystemMRP, &it.OrderedQty, &it.ReceivedQty, &it.PhysicalFreeQty, &it.SchemeFreeQty,
		&it.PORate, &it.PTR, &it.BaseRate, &it.SchemeDiscount, &it.DiscountPercent, &it.Amount,
		&it.HSNCode, &it.CGST, &it.SGST, &it.IGST, &it.PurchasePrice, &it.SellingPrice, &it.MRP, &it.Margin,
		&it.RackLocation)
	return it, err
}

func loadItems(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, purchaseIDs []int64) (map[int64][]Item, error) {
	if len(purchaseIDs) == 0 {
		return map[int64][]Item{}, nil
	}
	rows, err := q.Query(ctx,
		`SELECT purchase_id, `+itemColumns+` FROM purchase_items WHERE purchase_id = ANY($1) ORDER BY id`,
		purchaseIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64][]Item{}
	for rows.Next() {
		var purchaseID int64
		var it Item
		if err := rows.Scan(&purchaseID, &it.ID, &it.ProductID, &it.ProductName, &it.SupplierSKUID,
			&it.SKUID, &it.Pack, &it.BatchNumber, &it.ExpiryDate, &it.MfgDate,
			&it.SystemMRP, &it.OrderedQty, &it.ReceivedQty, &it.PhysicalFreeQty, &it.SchemeFreeQty,
			&it.PORate, &it.PTR, &it.BaseRate, &it.SchemeDiscount, &it.DiscountPercent, &it.Amount,
			&it.HSNCode, &it.CGST, &it.SGST, &it.IGST, &it.PurchasePrice, &it.SellingPrice, &it.MRP, &it.Margin,
			&it.RackLocation); err != nil {
			return nil, err
		}
		out[purchaseID] = append(out[purchaseID], it)
	}
	return out, rows.Err()
}

// Get fetches one purchase with its items.
func (r *Repository) Get(ctx context.Context, shopID, id int64) (Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1 AND shop_id = $2`
	p, err := scanPurchase(r.pool.QueryRow(ctx, query, id, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, fmt.Errorf("purchase: %d: %w", id, shared.ErrNotFound)
		}
		return Purchase{}, err
	}
	items, err := loadItems(ctx, r.pool, []int64{p.ID})
	if err != nil {
		return Purchase{}, err
	}
	p.Items = items[p.ID]
	return p, nil
}

func buildFilterClause(shopID int64, filters ListFilters) (string, []any) {
	where := []string{"shop_id = $1"}
	args := []any{shopID}
	add := func(cond string, value any) {
		args = append(args, value)
		where = append(where, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if filters.Status != "" {
		add("status = ?", filters.Status)
	}
	if filters.Priority != "" {
		add("priority = ?", filters.Priority)
	}
	if filters.SupplierID > 0 {
		add("supplier_id = ?", filters.SupplierID)
	}
	if filters.Search != "" {
		add("invoice_number ILIKE ?", "%"+filters.Search+"%")
	}
	if filters.StartDate != nil {
		add("purchase_date >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		add("purchase_date <= ?", *filters.EndDate)
	}
	return strings.Join(where, " AND "), args
}

// List returns purchases for the shop, newest first, items included.
func (r *Repository) List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Purchase, int, error) {
	cond, args := buildFilterClause(shopID, filters)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE ` + cond +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var purchases []Purchase
	var ids []int64
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, err
		}
		purchases = append(purchases, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	items, err := loadItems(ctx, r.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range purchases {
		purchases[i].Items = items[purchases[i].ID]
	}
	return purchases, total, nil
}

// Stats aggregates counts and values over the filtered set.
func (r *Repository) Stats(ctx context.Context, shopID int64, filters ListFilters) (Stats, error) {
	filters.Status = ""
	cond, args := buildFilterClause(shopID, filters)
	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'Pending'),
		COUNT(*) FILTER (WHERE status = 'Putaway_Pending'),
		COUNT(*) FILTER (WHERE status = 'Received'),
		COUNT(*) FILTER (WHERE status = 'Cancelled'),
		COALESCE(SUM(grand_total) FILTER (WHERE status IN ('Pending', 'Putaway_Pending')), 0),
		COALESCE(SUM(grand_total) FILTER (WHERE status = 'Received'), 0)
	FROM purchases WHERE ` + cond
	var s Stats
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.TotalCount, &s.PendingCount, &s.PutawayCount, &s.ReceivedCount, &s.CancelledCount,
		&s.PendingValue, &s.ReceivedValue)
	return s, err
}

// FindPutawayPendingByInvoice locates the purchase a bulk upload row targets.
func (r *Repository) FindPutawayPendingByInvoice(ctx context.Context, shopID int64, invoiceNumber string) (Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases
		WHERE shop_id = $1 AND invoice_number = $2 AND status = $3`
	p, err := scanPurchase(r.pool.QueryRow(ctx, query, shopID, invoiceNumber, StatusPutawayPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, fmt.Errorf("purchase: invoice %s: %w", invoiceNumber, shared.ErrNotFound)
		}
		return Purchase{}, err
	}
	items, err := loadItems(ctx, r.pool, []int64{p.ID})
	if err != nil {
		return Purchase{}, err
	}
	p.Items = items[p.ID]
	return p, nil
}

// PendingCreatedAt returns creation times of purchases still awaiting their
// stock commit, for ageing analytics.
func (r *Repository) PendingCreatedAt(ctx context.Context, shopID int64) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT created_at FROM purchases WHERE shop_id = $1 AND status IN ($2, $3)`,
		shopID, StatusPending, StatusPutawayPending)
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

// UpdateItemRack corrects one line's rack location without touching status.
func (r *Repository) UpdateItemRack(ctx context.Context, shopID, purchaseID, itemID int64, rack string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE purchase_items SET rack_location = $1
		 WHERE id = $2 AND purchase_id = $3
		   AND EXISTS(SELECT 1 FROM purchases WHERE id = $3 AND shop_id = $4)`,
		rack, itemID, purchaseID, shopID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase: item %d: %w", itemID, shared.ErrNotFound)
	}
	return nil
}

// txRepo implements Tx over a live pgx transaction.
type txRepo struct {
	tx pgx.Tx
}

// NextInvoiceNumber allocates the next GRN number for the shop and year from
// a single authoritative sequence row.
func (t *txRepo) NextInvoiceNumber(ctx context.Context, shopID int64, year int) (string, error) {
	var seq int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO grn_sequences (shop_id, year, seq) VALUES ($1, $2, 1)
		 ON CONFLICT (shop_id, year) DO UPDATE SET seq = grn_sequences.seq + 1
		 RETURNING seq`,
		shopID, year).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("purchase: next invoice number: %w", err)
	}
	return fmt.Sprintf("GRN-%d-%04d", year, seq), nil
}

// InsertPurchase persists the purchase and its items, filling in generated ids.
func (t *txRepo) InsertPurchase(ctx context.Context, p *Purchase) error {
	const query = `INSERT INTO purchases
		(shop_id, invoice_number, supplier_id, physical_receiving_id, priority, receiving_location,
		 invoice_date, taxable_amount, tcs_amount, mrp_value, net_amount, amount_after_gst,
		 round_amount, invoice_amount,
		 gst5_taxable, gst5_tax, gst12_taxable, gst12_tax, gst18_taxable, gst18_tax, gst28_taxable, gst28_tax,
		 sub_total, tax_amount, discount, grand_total, status, payment_status, payment_method,
		 notes, invoice_image_url, purchase_date, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,
	        $23,$24,$25,$26,$27,$28,$29,$30,$31,$32,now(),now())
	RETURNING id, created_at, updated_at`
	err := t.tx.QueryRow(ctx, query,
		p.ShopID, p.InvoiceNumber, p.SupplierID, p.PhysicalReceivingID, p.Priority, p.ReceivingLocation,
		p.InvoiceDate, p.InvoiceSummary.TaxableAmount, p.InvoiceSummary.TCSAmount, p.InvoiceSummary.MRPValue,
		p.InvoiceSummary.NetAmount, p.InvoiceSummary.AmountAfterGST, p.InvoiceSummary.RoundAmount,
		p.InvoiceSummary.InvoiceAmount,
		p.TaxBreakup.GST5.Taxable, p.TaxBreakup.GST5.Tax,
		p.TaxBreakup.GST12.Taxable, p.TaxBreakup.GST12.Tax,
		p.TaxBreakup.GST18.Taxable, p.TaxBreakup.GST18.Tax,
		p.TaxBreakup.GST28.Taxable, p.TaxBreakup.GST28.Tax,
		p.SubTotal, p.TaxAmount, p.Discount, p.GrandTotal, p.Status, p.PaymentStatus, p.PaymentMethod,
		p.Notes, p.InvoiceImageURL, p.PurchaseDate,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("purchase: insert: %w", err)
	}
	return t.insertItems(ctx, p.ID, p.Items)
}

func (t *txRepo) insertItems(ctx context.Context, purchaseID int64, items []Item) error {
	const query = `INSERT INTO purchase_items
		(purchase_id, product_id, product_name, supplier_sku_id, sku_id, pack, batch_number,
		 expiry_date, mfg_date, system_mrp, ordered_qty, received_qty, physical_free_qty, scheme_free_qty,
		 po_rate, ptr, base_rate, scheme_discount, discount_percent, amount, hsn_code,
		 cgst, sgst, igst, purchase_price, selling_price, mrp, margin, rack_location)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,
	        $22,$23,$24,$25,$26,$27,$28,$29)
	RETURNING id`
	for i := range items {
		it := &items[i]
		err := t.tx.QueryRow(ctx, query,
			purchaseID, it.ProductID, it.ProductName, it.SupplierSKUID, it.SKUID, it.Pack, it.BatchNumber,
			it.ExpiryDate, it.MfgDate, it.SystemMRP, it.OrderedQty, it.ReceivedQty, it.PhysicalFreeQty,
			it.SchemeFreeQty, it.PORate, it.PTR, it.BaseRate, it.SchemeDiscount, it.DiscountPercent,
			it.Amount, it.HSNCode, it.CGST, it.SGST, it.IGST, it.PurchasePrice, it.SellingPrice, it.MRP,
			it.Margin, it.RackLocation,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("purchase: insert item: %w", err)
		}
	}
	return nil
}

// GetForUpdate locks the purchase row and loads its items.
func (t *txRepo) GetForUpdate(ctx context.Context, shopID, id int64) (Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1 AND shop_id = $2 FOR UPDATE`
	p, err := scanPurchase(t.tx.QueryRow(ctx, query, id, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, fmt.Errorf("purchase: %d: %w", id, shared.ErrNotFound)
		}
		return Purchase{}, err
	}
	items, err := loadItems(ctx, t.tx, []int64{p.ID})
	if err != nil {
		return Purchase{}, err
	}
	p.Items = items[p.ID]
	return p, nil
}

// SetStatus moves the state machine.
func (t *txRepo) SetStatus(ctx context.Context, shopID, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE purchases SET status = $1, updated_at = now() WHERE id = $2 AND shop_id = $3`,
		status, id, shopID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase: %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// ReplaceItems swaps the stored lines for the verified set.
func (t *txRepo) ReplaceItems(ctx context.Context, shopID, purchaseID int64, items []Item) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM purchase_items WHERE purchase_id = $1
		   AND EXISTS(SELECT 1 FROM purchases WHERE id = $1 AND shop_id = $2)`,
		purchaseID, shopID)
	if err != nil {
		return err
	}
	return t.insertItems(ctx, purchaseID, items)
}

// Product locks the product row for the receipt application.
func (t *txRepo) Product(ctx context.Context, shopID, productID int64) (catalog.Product, error) {
	return catalog.GetForUpdate(ctx, t.tx, shopID, productID)
}

// ApplyReceipt increments the product ledger inside the transaction.
func (t *txRepo) ApplyReceipt(ctx context.Context, shopID, productID, deltaUnits int64, sync catalog.ReceiptSync) error {
	return catalog.ApplyReceipt(ctx, t.tx, shopID, productID, deltaUnits, sync)
}
