package receiving

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

// Repository provides PostgreSQL backed receiving persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `id, shop_id, system_id, physical_receiving_id, supplier_name, invoice_number,
	invoice_value, sku_count, invoice_date, COALESCE(order_number, ''), box_count, poly_count,
	COALESCE(location, ''), COALESCE(po_ids, ''), is_po_not_present, status,
	COALESCE(validated_by, ''), validation_date, grn_status, grn_id, grn_date,
	COALESCE(invoice_image_url, ''), created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.ShopID, &e.SystemID, &e.PhysicalReceivingID, &e.SupplierName, &e.InvoiceNumber,
		&e.InvoiceValue, &e.SKUCount, &e.InvoiceDate, &e.OrderNumber, &e.BoxCount, &e.PolyCount,
		&e.Location, &e.POIDs, &e.IsPONotPresent, &e.Status,
		&e.ValidatedBy, &e.ValidationDate, &e.GRNStatus, &e.GRNID, &e.GRNDate,
		&e.InvoiceImageURL, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// Create inserts an entry.
func (r *Repository) Create(ctx context.Context, e Entry) (Entry, error) {
	const query = `INSERT INTO physical_receivings
		(shop_id, system_id, physical_receiving_id, supplier_name, invoice_number, invoice_value,
		 sku_count, invoice_date, order_number, box_count, poly_count, location, po_ids,
		 is_po_not_present, status, grn_status, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now(),now())
	RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		e.ShopID, e.SystemID, e.PhysicalReceivingID, e.SupplierName, e.InvoiceNumber, e.InvoiceValue,
		e.SKUCount, e.InvoiceDate, e.OrderNumber, e.BoxCount, e.PolyCount, e.Location, e.POIDs,
		e.IsPONotPresent, e.Status, e.GRNStatus,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Get fetches by database id.
func (r *Repository) Get(ctx context.Context, shopID, id int64) (Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM physical_receivings WHERE id = $1 AND shop_id = $2`
	e, err := scanEntry(r.pool.QueryRow(ctx, query, id, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, fmt.Errorf("receiving: entry %d: %w", id, shared.ErrNotFound)
		}
		return Entry{}, err
	}
	return e, nil
}

// GetByPhysicalID fetches by the human-facing PHY id.
func (r *Repository) GetByPhysicalID(ctx context.Context, shopID int64, physicalID string) (Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM physical_receivings WHERE physical_receiving_id = $1 AND shop_id = $2`
	e, err := scanEntry(r.pool.QueryRow(ctx, query, physicalID, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, fmt.Errorf("receiving: entry %s: %w", physicalID, shared.ErrNotFound)
		}
		return Entry{}, err
	}
	return e, nil
}

// ListFilters narrows receiving listings.
type ListFilters struct {
	Status              ValidationStatus
	GRNStatus           GRNStatus
	Supplier            string
	InvoiceNumber       string
	PhysicalReceivingID string
	StartDate           *time.Time
	EndDate             *time.Time
}

// List returns entries for the shop, newest first.
func (r *Repository) List(ctx context.Context, shopID int64, limit, offset int, filters ListFilters) ([]Entry, int, error) {
	where := []string{"shop_id = $1"}
	args := []any{shopID}
	add := func(cond string, value any) {
		args = append(args, value)
		where = append(where, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if filters.Status != "" {
		add("status = ?", filters.Status)
	}
	if filters.GRNStatus != "" {
		add("grn_status = ?", filters.GRNStatus)
	}
	if filters.Supplier != "" {
		add("supplier_name ILIKE ?", "%"+filters.Supplier+"%")
	}
	if filters.InvoiceNumber != "" {
		add("invoice_number ILIKE ?", "%"+filters.InvoiceNumber+"%")
	}
	if filters.PhysicalReceivingID != "" {
		add("physical_receiving_id ILIKE ?", "%"+filters.PhysicalReceivingID+"%")
	}
	if filters.StartDate != nil {
		add("invoice_date >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		add("invoice_date <= ?", *filters.EndDate)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM physical_receivings WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + entryColumns + ` FROM physical_receivings WHERE ` + cond +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// MarkValidated sets the physical validation axis to Done.
func (r *Repository) MarkValidated(ctx context.Context, shopID, id int64, validatedBy string, at time.Time) (Entry, error) {
	query := `UPDATE physical_receivings
		SET status = $1, validated_by = $2, validation_date = $3, updated_at = now()
		WHERE id = $4 AND shop_id = $5
		RETURNING ` + entryColumns
	e, err := scanEntry(r.pool.QueryRow(ctx, query, ValidationDone, validatedBy, at, id, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, fmt.Errorf("receiving: entry %d: %w", id, shared.ErrNotFound)
		}
		return Entry{}, err
	}
	return e, nil
}

// MarkGRNLinked sets the GRN axis to Done with the backlink to the purchase.
func (r *Repository) MarkGRNLinked(ctx context.Context, shopID, id, grnID int64, invoiceImageURL string, at time.Time) (Entry, error) {
	query := `UPDATE physical_receivings
		SET grn_status = $1, grn_id = $2, grn_date = $3,
		    invoice_image_url = COALESCE(NULLIF($4, ''), invoice_image_url),
		    updated_at = now()
		WHERE id = $5 AND shop_id = $6
		RETURNING ` + entryColumns
	e, err := scanEntry(r.pool.QueryRow(ctx, query, GRNDone, grnID, at, invoiceImageURL, id, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, fmt.Errorf("receiving: entry %d: %w", id, shared.ErrNotFound)
		}
		return Entry{}, err
	}
	return e, nil
}

// CountPendingGRN returns how many validated arrivals still await a GRN.
func (r *Repository) CountPendingGRN(ctx context.Context, shopID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM physical_receivings WHERE shop_id = $1 AND grn_status = $2`,
		shopID, GRNPending).Scan(&n)
	return n, err
}
