package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/motorstock/insights-backend/internal/domain"
	"github.com/motorstock/insights-backend/internal/repository"
)

type inventoryRepository struct {
	db *sqlx.DB
}

func NewInventoryRepository(db *DB) repository.InventoryRepository {
	return &inventoryRepository{db: db.DB}
}

func (r *inventoryRepository) GetProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, sku, unit_price, stock_quantity, reorder_level, created_at, updated_at
		FROM products
		ORDER BY id
	`

	var products []domain.Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("error loading products: %w", err)
	}

	return products, nil
}

func (r *inventoryRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, name, sku, unit_price, stock_quantity, reorder_level, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product domain.Product
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading product %s: %w", id, err)
	}

	return &product, nil
}

// invoiceRow flattens an invoice join for scanning; items are grouped
// in Go instead of aggregating JSON in SQL.
type invoiceRow struct {
	ID        string          `db:"id"`
	Date      string          `db:"invoice_date"`
	Status    string          `db:"status"`
	ProductID sql.NullString  `db:"product_id"`
	Quantity  sql.NullFloat64 `db:"quantity"`
	UnitPrice sql.NullFloat64 `db:"unit_price"`
}

func (r *inventoryRepository) GetInvoices(ctx context.Context, filter repository.InvoiceFilter) ([]domain.Invoice, error) {
	query := `
		SELECT
			i.id,
			i.invoice_date::text AS invoice_date,
			i.status,
			li.product_id,
			li.quantity,
			li.unit_price
		FROM invoices i
		LEFT JOIN invoice_items li ON li.invoice_id = i.id
		WHERE 1=1
	`

	var args []interface{}
	argCounter := 1

	if filter.FromYear > 0 {
		query += fmt.Sprintf(" AND i.invoice_date >= make_date($%d, 1, 1)", argCounter)
		args = append(args, filter.FromYear)
		argCounter++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND LOWER(i.status) = LOWER($%d)", argCounter)
		args = append(args, filter.Status)
		argCounter++
	}

	query += " ORDER BY i.invoice_date, i.id"

	var rows []invoiceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error loading invoices: %w", err)
	}

	invoices := make([]domain.Invoice, 0)
	index := make(map[string]int)

	for _, row := range rows {
		pos, ok := index[row.ID]
		if !ok {
			pos = len(invoices)
			index[row.ID] = pos
			invoices = append(invoices, domain.Invoice{
				ID:     row.ID,
				Date:   row.Date,
				Status: domain.NormalizeInvoiceStatus(row.Status),
			})
		}

		// Invoices without items produce a single all-NULL join row.
		if !row.ProductID.Valid && !row.Quantity.Valid {
			continue
		}

		invoices[pos].Items = append(invoices[pos].Items, domain.InvoiceItem{
			InvoiceID: row.ID,
			ProductID: row.ProductID.String,
			Quantity:  row.Quantity.Float64,
			UnitPrice: row.UnitPrice.Float64,
		})
	}

	return invoices, nil
}
