package ingest

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"github.com/motorstock/insights-backend/internal/domain"
)

// Seeder loads catalog and invoice files into Postgres. Used by the CLI
// to populate a database from exported CSVs.
type Seeder struct {
	db *sql.DB
}

func NewSeeder(dsn string) (*Seeder, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Seeder{db: db}, nil
}

func (s *Seeder) Close() error {
	return s.db.Close()
}

// SeedProducts upserts the product catalog in one transaction.
func (s *Seeder) SeedProducts(ctx context.Context, products []domain.Product) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO products (id, name, sku, unit_price, stock_quantity, reorder_level, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            sku = EXCLUDED.sku,
            unit_price = EXCLUDED.unit_price,
            stock_quantity = EXCLUDED.stock_quantity,
            reorder_level = EXCLUDED.reorder_level,
            updated_at = NOW()
    `

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, p := range products {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Name, p.SKU, p.UnitPrice, p.StockQuantity, p.ReorderLevel); err != nil {
			return 0, fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	log.Info().Int("count", count).Msg("ingest: seeded products")
	return count, nil
}

// SeedInvoices upserts invoices and replaces their line items in one
// transaction. Re-running a seed with the same file is idempotent.
func (s *Seeder) SeedInvoices(ctx context.Context, invoices []domain.Invoice) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	invoiceStmt, err := tx.PrepareContext(ctx, `
        INSERT INTO invoices (id, invoice_date, status, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        ON CONFLICT (id) DO UPDATE SET
            invoice_date = EXCLUDED.invoice_date,
            status = EXCLUDED.status,
            updated_at = NOW()
    `)
	if err != nil {
		return 0, fmt.Errorf("prepare invoice statement: %w", err)
	}
	defer invoiceStmt.Close()

	itemStmt, err := tx.PrepareContext(ctx, `
        INSERT INTO invoice_items (invoice_id, product_id, quantity, unit_price)
        VALUES ($1, $2, $3, $4)
    `)
	if err != nil {
		return 0, fmt.Errorf("prepare item statement: %w", err)
	}
	defer itemStmt.Close()

	count := 0
	for _, inv := range invoices {
		if _, err := invoiceStmt.ExecContext(ctx, inv.ID, inv.Date, inv.Status); err != nil {
			return 0, fmt.Errorf("upsert invoice %s: %w", inv.ID, err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM invoice_items WHERE invoice_id = $1", inv.ID); err != nil {
			return 0, fmt.Errorf("clear items for invoice %s: %w", inv.ID, err)
		}

		for _, item := range inv.Items {
			productID := item.ProductID
			if productID == "" {
				productID = item.ItemID
			}
			if productID == "" {
				productID = item.SKU
			}
			if productID == "" {
				log.Warn().Str("invoice_id", inv.ID).Msg("ingest: skipping item without product reference")
				continue
			}

			if _, err := itemStmt.ExecContext(ctx, inv.ID, productID, item.Quantity, item.UnitPrice); err != nil {
				return 0, fmt.Errorf("insert item for invoice %s: %w", inv.ID, err)
			}
		}

		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	log.Info().Int("count", count).Msg("ingest: seeded invoices")
	return count, nil
}
