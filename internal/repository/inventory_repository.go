// internal/repository/inventory_repository.go
package repository

import (
	"context"

	"github.com/motorstock/insights-backend/internal/domain"
)

// InvoiceFilter narrows invoice loads. Zero values mean no restriction.
type InvoiceFilter struct {
	// FromYear drops invoices issued before January 1st of that year.
	// Projections only look two years back, so callers can avoid
	// dragging the full history through every request.
	FromYear int
	Status   string
}

// InventoryRepository reads the product catalog and invoice history.
// The insight engines never write; all derived values are computed per
// request and returned to the caller.
type InventoryRepository interface {
	GetProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetInvoices(ctx context.Context, filter InvoiceFilter) ([]domain.Invoice, error)
}
