package domain

import "strings"

// Invoice statuses. Only Paid invoices contribute to realized-sales
// aggregates; Pending and Overdue are carried for display filters.
const (
	InvoiceStatusPending = "Pending"
	InvoiceStatusPaid    = "Paid"
	InvoiceStatusOverdue = "Overdue"
)

var invoiceStatusLabels = map[string]string{
	"pending": InvoiceStatusPending,
	"paid":    InvoiceStatusPaid,
	"overdue": InvoiceStatusOverdue,
}

// NormalizeInvoiceStatus returns the canonical label for a raw status
// value (case-insensitive). Unknown statuses are returned trimmed as-is
// so they can still be displayed, but they never match Paid.
func NormalizeInvoiceStatus(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if label, ok := invoiceStatusLabels[strings.ToLower(trimmed)]; ok {
		return label
	}

	return trimmed
}

// IsPaid reports whether an invoice counts toward realized sales.
func IsPaid(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), InvoiceStatusPaid)
}

// Stock condition tags for a single selected product.
const (
	StockOut = "Out of Stock"
	StockLow = "Low Stock"
	StockIn  = "In Stock"
)

// StockCondition classifies a product's stock against its reorder level.
func StockCondition(stock, reorderLevel int) string {
	switch {
	case stock <= 0:
		return StockOut
	case stock <= reorderLevel:
		return StockLow
	default:
		return StockIn
	}
}
