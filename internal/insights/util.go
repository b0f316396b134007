package insights

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/motorstock/insights-backend/internal/domain"
)

// parseInvoiceDate parses an invoice date leniently. ok is false when no
// layout matches; callers skip the invoice rather than failing.
func parseInvoiceDate(raw string) (time.Time, bool) {
	return domain.ParseInvoiceDate(raw)
}

// itemProductRef resolves a line item's product reference by trying the
// known field aliases in priority order. Returns "" when the item has no
// usable reference.
func itemProductRef(item domain.InvoiceItem) string {
	accessors := []func(domain.InvoiceItem) string{
		func(it domain.InvoiceItem) string { return it.ProductID },
		func(it domain.InvoiceItem) string { return it.ItemID },
		func(it domain.InvoiceItem) string { return it.SKU },
	}

	for _, get := range accessors {
		if ref := strings.TrimSpace(get(item)); ref != "" {
			return ref
		}
	}

	return ""
}

// coerceQuantity normalizes a line-item quantity. NaN, infinite and
// negative values become zero.
func coerceQuantity(q float64) float64 {
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
		return 0
	}

	return q
}

// coercePrice normalizes a monetary value the same way.
func coercePrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}

	return p
}

// coerceNumeric parses a raw numeric string, returning 0 for anything
// unparseable. Handles float strings like "1.0" for integer fields.
func coerceNumeric(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}

	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return f
}

// daysInMonth returns the number of calendar days in the given month.
func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// monthLabel formats a (year, month) pair for display, e.g. "Mar 2025".
func monthLabel(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// roundNonNegative rounds to the nearest integer and floors the result
// at zero. Output quantities are never negative.
func roundNonNegative(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	r := int(math.Round(v))
	if r < 0 {
		return 0
	}

	return r
}
