package insights

import (
	"time"

	"github.com/motorstock/insights-backend/internal/domain"
)

// historyMonths is the size of the trailing sales window returned by
// Aggregate, ending at the current month inclusive.
const historyMonths = 6

// Aggregate scans invoices and produces unit-quantity totals for the
// trailing six calendar months ending at now's month, oldest first.
//
// Only Paid invoices contribute. Invoices whose dates cannot be parsed
// are skipped. When productID is empty or "all", every line item counts,
// including items whose product reference cannot be resolved; with a
// product filter, items are matched by resolved reference equality.
// Empty input yields six zero buckets, never an error.
func Aggregate(invoices []domain.Invoice, productID string, now time.Time) []domain.MonthlyBucket {
	buckets := make([]domain.MonthlyBucket, 0, historyMonths)
	index := make(map[[2]int]int, historyMonths)

	// Anchor at the first of the month so month arithmetic never
	// normalizes across month boundaries.
	base := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	for offset := historyMonths - 1; offset >= 0; offset-- {
		m := base.AddDate(0, -offset, 0)
		year, month := m.Year(), int(m.Month())
		index[[2]int{year, month}] = len(buckets)
		buckets = append(buckets, domain.MonthlyBucket{
			Year:  year,
			Month: month,
			Label: monthLabel(year, month),
		})
	}

	filterAll := productID == "" || productID == domain.AllProducts

	for _, inv := range invoices {
		if !domain.IsPaid(inv.Status) {
			continue
		}

		date, ok := parseInvoiceDate(inv.Date)
		if !ok {
			continue
		}

		pos, ok := index[[2]int{date.Year(), int(date.Month())}]
		if !ok {
			continue
		}

		for _, item := range inv.Items {
			if !filterAll && itemProductRef(item) != productID {
				continue
			}

			qty := coerceQuantity(item.Quantity)
			if qty <= 0 {
				continue
			}

			buckets[pos].Quantity += roundNonNegative(qty)
		}
	}

	return buckets
}
