package insights

import (
	"sort"

	"github.com/motorstock/insights-backend/internal/domain"
)

const (
	topProductCount   = 5
	breakdownMaxItems = 20
)

// Summarize reduces products and Paid invoices within a period to the
// dashboard counters: stock counts (or the selected product's stock and
// condition tag), realized revenue, the top five products by quantity
// sold, and the full per-product breakdown sorted by quantity.
//
// Revenue uses the catalog price when the product resolves, falling back
// to the price recorded on the line item; imported invoices often carry
// stale prices. Malformed quantities and prices contribute zero instead
// of failing. Items whose product reference cannot be resolved still
// count toward all-products revenue but are excluded from per-product
// rows.
func Summarize(
	products []domain.Product,
	invoices []domain.Invoice,
	sel domain.Selection,
	period domain.Period,
) domain.SalesMetrics {
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	metrics := domain.SalesMetrics{
		TopProducts: []domain.ProductSales{},
		Breakdown:   []domain.ProductSales{},
	}

	if sel.IsAll() {
		metrics.ProductCount = len(products)
		for _, p := range products {
			if p.StockQuantity <= p.ReorderLevel {
				metrics.LowStockCount++
			}
		}
	} else if p, ok := byID[sel.ProductID]; ok {
		metrics.ProductCount = 1
		metrics.SelectedStock = p.StockQuantity
		metrics.StockStatus = domain.StockCondition(p.StockQuantity, p.ReorderLevel)
	}

	sold := make(map[string]*domain.ProductSales)

	for _, inv := range invoices {
		if !domain.IsPaid(inv.Status) {
			continue
		}

		date, ok := parseInvoiceDate(inv.Date)
		if !ok || date.Year() != period.Year {
			continue
		}
		if period.Month != 0 && int(date.Month()) != period.Month {
			continue
		}

		for _, item := range inv.Items {
			ref := itemProductRef(item)
			if !sel.IsAll() && ref != sel.ProductID {
				continue
			}

			qty := coerceQuantity(item.Quantity)
			if qty <= 0 {
				continue
			}

			price := coercePrice(item.UnitPrice)
			product, resolved := byID[ref]
			if resolved && product.UnitPrice > 0 {
				price = product.UnitPrice
			}

			metrics.TotalRevenue += qty * price

			if ref == "" || !resolved {
				continue
			}

			row, ok := sold[ref]
			if !ok {
				row = &domain.ProductSales{ProductID: ref, Name: product.Name}
				sold[ref] = row
			}

			row.QuantitySold += roundNonNegative(qty)
			row.Revenue += qty * price
		}
	}

	breakdown := make([]domain.ProductSales, 0, len(sold))
	for _, row := range sold {
		breakdown = append(breakdown, *row)
	}

	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].QuantitySold != breakdown[j].QuantitySold {
			return breakdown[i].QuantitySold > breakdown[j].QuantitySold
		}
		return breakdown[i].ProductID < breakdown[j].ProductID
	})

	if top := topProductCount; len(breakdown) > top {
		metrics.TopProducts = append(metrics.TopProducts, breakdown[:top]...)
	} else {
		metrics.TopProducts = append(metrics.TopProducts, breakdown...)
	}

	if sel.IsAll() && len(breakdown) > breakdownMaxItems {
		breakdown = breakdown[:breakdownMaxItems]
	}
	metrics.Breakdown = append(metrics.Breakdown, breakdown...)

	return metrics
}
