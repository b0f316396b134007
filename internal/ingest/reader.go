package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/motorstock/insights-backend/internal/domain"
)

// Column aliases seen across exported inventory files. Headers are
// matched case-insensitively after trimming.
var (
	productColumns = map[string][]string{
		"id":            {"id", "product_id"},
		"name":          {"name", "product_name", "nama produk"},
		"sku":           {"sku", "part_number", "part number"},
		"unit_price":    {"unit_price", "price", "harga"},
		"stock":         {"stock_quantity", "stock", "quantity_in_stock", "qty_on_hand"},
		"reorder_level": {"reorder_level", "reorder_point", "min_stock"},
	}

	invoiceColumns = map[string][]string{
		"invoice_id": {"invoice_id", "invoice", "invoice_no", "no_invoice"},
		"date":       {"date", "invoice_date", "tanggal"},
		"status":     {"status", "payment_status"},
		"product_id": {"product_id", "item_product_id"},
		"item_id":    {"item_id", "product_item_id"},
		"sku":        {"sku", "part_number"},
		"quantity":   {"quantity", "qty", "jumlah"},
		"unit_price": {"unit_price", "price", "harga"},
	}
)

type columnIndex map[string]int

func buildColumnIndex(header []string, aliases map[string][]string) columnIndex {
	normalized := make(map[string]int, len(header))
	for i, col := range header {
		normalized[strings.ToLower(strings.TrimSpace(col))] = i
	}

	idx := make(columnIndex, len(aliases))
	for field, names := range aliases {
		for _, name := range names {
			if pos, ok := normalized[name]; ok {
				idx[field] = pos
				break
			}
		}
	}
	return idx
}

func (idx columnIndex) value(record []string, field string) string {
	pos, ok := idx[field]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func (idx columnIndex) float(record []string, field string) float64 {
	raw := idx.value(record, field)
	if raw == "" {
		return 0
	}
	raw = strings.ReplaceAll(raw, ",", "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// LoadProducts reads a product catalog CSV. Rows without an ID are
// skipped with a warning instead of failing the whole file.
func LoadProducts(path string) ([]domain.Product, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open products file: %w", err)
	}
	defer file.Close()

	return ReadProducts(file)
}

func ReadProducts(r io.Reader) ([]domain.Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read products header: %w", err)
	}

	idx := buildColumnIndex(header, productColumns)
	if _, ok := idx["id"]; !ok {
		return nil, fmt.Errorf("products file has no id column")
	}

	var products []domain.Product
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read products row: %w", err)
		}
		line++

		id := idx.value(record, "id")
		if id == "" {
			log.Warn().Int("line", line).Msg("ingest: skipping product row without id")
			continue
		}

		products = append(products, domain.Product{
			ID:            id,
			Name:          idx.value(record, "name"),
			SKU:           idx.value(record, "sku"),
			UnitPrice:     idx.float(record, "unit_price"),
			StockQuantity: int(idx.float(record, "stock")),
			ReorderLevel:  int(idx.float(record, "reorder_level")),
		})
	}

	return products, nil
}

// LoadInvoices reads a flat invoice line-item CSV and groups rows by
// invoice ID. Row order within an invoice is preserved.
func LoadInvoices(path string) ([]domain.Invoice, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open invoices file: %w", err)
	}
	defer file.Close()

	return ReadInvoices(file)
}

func ReadInvoices(r io.Reader) ([]domain.Invoice, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read invoices header: %w", err)
	}

	idx := buildColumnIndex(header, invoiceColumns)
	if _, ok := idx["invoice_id"]; !ok {
		return nil, fmt.Errorf("invoices file has no invoice id column")
	}

	var (
		invoices []domain.Invoice
		byID     = make(map[string]int)
	)

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read invoices row: %w", err)
		}
		line++

		invoiceID := idx.value(record, "invoice_id")
		if invoiceID == "" {
			log.Warn().Int("line", line).Msg("ingest: skipping invoice row without invoice id")
			continue
		}

		pos, ok := byID[invoiceID]
		if !ok {
			pos = len(invoices)
			byID[invoiceID] = pos
			invoices = append(invoices, domain.Invoice{
				ID:     invoiceID,
				Date:   idx.value(record, "date"),
				Status: domain.NormalizeInvoiceStatus(idx.value(record, "status")),
			})
		}

		item := domain.InvoiceItem{
			InvoiceID: invoiceID,
			ProductID: idx.value(record, "product_id"),
			ItemID:    idx.value(record, "item_id"),
			SKU:       idx.value(record, "sku"),
			Quantity:  idx.float(record, "quantity"),
			UnitPrice: idx.float(record, "unit_price"),
		}
		invoices[pos].Items = append(invoices[pos].Items, item)
	}

	return invoices, nil
}
