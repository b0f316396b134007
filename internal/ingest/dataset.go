package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/motorstock/insights-backend/internal/domain"
)

// DatasetRow is one normalized sales transaction for the forecaster
// training set. One row per paid line item.
type DatasetRow struct {
	Date      time.Time
	ProductID string
	SKU       string
	Quantity  float64
	UnitPrice float64
}

var datasetHeader = []string{"date", "product_id", "sku", "quantity", "unit_price"}

// BuildDataset flattens paid invoices into forecaster training rows.
// Unpaid invoices, unparseable dates and item rows without a product
// reference are dropped; the forecaster only learns from settled sales.
func BuildDataset(products []domain.Product, invoices []domain.Invoice) []DatasetRow {
	skuByID := make(map[string]string, len(products))
	for _, p := range products {
		skuByID[p.ID] = p.SKU
	}

	var rows []DatasetRow
	for _, inv := range invoices {
		if !domain.IsPaid(inv.Status) {
			continue
		}

		date, ok := domain.ParseInvoiceDate(inv.Date)
		if !ok {
			log.Warn().Str("invoice_id", inv.ID).Str("date", inv.Date).Msg("ingest: dropping invoice with unparseable date")
			continue
		}

		for _, item := range inv.Items {
			productID := item.ProductID
			if productID == "" {
				productID = item.ItemID
			}
			if productID == "" && item.SKU == "" {
				continue
			}
			if item.Quantity <= 0 {
				continue
			}

			sku := item.SKU
			if sku == "" {
				sku = skuByID[productID]
			}

			rows = append(rows, DatasetRow{
				Date:      date,
				ProductID: productID,
				SKU:       sku,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].ProductID < rows[j].ProductID
	})

	return rows
}

// WriteDataset writes rows as the normalized CSV the forecaster trains on.
func WriteDataset(w io.Writer, rows []DatasetRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(datasetHeader); err != nil {
		return fmt.Errorf("write dataset header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Date.Format("2006-01-02"),
			row.ProductID,
			row.SKU,
			strconv.FormatFloat(row.Quantity, 'f', -1, 64),
			strconv.FormatFloat(row.UnitPrice, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write dataset row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteDatasetFile builds and writes the dataset to path in one step.
func WriteDatasetFile(path string, products []domain.Product, invoices []domain.Invoice) (int, error) {
	rows := BuildDataset(products, invoices)

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create dataset file: %w", err)
	}
	defer file.Close()

	if err := WriteDataset(file, rows); err != nil {
		return 0, err
	}

	return len(rows), nil
}
