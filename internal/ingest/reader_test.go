package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorstock/insights-backend/internal/domain"
)

func TestReadProductsMatchesAliasedColumns(t *testing.T) {
	csv := strings.Join([]string{
		"product_id,product_name,sku,price,qty_on_hand,reorder_point",
		"p1,Brake Pad,BP-100,15.50,40,10",
		"p2,Oil Filter,OF-200,8,120,25",
	}, "\n")

	products, err := ReadProducts(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "Brake Pad", products[0].Name)
	assert.Equal(t, "BP-100", products[0].SKU)
	assert.InDelta(t, 15.50, products[0].UnitPrice, 0.001)
	assert.Equal(t, 40, products[0].StockQuantity)
	assert.Equal(t, 10, products[0].ReorderLevel)
}

func TestReadProductsSkipsRowsWithoutID(t *testing.T) {
	csv := strings.Join([]string{
		"id,name,sku,unit_price,stock,reorder_level",
		",Missing ID,X-1,5,10,2",
		"p1,Kept,X-2,5,10,2",
	}, "\n")

	products, err := ReadProducts(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)
}

func TestReadProductsRequiresIDColumn(t *testing.T) {
	csv := "name,sku\nBrake Pad,BP-100"

	_, err := ReadProducts(strings.NewReader(csv))
	require.Error(t, err)
}

func TestReadProductsCoercesMalformedNumbers(t *testing.T) {
	csv := strings.Join([]string{
		"id,name,sku,unit_price,stock,reorder_level",
		"p1,Brake Pad,BP-100,abc,-5,",
	}, "\n")

	products, err := ReadProducts(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, products, 1)

	assert.Zero(t, products[0].UnitPrice)
	assert.Zero(t, products[0].StockQuantity)
	assert.Zero(t, products[0].ReorderLevel)
}

func TestReadInvoicesGroupsLineItems(t *testing.T) {
	csv := strings.Join([]string{
		"invoice_id,date,status,product_id,quantity,unit_price",
		"inv-1,2025-07-10,Paid,p1,3,15",
		"inv-1,2025-07-10,Paid,p2,1,8",
		"inv-2,7/12/2025,pending,p1,2,15",
	}, "\n")

	invoices, err := ReadInvoices(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	assert.Equal(t, "inv-1", invoices[0].ID)
	assert.Len(t, invoices[0].Items, 2)
	assert.Equal(t, domain.InvoiceStatusPaid, invoices[0].Status)

	assert.Equal(t, "inv-2", invoices[1].ID)
	assert.Equal(t, domain.InvoiceStatusPending, invoices[1].Status)
	assert.Equal(t, "7/12/2025", invoices[1].Date)
}

func TestReadInvoicesLegacyAliases(t *testing.T) {
	csv := strings.Join([]string{
		"invoice_no,invoice_date,payment_status,item_id,qty,price",
		"inv-9,2025-06-01,paid,p7,4,20",
	}, "\n")

	invoices, err := ReadInvoices(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	item := invoices[0].Items[0]
	assert.Equal(t, "p7", item.ItemID)
	assert.InDelta(t, 4.0, item.Quantity, 0.001)
	assert.InDelta(t, 20.0, item.UnitPrice, 0.001)
}

func TestBuildDatasetPaidOnlyAndSorted(t *testing.T) {
	products := []domain.Product{{ID: "p1", SKU: "BP-100"}}
	invoices := []domain.Invoice{
		{
			ID: "inv-2", Date: "2025-08-01", Status: domain.InvoiceStatusPaid,
			Items: []domain.InvoiceItem{{ProductID: "p1", Quantity: 2, UnitPrice: 15}},
		},
		{
			ID: "inv-1", Date: "2025-07-01", Status: domain.InvoiceStatusPaid,
			Items: []domain.InvoiceItem{{ProductID: "p1", Quantity: 5, UnitPrice: 15}},
		},
		{
			ID: "inv-3", Date: "2025-08-02", Status: domain.InvoiceStatusPending,
			Items: []domain.InvoiceItem{{ProductID: "p1", Quantity: 9, UnitPrice: 15}},
		},
		{
			ID: "inv-4", Date: "not-a-date", Status: domain.InvoiceStatusPaid,
			Items: []domain.InvoiceItem{{ProductID: "p1", Quantity: 1, UnitPrice: 15}},
		},
	}

	rows := BuildDataset(products, invoices)
	require.Len(t, rows, 2)

	assert.Equal(t, "2025-07-01", rows[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2025-08-01", rows[1].Date.Format("2006-01-02"))
	assert.Equal(t, "BP-100", rows[0].SKU)
}

func TestWriteDataset(t *testing.T) {
	products := []domain.Product{{ID: "p1", SKU: "BP-100"}}
	invoices := []domain.Invoice{
		{
			ID: "inv-1", Date: "2025-07-01", Status: domain.InvoiceStatusPaid,
			Items: []domain.InvoiceItem{{ProductID: "p1", Quantity: 5, UnitPrice: 15.5}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDataset(&buf, BuildDataset(products, invoices)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,product_id,sku,quantity,unit_price", lines[0])
	assert.Equal(t, "2025-07-01,p1,BP-100,5,15.5", lines[1])
}
