// internal/domain/models.go
package domain

import "time"

// Product represents a catalog product
type Product struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	SKU           string    `json:"sku" db:"sku"`
	UnitPrice     float64   `json:"unit_price" db:"unit_price"`
	StockQuantity int       `json:"stock_quantity" db:"stock_quantity"`
	ReorderLevel  int       `json:"reorder_level" db:"reorder_level"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Invoice represents a sales invoice with its line items.
// Date is kept as the raw string from the source system because legacy
// imports mix ISO (2006-01-02) and US slash (1/2/2006) formats; parsing
// happens leniently at aggregation time.
type Invoice struct {
	ID     string        `json:"id" db:"id"`
	Date   string        `json:"date" db:"invoice_date"`
	Status string        `json:"status" db:"status"`
	Items  []InvoiceItem `json:"items"`
}

// InvoiceItem is a single line on an invoice. Quantity and UnitPrice may
// arrive blank or malformed in imported records; consumers coerce them
// to zero rather than failing.
type InvoiceItem struct {
	InvoiceID string `json:"invoice_id,omitempty" db:"invoice_id"`
	ProductID string `json:"product_id" db:"product_id"`
	// Legacy aliases seen in imported rows. Tried in order when
	// ProductID is blank.
	ItemID    string  `json:"item_id,omitempty" db:"-"`
	SKU       string  `json:"sku,omitempty" db:"-"`
	Quantity  float64 `json:"quantity" db:"quantity"`
	UnitPrice float64 `json:"unit_price" db:"unit_price"`
}

// MonthlyBucket holds accumulated unit quantity for one calendar month
type MonthlyBucket struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Label    string `json:"label"`
	Quantity int    `json:"quantity"`
}

// ForecastResult is the per-product output of the external demand
// forecaster. Either DailyDemand or AvgDailyDemand may be present;
// both absent means the model produced nothing usable.
type ForecastResult struct {
	ProductID      string    `json:"product_id"`
	DailyDemand    []float64 `json:"forecast_demand,omitempty"`
	AvgDailyDemand float64   `json:"avg_daily_demand,omitempty"`
	MaxDailyDemand float64   `json:"max_daily_demand,omitempty"`
	Confidence     float64   `json:"confidence_score,omitempty"`
	Method         string    `json:"method,omitempty"`
	// ShortTerm is an optional 6-month backup series used when no other
	// prediction method yields a value for a near month.
	ShortTerm []float64 `json:"short_term_monthly,omitempty"`
}

// RestockPriority is the urgency of a restock recommendation
type RestockPriority string

const (
	PriorityLow    RestockPriority = "low"
	PriorityMedium RestockPriority = "medium"
	PriorityHigh   RestockPriority = "high"
)

// Rank orders priorities for comparisons (low < medium < high)
func (p RestockPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// RestockEntry is one month of the 24-month restock projection
type RestockEntry struct {
	Period             string          `json:"period"`
	Month              int             `json:"month"`
	Year               int             `json:"year"`
	PredictedSales     int             `json:"predicted_sales"`
	RestockRecommended bool            `json:"restock_recommended"`
	Priority           RestockPriority `json:"priority"`
	IsPredicted        bool            `json:"is_predicted"`
	UsingAI            bool            `json:"using_ai"`
}

// ProductSales is one row of the per-product sales breakdown
type ProductSales struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	QuantitySold int     `json:"quantity_sold"`
	Revenue      float64 `json:"revenue"`
}

// SalesMetrics aggregates dashboard counters for a period
type SalesMetrics struct {
	ProductCount  int            `json:"product_count"`
	SelectedStock int            `json:"selected_stock,omitempty"`
	StockStatus   string         `json:"stock_status,omitempty"`
	LowStockCount int            `json:"low_stock_count"`
	TotalRevenue  float64        `json:"total_revenue"`
	TopProducts   []ProductSales `json:"top_products"`
	Breakdown     []ProductSales `json:"breakdown"`
}

// AllProducts is the selection value meaning "no product filter"
const AllProducts = "all"

// Selection identifies which product a computation targets
type Selection struct {
	ProductID string `json:"product_id"`
}

// IsAll reports whether the selection spans every product
func (s Selection) IsAll() bool {
	return s.ProductID == "" || s.ProductID == AllProducts
}

// Period filters Paid invoices to a year and optional month (1-12, 0 = whole year)
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
}
