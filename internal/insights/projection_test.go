package insights

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorstock/insights-backend/internal/domain"
)

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: "P1", Name: "Brake Pad", UnitPrice: 60, StockQuantity: 40, ReorderLevel: 10},
		{ID: "P2", Name: "Oil Filter", UnitPrice: 15, StockQuantity: 5, ReorderLevel: 8},
	}
}

func paidInvoice(id, date string, items ...domain.InvoiceItem) domain.Invoice {
	return domain.Invoice{ID: id, Date: date, Status: "Paid", Items: items}
}

func TestProjectEmptyInputs(t *testing.T) {
	fc := map[string]*domain.ForecastResult{"P1": {AvgDailyDemand: 3}}
	inv := []domain.Invoice{paidInvoice("I1", "2025-08-01", domain.InvoiceItem{ProductID: "P1", Quantity: 1})}

	assert.Empty(t, Project(nil, inv, fc, domain.Selection{ProductID: "P1"}, testNow))
	assert.Empty(t, Project(testProducts(), nil, fc, domain.Selection{ProductID: "P1"}, testNow))
}

func TestProjectReturns24Months(t *testing.T) {
	entries := Project(
		testProducts(),
		[]domain.Invoice{paidInvoice("I1", "2025-08-01", domain.InvoiceItem{ProductID: "P1", Quantity: 10})},
		nil,
		domain.Selection{ProductID: domain.AllProducts},
		testNow,
	)

	require.Len(t, entries, 24)
	assert.Equal(t, 9, entries[0].Month)
	assert.Equal(t, 2025, entries[0].Year)
	assert.Equal(t, "Sep 2025", entries[0].Period)
	assert.Equal(t, 8, entries[23].Month)
	assert.Equal(t, 2027, entries[23].Year)

	for _, e := range entries {
		assert.True(t, e.IsPredicted)
		assert.GreaterOrEqual(t, e.PredictedSales, 0)
	}
}

func TestProjectIdempotent(t *testing.T) {
	products := testProducts()
	invoices := []domain.Invoice{
		paidInvoice("I1", "2025-07-05", domain.InvoiceItem{ProductID: "P1", Quantity: 30}),
		paidInvoice("I2", "2024-12-20", domain.InvoiceItem{ProductID: "P1", Quantity: 120}),
	}
	fc := map[string]*domain.ForecastResult{
		"P1": {ProductID: "P1", DailyDemand: []float64{2, 2, 2, 2, 2}, AvgDailyDemand: 2, Confidence: 85},
	}

	first := Project(products, invoices, fc, domain.Selection{ProductID: "P1"}, testNow)
	second := Project(products, invoices, fc, domain.Selection{ProductID: "P1"}, testNow)

	assert.Equal(t, first, second)
}

func TestProjectAggregateStableAcrossCalls(t *testing.T) {
	// Fractional per-product averages whose sum rounds right at an
	// integer boundary; combining them in a different order would shift
	// the rounded result.
	products := []domain.Product{
		{ID: "P1", Name: "Brake Pad"},
		{ID: "P2", Name: "Oil Filter"},
		{ID: "P3", Name: "Spark Plug"},
	}
	fc := map[string]*domain.ForecastResult{
		"P1": {ProductID: "P1", AvgDailyDemand: 0.524},
		"P2": {ProductID: "P2", AvgDailyDemand: 1.328},
		"P3": {ProductID: "P3", AvgDailyDemand: 0.198},
	}
	invoices := []domain.Invoice{
		paidInvoice("I1", "2025-08-01", domain.InvoiceItem{ProductID: "P1", Quantity: 5}),
	}

	first := Project(products, invoices, fc, domain.Selection{ProductID: domain.AllProducts}, testNow)
	require.Len(t, first, 24)

	for i := 0; i < 500; i++ {
		again := Project(products, invoices, fc, domain.Selection{ProductID: domain.AllProducts}, testNow)
		require.Equal(t, first, again, "identical inputs must produce identical projections")
	}
}

func TestProjectScalarForecastMethod(t *testing.T) {
	fc := map[string]*domain.ForecastResult{
		"P1": {ProductID: "P1", AvgDailyDemand: 2.5},
	}
	invoices := []domain.Invoice{paidInvoice("I1", "2025-08-01", domain.InvoiceItem{ProductID: "P1", Quantity: 5})}

	entries := Project(testProducts(), invoices, fc, domain.Selection{ProductID: "P1"}, testNow)

	require.Len(t, entries, 24)
	// September 2025 has 30 days: 2.5 * 30 = 75.
	assert.Equal(t, 75, entries[0].PredictedSales)
	assert.True(t, entries[0].UsingAI)
	// October has 31 days: round(2.5 * 31) = 78.
	assert.Equal(t, 78, entries[1].PredictedSales)
}

func TestProjectDailyArrayMethod(t *testing.T) {
	daily := make([]float64, 45)
	for i := range daily {
		daily[i] = 1.5
	}
	fc := map[string]*domain.ForecastResult{
		"P1": {ProductID: "P1", DailyDemand: daily, AvgDailyDemand: 9},
	}
	invoices := []domain.Invoice{paidInvoice("I1", "2025-08-01", domain.InvoiceItem{ProductID: "P1", Quantity: 5})}

	entries := Project(testProducts(), invoices, fc, domain.Selection{ProductID: "P1"}, testNow)

	// Month 0 window is days [0, 30): 30 * 1.5 = 45, from the array.
	assert.Equal(t, 45, entries[0].PredictedSales)
	assert.True(t, entries[0].UsingAI)

	// Month 1 window starts at day 30 with 15 days left: 15 * 1.5 ~ 23.
	assert.Equal(t, 23, entries[1].PredictedSales)

	// Month 2 starts beyond the array; falls back to the scalar.
	assert.Equal(t, 9*30, entries[2].PredictedSales)
	assert.True(t, entries[2].UsingAI)
}

func TestProjectHistoricalFallback(t *testing.T) {
	invoices := []domain.Invoice{
		// Two Octobers inside the 2-year lookback.
		paidInvoice("I1", "2024-10-05", domain.InvoiceItem{ProductID: "P1", Quantity: 40}),
		paidInvoice("I2", "2023-10-09", domain.InvoiceItem{ProductID: "P1", Quantity: 20}),
		// Older than the lookback; must not count.
		paidInvoice("I3", "2022-10-01", domain.InvoiceItem{ProductID: "P1", Quantity: 500}),
	}

	entries := Project(testProducts(), invoices, nil, domain.Selection{ProductID: "P1"}, testNow)

	require.Len(t, entries, 24)
	// October (index 1): (40 + 20) / 2 qualifying years = 30.
	assert.Equal(t, 30, entries[1].PredictedSales)
	assert.False(t, entries[1].UsingAI)

	// A month with no history predicts zero, still without error.
	assert.Equal(t, 0, entries[4].PredictedSales)
	assert.False(t, entries[4].UsingAI)
}

func TestProjectProvenanceWhenForecastUnavailable(t *testing.T) {
	invoices := []domain.Invoice{
		paidInvoice("I1", "2024-11-05", domain.InvoiceItem{ProductID: "P1", Quantity: 12}),
		paidInvoice("I2", "2025-02-14", domain.InvoiceItem{ProductID: "P1", Quantity: 8}),
	}

	entries := Project(testProducts(), invoices, nil, domain.Selection{ProductID: "P1"}, testNow)

	require.Len(t, entries, 24)
	for _, e := range entries {
		assert.False(t, e.UsingAI, "entry %s must be historical when no forecast exists", e.Period)
	}

	// November (index 2) extrapolates its single qualifying year.
	assert.Equal(t, 12, entries[2].PredictedSales)
	// February 2026 (index 5) likewise.
	assert.Equal(t, 8, entries[5].PredictedSales)
}

func TestProjectShortTermBackup(t *testing.T) {
	fc := map[string]*domain.ForecastResult{
		"P1": {ProductID: "P1", ShortTerm: []float64{11, 12, 13, 14, 15, 16}},
	}
	// Invoices exist (non-empty input) but carry no usable history for
	// any projected month.
	invoices := []domain.Invoice{
		{ID: "I1", Date: "not-a-date", Status: "Paid", Items: []domain.InvoiceItem{{ProductID: "P1", Quantity: 3}}},
	}

	entries := Project(testProducts(), invoices, fc, domain.Selection{ProductID: "P1"}, testNow)

	require.Len(t, entries, 24)
	for m := 0; m < 6; m++ {
		assert.Equal(t, 11+m, entries[m].PredictedSales)
		assert.True(t, entries[m].UsingAI)
	}
	// Beyond the short horizon nothing produces a value.
	assert.Equal(t, 0, entries[6].PredictedSales)
	assert.False(t, entries[6].UsingAI)
}

func TestProjectAggregateSelectionCombinesForecasts(t *testing.T) {
	fc := map[string]*domain.ForecastResult{
		"P1": {ProductID: "P1", AvgDailyDemand: 2},
		"P2": {ProductID: "P2", AvgDailyDemand: 3},
	}
	invoices := []domain.Invoice{
		paidInvoice("I1", "2025-08-01", domain.InvoiceItem{ProductID: "P1", Quantity: 5}),
	}

	entries := Project(testProducts(), invoices, fc, domain.Selection{ProductID: domain.AllProducts}, testNow)

	require.Len(t, entries, 24)
	// Combined scalar 5/day over September's 30 days.
	assert.Equal(t, 150, entries[0].PredictedSales)
	assert.True(t, entries[0].UsingAI)
}

func TestProjectPartialForecastFailureFallsBackPerProduct(t *testing.T) {
	// P2's lookup failed; only P1 contributes AI demand to the aggregate.
	fc := map[string]*domain.ForecastResult{
		"P1": {ProductID: "P1", AvgDailyDemand: 2},
		"P2": nil,
	}
	invoices := []domain.Invoice{
		paidInvoice("I1", "2025-08-01", domain.InvoiceItem{ProductID: "P2", Quantity: 5}),
	}

	entries := Project(testProducts(), invoices, fc, domain.Selection{ProductID: domain.AllProducts}, testNow)

	require.Len(t, entries, 24)
	assert.Equal(t, 60, entries[0].PredictedSales)

	// The failed product on its own degrades to historical extrapolation.
	own := Project(testProducts(), invoices, fc, domain.Selection{ProductID: "P2"}, testNow)
	for _, e := range own {
		assert.False(t, e.UsingAI)
	}
}

func TestClassifyBootstrapThreshold(t *testing.T) {
	tests := []struct {
		name         string
		predicted    float64
		month        int
		wantFlag     bool
		wantPriority domain.RestockPriority
	}{
		{"above threshold", 150, 3, true, domain.PriorityMedium},
		{"at threshold", 100, 3, false, domain.PriorityLow},
		{"double threshold", 201, 3, true, domain.PriorityHigh},
		{"december at threshold", 100, 12, true, domain.PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag, priority := classifyBootstrap(tt.predicted, tt.month)
			assert.Equal(t, tt.wantFlag, flag)
			assert.Equal(t, tt.wantPriority, priority)
		})
	}
}

func TestClassifyDecemberBias(t *testing.T) {
	mean := 80.0

	// December at exactly the mean is still recommended.
	flag, priority := classify(mean, mean, 12)
	assert.True(t, flag)
	assert.Equal(t, domain.PriorityMedium, priority)

	// Any other month at the mean is not.
	flag, priority = classify(mean, mean, 6)
	assert.False(t, flag)
	assert.Equal(t, domain.PriorityLow, priority)
}

func TestClassifyPriorityMonotonic(t *testing.T) {
	mean := 100.0
	month := 5 // fixed non-December month so only magnitude varies

	prev := domain.PriorityLow.Rank()
	for _, predicted := range []float64{10, 100, 151, 180, 201, 400} {
		_, priority := classify(predicted, mean, month)
		assert.GreaterOrEqual(t, priority.Rank(), prev,
			"priority must not decrease as predicted sales grow (predicted=%v)", predicted)
		prev = priority.Rank()
	}
}

func TestProjectGlobalPassSupersedesRunningMean(t *testing.T) {
	// One huge November dwarfs the rest of the series. Under the global
	// mean it must be flagged high while ordinary months stay low.
	invoices := []domain.Invoice{
		paidInvoice("I1", "2024-11-05", domain.InvoiceItem{ProductID: "P1", Quantity: 1000}),
		paidInvoice("I2", "2024-10-05", domain.InvoiceItem{ProductID: "P1", Quantity: 10}),
		paidInvoice("I3", "2025-03-05", domain.InvoiceItem{ProductID: "P1", Quantity: 10}),
	}

	entries := Project(testProducts(), invoices, nil, domain.Selection{ProductID: "P1"}, testNow)

	require.Len(t, entries, 24)

	var sum float64
	for _, e := range entries {
		sum += float64(e.PredictedSales)
	}
	globalMean := sum / float64(len(entries))

	for _, e := range entries {
		if float64(e.PredictedSales) > globalMean*2 {
			assert.Equal(t, domain.PriorityHigh, e.Priority, "entry %s", e.Period)
			assert.True(t, e.RestockRecommended)
		}
		if e.PredictedSales == 0 {
			assert.Equal(t, domain.PriorityLow, e.Priority)
			assert.False(t, e.RestockRecommended)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, daysInMonth(2025, 1))
	assert.Equal(t, 28, daysInMonth(2025, 2))
	assert.Equal(t, 29, daysInMonth(2024, 2))
	assert.Equal(t, 30, daysInMonth(2025, 9))
}

func TestRoundNonNegative(t *testing.T) {
	assert.Equal(t, 2, roundNonNegative(1.5))
	assert.Equal(t, 1, roundNonNegative(1.4))
	assert.Equal(t, 0, roundNonNegative(-3.2))
	assert.Equal(t, 0, roundNonNegative(math.NaN()))
	assert.Equal(t, 0, roundNonNegative(math.Inf(1)))
}
