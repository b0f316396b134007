package insights

import (
	"sort"
	"time"

	"github.com/motorstock/insights-backend/internal/domain"
)

const (
	// projectionMonths is the fixed forward horizon of a projection.
	projectionMonths = 24

	// forecastHorizonMonths bounds how far the daily forecast array is
	// trusted; beyond it the engine falls back to other methods.
	forecastHorizonMonths = 12

	// forecastDaysPerMonth is the fixed day-window approximation used to
	// map a month offset into the daily forecast array. Known to drift
	// for non-30-day months; kept so results match the forecaster's
	// documented contract.
	forecastDaysPerMonth = 30

	// bootstrapThreshold judges the first month of a projection, before
	// any running mean exists.
	bootstrapThreshold = 100.0

	// historyYears is the lookback used by historical extrapolation.
	historyYears = 2

	// shortTermMonths bounds the short-horizon backup series.
	shortTermMonths = 6
)

// Project builds the 24-month restock projection for one product or the
// aggregate of all products, starting at now's month.
//
// Each month's predicted demand comes from the first usable method in
// order: the forecaster's daily-demand array (first 12 months only, 30
// day windows clamped to array bounds), the forecaster's average daily
// demand scaled by calendar days, historical same-calendar-month sales
// averaged over the trailing two years, then the forecaster's short
// horizon backup series for months under six. Recommendations are
// computed twice: a provisional pass against the running mean of the
// entries so far (seeded by a fixed 100-unit threshold for the first
// entry), then an authoritative pass against the mean of the complete
// series. The two passes use different denominators on purpose; early
// months have no stable lookback until the full series is known.
//
// Empty products or invoices yield an empty projection, never an error.
func Project(
	products []domain.Product,
	invoices []domain.Invoice,
	forecasts map[string]*domain.ForecastResult,
	sel domain.Selection,
	now time.Time,
) []domain.RestockEntry {
	if len(products) == 0 || len(invoices) == 0 {
		return []domain.RestockEntry{}
	}

	fc := selectForecast(forecasts, sel)
	hist := buildMonthlyHistory(invoices, sel, now)

	entries := make([]domain.RestockEntry, 0, projectionMonths)

	var runningSum float64

	for m := 0; m < projectionMonths; m++ {
		monthIndex := int(now.Month()) - 1 + m
		yearOffset := monthIndex / 12
		month := monthIndex%12 + 1
		year := now.Year() + yearOffset

		// Months before the current one never belong to the first
		// projected year.
		if yearOffset == 0 && month < int(now.Month()) {
			continue
		}

		predicted, usingAI := predictMonth(fc, hist, m, year, month)

		var (
			recommended bool
			priority    domain.RestockPriority
		)
		if len(entries) == 0 {
			// No running mean exists yet; judge the first entry against
			// the absolute bootstrap threshold.
			recommended, priority = classifyBootstrap(float64(predicted), month)
		} else {
			mean := runningSum / float64(len(entries))
			recommended, priority = classify(float64(predicted), mean, month)
		}

		entries = append(entries, domain.RestockEntry{
			Period:             monthLabel(year, month),
			Month:              month,
			Year:               year,
			PredictedSales:     predicted,
			RestockRecommended: recommended,
			Priority:           priority,
			IsPredicted:        true,
			UsingAI:            usingAI,
		})

		runningSum += float64(predicted)
	}

	// Authoritative pass: recompute every verdict against the global
	// mean of the full series.
	if len(entries) > 0 {
		globalMean := runningSum / float64(len(entries))
		for i := range entries {
			entries[i].RestockRecommended, entries[i].Priority =
				classify(float64(entries[i].PredictedSales), globalMean, entries[i].Month)
		}
	}

	return entries
}

// classify applies the recommendation policy for one entry against a
// mean. December gets an easier, inclusive threshold to account for
// seasonal demand.
func classify(predicted, mean float64, month int) (bool, domain.RestockPriority) {
	december := month == 12

	recommended := predicted > mean*1.5 || (december && predicted >= mean)

	switch {
	case predicted > mean*2:
		return true, domain.PriorityHigh
	case recommended:
		return true, domain.PriorityMedium
	default:
		return false, domain.PriorityLow
	}
}

// classifyBootstrap judges a projection's first entry, where no mean is
// defined, against the fixed bootstrap threshold.
func classifyBootstrap(predicted float64, month int) (bool, domain.RestockPriority) {
	december := month == 12

	recommended := predicted > bootstrapThreshold || (december && predicted >= bootstrapThreshold)

	switch {
	case predicted > bootstrapThreshold*2:
		return true, domain.PriorityHigh
	case recommended:
		return true, domain.PriorityMedium
	default:
		return false, domain.PriorityLow
	}
}

// predictMonth resolves one month's demand through the method chain.
func predictMonth(fc *domain.ForecastResult, hist monthlyHistory, m, year, month int) (int, bool) {
	// Daily forecast array, first year only.
	if fc != nil && len(fc.DailyDemand) > 0 && m < forecastHorizonMonths {
		start := m * forecastDaysPerMonth
		end := start + daysInMonth(year, month)

		if start < len(fc.DailyDemand) {
			if end > len(fc.DailyDemand) {
				end = len(fc.DailyDemand)
			}

			var sum float64
			for _, d := range fc.DailyDemand[start:end] {
				sum += d
			}

			return roundNonNegative(sum), true
		}
	}

	// Average daily demand scaled by calendar days.
	if fc != nil && fc.AvgDailyDemand > 0 {
		return roundNonNegative(fc.AvgDailyDemand * float64(daysInMonth(year, month))), true
	}

	// Historical extrapolation over the trailing two years.
	if years := hist.years[month]; years > 0 {
		return roundNonNegative(hist.totals[month] / float64(years)), false
	}

	// Short-horizon backup series for near months.
	if fc != nil && m < shortTermMonths && m < len(fc.ShortTerm) {
		return roundNonNegative(fc.ShortTerm[m]), true
	}

	return 0, false
}

// monthlyHistory holds realized unit sales keyed by calendar month
// (1-12) together with the number of qualifying years observed.
type monthlyHistory struct {
	totals map[int]float64
	years  map[int]int
}

// buildMonthlyHistory sums Paid invoice quantities by calendar month
// over the trailing two years, honoring the product selection.
func buildMonthlyHistory(invoices []domain.Invoice, sel domain.Selection, now time.Time) monthlyHistory {
	hist := monthlyHistory{
		totals: make(map[int]float64, 12),
		years:  make(map[int]int, 12),
	}

	cutoff := now.AddDate(-historyYears, 0, 0)
	seenYears := make(map[[2]int]struct{})

	for _, inv := range invoices {
		if !domain.IsPaid(inv.Status) {
			continue
		}

		date, ok := parseInvoiceDate(inv.Date)
		if !ok || date.Before(cutoff) || date.After(now) {
			continue
		}

		month := int(date.Month())

		var qty float64
		for _, item := range inv.Items {
			if !sel.IsAll() && itemProductRef(item) != sel.ProductID {
				continue
			}

			if q := coerceQuantity(item.Quantity); q > 0 {
				qty += q
			}
		}

		if qty <= 0 {
			continue
		}

		hist.totals[month] += qty

		key := [2]int{month, date.Year()}
		if _, seen := seenYears[key]; !seen {
			seenYears[key] = struct{}{}
			hist.years[month]++
		}
	}

	return hist
}

// selectForecast picks the forecast for a single-product selection or
// combines the per-product forecasts for an aggregate one. Aggregation
// sums the daily arrays element-wise; products that only reported an
// average contribute through the summed scalar instead. Products are
// combined in sorted ID order: float addition is order-sensitive, and
// the projection must be byte-identical across calls.
func selectForecast(forecasts map[string]*domain.ForecastResult, sel domain.Selection) *domain.ForecastResult {
	if len(forecasts) == 0 {
		return nil
	}

	if !sel.IsAll() {
		return forecasts[sel.ProductID]
	}

	ids := make([]string, 0, len(forecasts))
	for id := range forecasts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	combined := &domain.ForecastResult{ProductID: domain.AllProducts}
	any := false

	for _, id := range ids {
		fc := forecasts[id]
		if fc == nil {
			continue
		}
		any = true

		for len(combined.DailyDemand) < len(fc.DailyDemand) {
			combined.DailyDemand = append(combined.DailyDemand, 0)
		}
		for i, d := range fc.DailyDemand {
			combined.DailyDemand[i] += d
		}

		combined.AvgDailyDemand += fc.AvgDailyDemand
		if fc.MaxDailyDemand > combined.MaxDailyDemand {
			combined.MaxDailyDemand = fc.MaxDailyDemand
		}

		for len(combined.ShortTerm) < len(fc.ShortTerm) {
			combined.ShortTerm = append(combined.ShortTerm, 0)
		}
		for i, v := range fc.ShortTerm {
			combined.ShortTerm[i] += v
		}
	}

	if !any {
		return nil
	}

	return combined
}
