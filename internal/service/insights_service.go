package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/motorstock/insights-backend/internal/cache"
	"github.com/motorstock/insights-backend/internal/domain"
	"github.com/motorstock/insights-backend/internal/forecast"
	"github.com/motorstock/insights-backend/internal/insights"
	"github.com/motorstock/insights-backend/internal/repository"
)

const defaultForecastConcurrency = 8

// InsightsService computes restock projections, sales history and
// dashboard metrics on demand. Nothing is persisted; the optional cache
// stores whole responses under a TTL.
type InsightsService struct {
	repo          repository.InventoryRepository
	provider      forecast.Provider
	cache         cache.InsightsCache
	maxConcurrent int
	now           func() time.Time
}

func NewInsightsService(repo repository.InventoryRepository, provider forecast.Provider, cacheImpl cache.InsightsCache) *InsightsService {
	if provider == nil {
		provider = forecast.Unavailable{}
	}
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopInsightsCache()
	}

	return &InsightsService{
		repo:          repo,
		provider:      provider,
		cache:         cacheImpl,
		maxConcurrent: defaultForecastConcurrency,
		now:           time.Now,
	}
}

// WithClock overrides the time source. Used by tests to pin the
// projection window.
func (s *InsightsService) WithClock(now func() time.Time) *InsightsService {
	s.now = now
	return s
}

// WithForecastConcurrency bounds the forecast fan-out.
func (s *InsightsService) WithForecastConcurrency(n int) *InsightsService {
	if n > 0 {
		s.maxConcurrent = n
	}
	return s
}

// Restock produces the 24-month restock projection for the selection.
func (s *InsightsService) Restock(ctx context.Context, sel domain.Selection) ([]domain.RestockEntry, error) {
	if entries, ok, err := s.cache.GetRestock(ctx, sel); err == nil && ok {
		return entries, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("insights: cache get restock failed")
	}

	now := s.now()

	products, invoices, err := s.loadInventory(ctx, now)
	if err != nil {
		return nil, err
	}

	forecasts := s.fetchForecasts(ctx, products, sel)

	entries := insights.Project(products, invoices, forecasts, sel, now)

	if err := s.cache.SetRestock(ctx, sel, entries); err != nil {
		log.Warn().Err(err).Msg("insights: cache set restock failed")
	}

	return entries, nil
}

// Metrics produces the dashboard counters for the selection and period.
func (s *InsightsService) Metrics(ctx context.Context, sel domain.Selection, period domain.Period) (*domain.SalesMetrics, error) {
	if metrics, ok, err := s.cache.GetMetrics(ctx, sel, period); err == nil && ok {
		return metrics, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("insights: cache get metrics failed")
	}

	products, err := s.repo.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	invoices, err := s.repo.GetInvoices(ctx, repository.InvoiceFilter{FromYear: period.Year})
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}

	metrics := insights.Summarize(products, invoices, sel, period)

	if err := s.cache.SetMetrics(ctx, sel, period, &metrics); err != nil {
		log.Warn().Err(err).Msg("insights: cache set metrics failed")
	}

	return &metrics, nil
}

// SalesHistory returns the trailing six-month unit sales buckets.
func (s *InsightsService) SalesHistory(ctx context.Context, productID string) ([]domain.MonthlyBucket, error) {
	now := s.now()

	invoices, err := s.repo.GetInvoices(ctx, repository.InvoiceFilter{FromYear: now.Year() - 1})
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}

	return insights.Aggregate(invoices, productID, now), nil
}

func (s *InsightsService) loadInventory(ctx context.Context, now time.Time) ([]domain.Product, []domain.Invoice, error) {
	products, err := s.repo.GetProducts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load products: %w", err)
	}

	// Projections look back two calendar years at most.
	invoices, err := s.repo.GetInvoices(ctx, repository.InvoiceFilter{FromYear: now.Year() - 2})
	if err != nil {
		return nil, nil, fmt.Errorf("load invoices: %w", err)
	}

	return products, invoices, nil
}

// fetchForecasts issues one forecast lookup per relevant product and
// waits for all of them to settle. Individual failures never abort the
// batch; a failed lookup leaves its product without a forecast so the
// projection falls back to historical extrapolation for it.
func (s *InsightsService) fetchForecasts(ctx context.Context, products []domain.Product, sel domain.Selection) map[string]*domain.ForecastResult {
	var ids []string
	if sel.IsAll() {
		ids = make([]string, 0, len(products))
		for _, p := range products {
			ids = append(ids, p.ID)
		}
	} else {
		ids = []string{sel.ProductID}
	}

	results := make(map[string]*domain.ForecastResult, len(ids))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for _, id := range ids {
		g.Go(func() error {
			result, err := s.provider.Forecast(gctx, id)
			if err != nil {
				log.Warn().Err(err).Str("product_id", id).Msg("insights: forecast lookup failed, using historical fallback")
				return nil
			}

			if result != nil {
				mu.Lock()
				results[id] = result
				mu.Unlock()
			}

			return nil
		})
	}

	// Goroutines never return errors; Wait only joins them.
	_ = g.Wait()

	return results
}
