// internal/forecast/provider.go
package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/motorstock/insights-backend/internal/domain"
)

// Provider looks up demand forecasts for single products. A (nil, nil)
// return means the forecaster has no usable model for the product;
// callers fall back to historical extrapolation either way.
type Provider interface {
	Forecast(ctx context.Context, productID string) (*domain.ForecastResult, error)
}

// Unavailable always reports no forecast. Used when no forecaster is
// configured.
type Unavailable struct{}

func (Unavailable) Forecast(context.Context, string) (*domain.ForecastResult, error) {
	return nil, nil
}

// predictionResponse mirrors the forecaster service's JSON envelope.
// product_id is numeric in the legacy dataset, so it is decoded loosely.
type predictionResponse struct {
	Success   bool        `json:"success"`
	ProductID json.Number `json:"product_id"`
	Forecast  *struct {
		ForecastDemand []float64 `json:"forecast_demand"`
		AvgDailyDemand float64   `json:"avg_daily_demand"`
		MaxDailyDemand float64   `json:"max_daily_demand"`
		Confidence     float64   `json:"confidence_score"`
		Method         string    `json:"method"`
		ShortTerm      []float64 `json:"short_term_monthly"`
	} `json:"forecast"`
	Error string `json:"error,omitempty"`
}

func (r *predictionResponse) toResult(productID string) *domain.ForecastResult {
	if !r.Success || r.Forecast == nil {
		return nil
	}

	return &domain.ForecastResult{
		ProductID:      productID,
		DailyDemand:    r.Forecast.ForecastDemand,
		AvgDailyDemand: r.Forecast.AvgDailyDemand,
		MaxDailyDemand: r.Forecast.MaxDailyDemand,
		Confidence:     r.Forecast.Confidence,
		Method:         r.Forecast.Method,
		ShortTerm:      r.Forecast.ShortTerm,
	}
}

// Client calls the external ARIMA forecasting service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client with a bounded per-lookup timeout. A lookup
// that exceeds the timeout is treated as unavailable, not fatal.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Forecast(ctx context.Context, productID string) (*domain.ForecastResult, error) {
	endpoint := fmt.Sprintf("%s/predict/%s", c.baseURL, url.PathEscape(productID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast lookup for %s: %w", productID, err)
	}
	defer resp.Body.Close()

	// 404 means no trained model for this product.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast lookup for %s: unexpected status %d", productID, resp.StatusCode)
	}

	var decoded predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode forecast response for %s: %w", productID, err)
	}

	return decoded.toResult(productID), nil
}
