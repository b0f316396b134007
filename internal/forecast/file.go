package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/motorstock/insights-backend/internal/domain"
)

// FileProvider serves forecasts from a batch predictions JSON file, the
// output of the forecaster's all-products batch run. Used by the CLI
// and by deployments that precompute predictions offline.
type FileProvider struct {
	results map[string]*domain.ForecastResult
}

// NewFileProvider loads the batch predictions file. Entries marked
// unsuccessful are skipped rather than rejected; a product absent from
// the file is simply unavailable.
func NewFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read predictions file: %w", err)
	}

	var entries []predictionResponse
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse predictions file %s: %w", path, err)
	}

	results := make(map[string]*domain.ForecastResult, len(entries))
	for i := range entries {
		id := entries[i].ProductID.String()
		if id == "" {
			continue
		}

		if result := entries[i].toResult(id); result != nil {
			results[id] = result
		}
	}

	return &FileProvider{results: results}, nil
}

func (p *FileProvider) Forecast(_ context.Context, productID string) (*domain.ForecastResult, error) {
	return p.results[productID], nil
}

// Len reports how many products have usable predictions loaded.
func (p *FileProvider) Len() int {
	return len(p.results)
}
