package forecast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientForecastSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"product_id": 42,
			"forecast": {
				"forecast_demand": [2.5, 3.0, 1.5],
				"avg_daily_demand": 2.33,
				"max_daily_demand": 6,
				"confidence_score": 85,
				"method": "ARIMA"
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	result, err := client.Forecast(context.Background(), "42")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "42", result.ProductID)
	assert.Equal(t, []float64{2.5, 3.0, 1.5}, result.DailyDemand)
	assert.Equal(t, 2.33, result.AvgDailyDemand)
	assert.Equal(t, 85.0, result.Confidence)
	assert.Equal(t, "ARIMA", result.Method)
}

func TestClientForecastNoModel(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"unsuccessful", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": false, "error": "Insufficient data for ARIMA forecast", "product_id": 42}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(srv.URL, time.Second)
			result, err := client.Forecast(context.Background(), "42")

			assert.NoError(t, err)
			assert.Nil(t, result)
		})
	}
}

func TestClientForecastServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	result, err := client.Forecast(context.Background(), "42")

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestClientForecastTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 20*time.Millisecond)
	result, err := client.Forecast(context.Background(), "42")

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "predictions.json")
	payload := `[
		{
			"success": true,
			"product_id": 7,
			"forecast": {"avg_daily_demand": 4.2, "confidence_score": 70, "method": "weighted_average"}
		},
		{
			"success": false,
			"product_id": 8,
			"error": "Insufficient data for ARIMA forecast"
		}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	provider, err := NewFileProvider(path)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.Len())

	result, err := provider.Forecast(context.Background(), "7")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 4.2, result.AvgDailyDemand)

	missing, err := provider.Forecast(context.Background(), "8")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUnavailableProvider(t *testing.T) {
	result, err := Unavailable{}.Forecast(context.Background(), "anything")
	assert.NoError(t, err)
	assert.Nil(t, result)
}
