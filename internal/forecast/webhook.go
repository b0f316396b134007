package forecast

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Invalidator drops any cached insight responses. Satisfied by the
// insights cache.
type Invalidator interface {
	InvalidateAll(ctx context.Context) error
}

// WebhookHandler receives notifications from the forecaster's training
// pipeline. When a model is retrained, cached projections computed from
// the old model are stale and get flushed.
type WebhookHandler struct {
	invalidator Invalidator
}

func NewWebhookHandler(invalidator Invalidator) *WebhookHandler {
	return &WebhookHandler{invalidator: invalidator}
}

func (h *WebhookHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/internal/forecast/retrained", h.Retrained).Methods("POST")
}

type retrainedPayload struct {
	ModelVersion string `json:"model_version,omitempty"`
	Products     int    `json:"products,omitempty"`
}

func (h *WebhookHandler) Retrained(w http.ResponseWriter, r *http.Request) {
	var payload retrainedPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if h.invalidator != nil {
		if err := h.invalidator.InvalidateAll(r.Context()); err != nil {
			log.Warn().Err(err).Msg("forecast retrain: cache invalidation failed")
			http.Error(w, "cache invalidation failed", http.StatusInternalServerError)
			return
		}
	}

	log.Info().
		Str("model_version", payload.ModelVersion).
		Int("products", payload.Products).
		Msg("forecast model retrained, insight cache flushed")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// NewWebhookServer wires the handler into a standalone listener for
// deployments that keep the internal surface off the public port.
func NewWebhookServer(addr string, invalidator Invalidator) *http.Server {
	router := mux.NewRouter()
	NewWebhookHandler(invalidator).RegisterRoutes(router)

	return &http.Server{Addr: addr, Handler: router}
}
