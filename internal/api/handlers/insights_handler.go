package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/motorstock/insights-backend/internal/domain"
	"github.com/motorstock/insights-backend/internal/service"
)

type InsightsHandler struct {
	service *service.InsightsService
}

func NewInsightsHandler(service *service.InsightsService) *InsightsHandler {
	return &InsightsHandler{service: service}
}

func (h *InsightsHandler) parseSelection(c *gin.Context) domain.Selection {
	productID := strings.TrimSpace(c.DefaultQuery("product_id", domain.AllProducts))
	if productID == "" {
		productID = domain.AllProducts
	}
	return domain.Selection{ProductID: productID}
}

func (h *InsightsHandler) parsePeriod(c *gin.Context) (domain.Period, bool) {
	period := domain.Period{Year: time.Now().UTC().Year()}

	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 2000 || year > 2200 {
			return period, false
		}
		period.Year = year
	}

	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil || month < 1 || month > 12 {
			return period, false
		}
		period.Month = month
	}

	return period, true
}

func (h *InsightsHandler) GetRestock(c *gin.Context) {
	sel := h.parseSelection(c)

	entries, err := h.service.Restock(c.Request.Context(), sel)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data unavailable", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": sel.ProductID,
		"items":      entries,
	})
}

func (h *InsightsHandler) GetMetrics(c *gin.Context) {
	sel := h.parseSelection(c)

	period, ok := h.parsePeriod(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year or month"})
		return
	}

	metrics, err := h.service.Metrics(c.Request.Context(), sel, period)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data unavailable", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, metrics)
}

func (h *InsightsHandler) GetSales(c *gin.Context) {
	sel := h.parseSelection(c)

	buckets, err := h.service.SalesHistory(c.Request.Context(), sel.ProductID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data unavailable", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": sel.ProductID,
		"months":     buckets,
	})
}
