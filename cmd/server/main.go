package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/motorstock/insights-backend/internal/api"
	"github.com/motorstock/insights-backend/internal/cache"
	"github.com/motorstock/insights-backend/internal/config"
	"github.com/motorstock/insights-backend/internal/forecast"
	"github.com/motorstock/insights-backend/internal/repository/postgres"
	"github.com/motorstock/insights-backend/internal/service"
	"github.com/motorstock/insights-backend/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	insightsCache, err := cache.NewInsightsCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, continuing without it")
		insightsCache = cache.NewNoopInsightsCache()
	}

	var provider forecast.Provider = forecast.Unavailable{}
	if cfg.Forecast.BaseURL != "" {
		provider = forecast.NewClient(cfg.Forecast.BaseURL, cfg.Forecast.Timeout)
	} else {
		logger.Log.Info().Msg("No forecast service configured, projections use historical extrapolation only")
	}

	repo := postgres.NewInventoryRepository(db)
	insightsService := service.NewInsightsService(repo, provider, insightsCache).
		WithForecastConcurrency(cfg.Forecast.MaxConcurrent)

	router := api.NewRouter(&api.Services{InsightsService: insightsService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Optional webhook listener for forecaster retrain notifications.
	var webhookSrv *http.Server
	if cfg.Server.WebhookPort != "" {
		webhookSrv = forecast.NewWebhookServer(":"+cfg.Server.WebhookPort, insightsCache)
		go func() {
			logger.Log.Info().Str("port", cfg.Server.WebhookPort).Msg("Starting retrain webhook listener")
			if err := webhookSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Log.Fatal().Err(err).Msg("Failed to start webhook listener")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if webhookSrv != nil {
		if err := webhookSrv.Shutdown(ctx); err != nil {
			logger.Log.Warn().Err(err).Msg("Webhook listener forced to shutdown")
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
