package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/motorstock/insights-backend/internal/config"
	"github.com/motorstock/insights-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	insightKeyPrefix     = "insights:"
	restockKeyPrefix     = insightKeyPrefix + "restock"
	metricsKeyPrefix     = insightKeyPrefix + "metrics"
	insightScanBatchSize = 100

	defaultInsightTTL = time.Minute
	connectTimeout    = 5 * time.Second
)

// InsightsCache stores computed projections and metrics keyed by their
// request parameters. The core itself never caches; this layer lives
// above it and is flushed whenever the forecast model is retrained.
type InsightsCache interface {
	GetRestock(ctx context.Context, sel domain.Selection) ([]domain.RestockEntry, bool, error)
	SetRestock(ctx context.Context, sel domain.Selection, entries []domain.RestockEntry) error
	GetMetrics(ctx context.Context, sel domain.Selection, period domain.Period) (*domain.SalesMetrics, bool, error)
	SetMetrics(ctx context.Context, sel domain.Selection, period domain.Period, metrics *domain.SalesMetrics) error
	InvalidateAll(ctx context.Context) error
}

type redisInsightsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopInsightsCache struct{}

func NewInsightsCache(cfg config.CacheConfig) (InsightsCache, error) {
	if !cfg.Enabled {
		return &noopInsightsCache{}, nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(cfg.InsightTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultInsightTTL
	}

	return &redisInsightsCache{client: client, ttl: ttl}, nil
}

// redisOptions resolves the connection either from a full redis:// URL
// or from discrete host/port fields, URL winning when both are set.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func NewNoopInsightsCache() InsightsCache {
	return &noopInsightsCache{}
}

func (c *redisInsightsCache) GetRestock(ctx context.Context, sel domain.Selection) ([]domain.RestockEntry, bool, error) {
	var entries []domain.RestockEntry
	ok, err := c.get(ctx, restockKey(sel), &entries)
	return entries, ok, err
}

func (c *redisInsightsCache) SetRestock(ctx context.Context, sel domain.Selection, entries []domain.RestockEntry) error {
	return c.set(ctx, restockKey(sel), entries)
}

func (c *redisInsightsCache) GetMetrics(ctx context.Context, sel domain.Selection, period domain.Period) (*domain.SalesMetrics, bool, error) {
	var metrics domain.SalesMetrics
	ok, err := c.get(ctx, metricsKey(sel, period), &metrics)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &metrics, true, nil
}

func (c *redisInsightsCache) SetMetrics(ctx context.Context, sel domain.Selection, period domain.Period, metrics *domain.SalesMetrics) error {
	return c.set(ctx, metricsKey(sel, period), metrics)
}

// InvalidateAll walks the insight keyspace with SCAN and deletes in
// batches; a single KEYS call would block the server on large caches.
func (c *redisInsightsCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64

	for {
		keys, next, err := c.client.Scan(ctx, cursor, insightKeyPrefix+"*", insightScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del failed: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *redisInsightsCache) get(ctx context.Context, key string, out any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("decode insight cache entry %s: %w", key, err)
	}

	return true, nil
}

func (c *redisInsightsCache) set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode insight cache entry %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func restockKey(sel domain.Selection) string {
	return restockKeyPrefix + ":" + hashKey(sel.ProductID)
}

func metricsKey(sel domain.Selection, period domain.Period) string {
	return metricsKeyPrefix + ":" + hashKey(fmt.Sprintf("%s|%d|%d", sel.ProductID, period.Year, period.Month))
}

func hashKey(raw string) string {
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (noopInsightsCache) GetRestock(context.Context, domain.Selection) ([]domain.RestockEntry, bool, error) {
	return nil, false, nil
}

func (noopInsightsCache) SetRestock(context.Context, domain.Selection, []domain.RestockEntry) error {
	return nil
}

func (noopInsightsCache) GetMetrics(context.Context, domain.Selection, domain.Period) (*domain.SalesMetrics, bool, error) {
	return nil, false, nil
}

func (noopInsightsCache) SetMetrics(context.Context, domain.Selection, domain.Period, *domain.SalesMetrics) error {
	return nil
}

func (noopInsightsCache) InvalidateAll(context.Context) error {
	return nil
}
