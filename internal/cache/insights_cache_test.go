package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorstock/insights-backend/internal/config"
	"github.com/motorstock/insights-backend/internal/domain"
)

func TestRedisOptionsFromURL(t *testing.T) {
	opts, err := redisOptions(config.CacheConfig{
		RedisURL: "redis://:secret@cache.internal:6380/2",
		// Discrete fields must lose to the URL.
		RedisHost: "ignored",
		RedisPort: "1",
	})
	require.NoError(t, err)

	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestRedisOptionsFromHostPort(t *testing.T) {
	opts, err := redisOptions(config.CacheConfig{
		RedisHost:     "10.0.0.5",
		RedisPort:     "6390",
		RedisPassword: "pw",
		RedisDB:       1,
	})
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5:6390", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 1, opts.DB)
}

func TestRedisOptionsDefaults(t *testing.T) {
	opts, err := redisOptions(config.CacheConfig{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)
}

func TestRedisOptionsRejectsBadURL(t *testing.T) {
	_, err := redisOptions(config.CacheConfig{RedisURL: "://not-a-url"})
	require.Error(t, err)
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewInsightsCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	sel := domain.Selection{ProductID: domain.AllProducts}

	entries, ok, err := c.GetRestock(ctx, sel)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, entries)

	require.NoError(t, c.SetRestock(ctx, sel, []domain.RestockEntry{{Month: 1}}))
	require.NoError(t, c.InvalidateAll(ctx))
}

func TestCacheKeysDistinguishRequests(t *testing.T) {
	all := restockKey(domain.Selection{ProductID: domain.AllProducts})
	single := restockKey(domain.Selection{ProductID: "p1"})
	assert.NotEqual(t, all, single)

	year := metricsKey(domain.Selection{ProductID: "p1"}, domain.Period{Year: 2025})
	month := metricsKey(domain.Selection{ProductID: "p1"}, domain.Period{Year: 2025, Month: 8})
	assert.NotEqual(t, year, month)

	// Same request always hashes to the same key.
	assert.Equal(t, single, restockKey(domain.Selection{ProductID: "p1"}))
}
