package cache

import (
	"context"
	"testing"
	"time"

	"careplus/internal/common/logger"
	"careplus/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestSummaryCache_SetGetInvalidate(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewSummaryCache(client, 30*time.Second, logger.NewTestLogger(t))
	ctx := context.Background()

	_, ok := c.Get(ctx)
	assert.False(t, ok)

	avg := 105.5
	c.Set(ctx, models.Summary{TotalPatients: 3, AvgGlucose: &avg, TotalAlerts: 2}, c.Generation(ctx))
	assert.True(t, mr.Exists(SummaryKey))
	assert.Equal(t, 30*time.Second, mr.TTL(SummaryKey))

	got, ok := c.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, 3, got.TotalPatients)
	require.NotNil(t, got.AvgGlucose)
	assert.Equal(t, 105.5, *got.AvgGlucose)

	c.Invalidate(ctx)
	assert.False(t, mr.Exists(SummaryKey))
	_, ok = c.Get(ctx)
	assert.False(t, ok)
}

func TestSummaryCache_InvalidateBumpsGeneration(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewSummaryCache(client, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	assert.Equal(t, int64(0), c.Generation(ctx))
	c.Invalidate(ctx)
	c.Invalidate(ctx)
	assert.Equal(t, int64(2), c.Generation(ctx))

	got, err := mr.Get(GenerationKey)
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestSummaryCache_SetSkippedAfterConcurrentInvalidate(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewSummaryCache(client, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	gen := c.Generation(ctx)
	c.Invalidate(ctx)
	c.Set(ctx, models.Summary{TotalPatients: 1}, gen)

	assert.False(t, mr.Exists(SummaryKey))
	_, ok := c.Get(ctx)
	assert.False(t, ok)

	c.Set(ctx, models.Summary{TotalPatients: 2}, c.Generation(ctx))
	got, ok := c.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, 2, got.TotalPatients)
}

func TestSummaryCache_ExpiresAfterTTL(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewSummaryCache(client, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	c.Set(ctx, models.Summary{TotalPatients: 1}, c.Generation(ctx))
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx)
	assert.False(t, ok)
}

func TestSummaryCache_CorruptEntryIsMiss(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewSummaryCache(client, time.Minute, logger.NewTestLogger(t))

	require.NoError(t, mr.Set(SummaryKey, "not json"))
	_, ok := c.Get(context.Background())
	assert.False(t, ok)
}

func TestSummaryCache_RedisDownIsBypassed(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewSummaryCache(client, time.Minute, logger.NewTestLogger(t))
	mr.Close()

	ctx := context.Background()
	assert.NotPanics(t, func() {
		c.Set(ctx, models.Summary{TotalPatients: 1}, c.Generation(ctx))
		c.Invalidate(ctx)
	})
	_, ok := c.Get(ctx)
	assert.False(t, ok)
}

func TestSummaryCache_Disabled(t *testing.T) {
	var nilCache *SummaryCache
	_, ok := nilCache.Get(context.Background())
	assert.False(t, ok)
	assert.Zero(t, nilCache.Generation(context.Background()))
	nilCache.Set(context.Background(), models.Summary{}, 0)
	nilCache.Invalidate(context.Background())

	c := NewSummaryCache(nil, time.Minute, logger.NewNoOpLogger())
	_, ok = c.Get(context.Background())
	assert.False(t, ok)
}
