// Package cache keeps the dashboard summary in Redis between mutations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	apperrors "careplus/internal/common/errors"
	"careplus/internal/common/logger"
	"careplus/internal/common/metrics"
	"careplus/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	SummaryKey = "careplus:dashboard:summary"
	// GenerationKey counts invalidations; a Set only lands if it is unchanged.
	GenerationKey = "careplus:dashboard:summary:gen"
)

var setIfCurrent = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// SummaryCache is optional: Redis failures are logged and treated as misses.
// A nil client disables it entirely.
type SummaryCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewSummaryCache(client redis.Cmdable, ttl time.Duration, log logger.Logger) *SummaryCache {
	return &SummaryCache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "cache"}),
	}
}

// Get returns the cached summary, or false on a miss.
func (c *SummaryCache) Get(ctx context.Context) (models.Summary, bool) {
	if c == nil || c.client == nil {
		return models.Summary{}, false
	}

	raw, err := c.client.Get(ctx, SummaryKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			stdErr := apperrors.NewCacheUnavailableError(err)
			c.logger.Warn("summary cache read failed", map[string]interface{}{
				"errorCode": string(stdErr.Code),
				"details":   stdErr.Details,
			})
			metrics.CacheLookups.WithLabelValues("error").Inc()
			return models.Summary{}, false
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return models.Summary{}, false
	}

	var s models.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		c.logger.Warn("summary cache entry is corrupt", map[string]interface{}{"error": err})
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return models.Summary{}, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return s, true
}

// Generation returns the invalidation counter to pass to Set. It is read
// before computing the summary. -1 means Redis is unreachable.
func (c *SummaryCache) Generation(ctx context.Context) int64 {
	if c == nil || c.client == nil {
		return 0
	}
	gen, err := c.client.Get(ctx, GenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		c.logger.Warn("summary cache generation read failed", map[string]interface{}{"error": err})
		return -1
	}
	return gen
}

// Set stores s unless an invalidation happened after gen was read.
func (c *SummaryCache) Set(ctx context.Context, s models.Summary, gen int64) {
	if c == nil || c.client == nil || gen < 0 {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	stored, err := setIfCurrent.Run(ctx, c.client,
		[]string{SummaryKey, GenerationKey},
		strconv.FormatInt(gen, 10), raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.logger.Warn("summary cache write failed", map[string]interface{}{"error": err})
		return
	}
	if stored == 0 {
		c.logger.Debug("summary cache write skipped, invalidated meanwhile", map[string]interface{}{"generation": gen})
	}
}

// Invalidate drops the cached summary after a mutation and bumps the
// generation so in-flight reads do not store a stale value.
func (c *SummaryCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey)
		pipe.Del(ctx, SummaryKey)
		return nil
	})
	if err != nil {
		c.logger.Warn("summary cache invalidation failed", map[string]interface{}{"error": err})
	}
}
