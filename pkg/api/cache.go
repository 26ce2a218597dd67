package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opsconductor/core/pkg/models"
)

// searchKey identifies one /api/selector/search query.
type searchKey struct {
	query    string
	platform string
	k        int
}

// redisKey derives the shared cache key from (query_hash, platform_filter)
// spec §4.6 names, with k folded in since a wider k widens the candidate
// set the same query would otherwise hit in the cache.
func (sk searchKey) redisKey() string {
	sum := sha256.Sum256([]byte(sk.query))
	return fmt.Sprintf("opsconductor:selector:cache:%s:%s:%d", hex.EncodeToString(sum[:8]), sk.platform, sk.k)
}

// searchCacheIndexKey is a sorted set of every live cache key, scored by
// insertion time, so maxEntries can be enforced across the whole Redis
// deployment rather than per replica.
const searchCacheIndexKey = "opsconductor:selector:cache:index"

// searchCache is a small bounded TTL cache in front of the tool index
// store's lexical/vector search, giving /api/selector/search the
// from_cache signal and cold-key detection spec §6 describes. It is
// backed by Redis (spec §4.6) so the TTL/max-entries bound and the
// from_cache signal are consistent across every replica of the API
// server, not just the one that happened to serve the first request.
type searchCache struct {
	client     *redis.Client
	ttl        time.Duration
	maxEntries int
}

func newSearchCache(client *redis.Client, ttl time.Duration, maxEntries int) *searchCache {
	return &searchCache{client: client, ttl: ttl, maxEntries: maxEntries}
}

// get returns the cached candidates for key and whether they were found
// and still fresh. Any Redis error is treated as a cache miss: the cache
// is an optimization, never the source of truth for candidates.
func (c *searchCache) get(ctx context.Context, key searchKey) ([]models.MinimalRow, bool) {
	raw, err := c.client.Get(ctx, key.redisKey()).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("selector cache get failed", "error", err)
		}
		return nil, false
	}

	var candidates []models.MinimalRow
	if err := json.Unmarshal(raw, &candidates); err != nil {
		slog.Warn("selector cache entry corrupt", "error", err)
		return nil, false
	}
	return candidates, true
}

// put stores candidates for key with the configured TTL, then trims the
// oldest entries past maxEntries. Failures are logged and swallowed: a
// cache write that doesn't land just means the next request recomputes.
func (c *searchCache) put(ctx context.Context, key searchKey, candidates []models.MinimalRow) {
	raw, err := json.Marshal(candidates)
	if err != nil {
		slog.Warn("selector cache entry not serializable", "error", err)
		return
	}

	rk := key.redisKey()
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, rk, raw, c.ttl)
	pipe.ZAdd(ctx, searchCacheIndexKey, redis.Z{Score: float64(time.Now().UnixNano()), Member: rk})
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("selector cache put failed", "error", err)
		return
	}

	c.evictOverflow(ctx)
}

// evictOverflow drops the oldest index entries once the cache holds more
// than maxEntries keys, keeping the fleet-wide bound SELECTOR_CACHE_MAX_
// ENTRIES describes rather than letting Redis grow unbounded between TTL
// expirations.
func (c *searchCache) evictOverflow(ctx context.Context) {
	if c.maxEntries <= 0 {
		return
	}

	count, err := c.client.ZCard(ctx, searchCacheIndexKey).Result()
	if err != nil || int(count) <= c.maxEntries {
		return
	}

	excess := int(count) - c.maxEntries
	oldest, err := c.client.ZRange(ctx, searchCacheIndexKey, 0, int64(excess-1)).Result()
	if err != nil || len(oldest) == 0 {
		return
	}

	members := make([]interface{}, len(oldest))
	keys := make([]string, len(oldest))
	for i, k := range oldest {
		members[i] = k
		keys[i] = k
	}

	pipe := c.client.TxPipeline()
	pipe.ZRem(ctx, searchCacheIndexKey, members...)
	pipe.Del(ctx, keys...)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("selector cache eviction failed", "error", err)
	}
}

// len reports the current entry count, for the selector_cache_entries gauge.
func (c *searchCache) len(ctx context.Context) int {
	count, err := c.client.ZCard(ctx, searchCacheIndexKey).Result()
	if err != nil {
		return 0
	}
	return int(count)
}
