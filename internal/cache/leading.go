// Package cache holds the Redis-backed read cache for leading bid amounts.
// The engine remains the source of truth; the cache only serves the public
// festival browse pages, which are read far more often than bids arrive.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// LeadingCache caches the current leading amount per (auction, option).
// A nil Redis client disables the cache entirely: every accessor falls
// through to the engine, so the service runs unchanged without Redis.
type LeadingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewLeadingCache wraps rdb, which may be nil. Entries expire after ttl as
// a safety net; writes through SetLeading keep them fresh in practice.
func NewLeadingCache(rdb *redis.Client, ttl time.Duration) *LeadingCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &LeadingCache{rdb: rdb, ttl: ttl}
}

func leadingKey(auctionID uint64, optionKey string) string {
	return fmt.Sprintf("leading:%d:%s", auctionID, optionKey)
}

// GetLeading returns the cached leading amount and true on a hit. A miss,
// a disabled cache or any Redis error all report false so the caller reads
// the engine instead.
func (lc *LeadingCache) GetLeading(ctx context.Context, auctionID uint64, optionKey string) (int64, bool) {
	if lc == nil || lc.rdb == nil {
		return 0, false
	}
	val, err := lc.rdb.Get(ctx, leadingKey(auctionID, optionKey)).Result()
	if err != nil {
		return 0, false
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetLeading writes through after an accepted bid. Errors are ignored: the
// entry expires anyway and the engine stays authoritative.
func (lc *LeadingCache) SetLeading(ctx context.Context, auctionID uint64, optionKey string, amount int64) {
	if lc == nil || lc.rdb == nil {
		return
	}
	_ = lc.rdb.Set(ctx, leadingKey(auctionID, optionKey), strconv.FormatInt(amount, 10), lc.ttl).Err()
}

// Invalidate drops the cached amounts for the given options, used after a
// withdrawal or settlement where recomputing the leading amount inline is
// not worth it.
func (lc *LeadingCache) Invalidate(ctx context.Context, auctionID uint64, optionKeys ...string) {
	if lc == nil || lc.rdb == nil || len(optionKeys) == 0 {
		return
	}
	keys := make([]string, 0, len(optionKeys))
	for _, k := range optionKeys {
		keys = append(keys, leadingKey(auctionID, k))
	}
	_ = lc.rdb.Del(ctx, keys...).Err()
}
