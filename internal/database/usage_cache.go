package database

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	usageCachePrefix = "kaiac:usage:sub:"
	usageCacheTTL    = 5 * time.Minute // Cache usage snapshots for 5 minutes
)

// CachedUsage contains the latest storage usage snapshot for a subscription
type CachedUsage struct {
	SubscriptionID    uint      `json:"subscription_id"`
	UsedStorageMB     int64     `json:"used_storage_mb"`
	IncludedStorageMB int64     `json:"included_storage_mb"`
	ThresholdExceeded bool      `json:"threshold_exceeded"`
	MeasuredAt        time.Time `json:"measured_at"`
}

// UsageCache caches the latest StorageUsageRecord per subscription in Redis
type UsageCache struct {
	rdb *redis.Client
}

func NewUsageCache(rdb *redis.Client) *UsageCache {
	return &UsageCache{rdb: rdb}
}

func (c *UsageCache) key(subscriptionID uint) string {
	return usageCachePrefix + strconv.FormatUint(uint64(subscriptionID), 10)
}

// Get retrieves a cached usage snapshot or returns nil on miss
func (c *UsageCache) Get(subscriptionID uint) *CachedUsage {
	if c == nil || c.rdb == nil {
		return nil
	}

	ctx := context.Background()
	data, err := c.rdb.Get(ctx, c.key(subscriptionID)).Bytes()
	if err != nil {
		return nil // Cache miss
	}

	var usage CachedUsage
	if err := json.Unmarshal(data, &usage); err != nil {
		return nil
	}

	return &usage
}

// Set stores a usage snapshot in the cache
func (c *UsageCache) Set(usage *CachedUsage) {
	if c == nil || c.rdb == nil || usage == nil {
		return
	}

	data, err := json.Marshal(usage)
	if err != nil {
		log.Printf("Failed to marshal usage snapshot for cache: %v", err)
		return
	}

	ctx := context.Background()
	c.rdb.Set(ctx, c.key(usage.SubscriptionID), data, usageCacheTTL)
}

// Invalidate removes a subscription's snapshot (call after appending a new record)
func (c *UsageCache) Invalidate(subscriptionID uint) {
	if c == nil || c.rdb == nil {
		return
	}

	ctx := context.Background()
	c.rdb.Del(ctx, c.key(subscriptionID))
}
