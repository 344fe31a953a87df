package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"storefront-backend/services"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	productListCachePrefix = "products:v:"
	cacheVersionKey        = "products:version"

	defaultCacheTTL = 10 * time.Minute
)

// CacheManager caches the product list in Redis. Invalidation bumps a version
// key instead of deleting entries, so stale lists simply age out.
type CacheManager struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCacheManager(redis *redis.Client, logger *zap.Logger) *CacheManager {
	return &CacheManager{redis: redis, ttl: defaultCacheTTL, logger: logger}
}

func (cm *CacheManager) GetProductList(ctx context.Context) ([]services.ProductView, bool) {
	version, err := cm.getCacheVersion(ctx)
	if err != nil || version == 0 {
		return nil, false
	}

	cached, err := cm.redis.Get(ctx, cm.listKey(version)).Result()
	if err != nil {
		return nil, false
	}

	var products []services.ProductView
	if err := json.Unmarshal([]byte(cached), &products); err != nil {
		cm.logger.Warn("Failed to unmarshal cached product list", zap.Error(err))
		return nil, false
	}
	return products, true
}

// SetProductListAsync writes the list to the cache off the request path.
func (cm *CacheManager) SetProductListAsync(products []services.ProductView) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		version, err := cm.getCacheVersion(ctx)
		if err != nil || version == 0 {
			return
		}

		data, err := json.Marshal(products)
		if err != nil {
			cm.logger.Warn("Failed to marshal product list for cache", zap.Error(err))
			return
		}
		if err := cm.redis.Set(ctx, cm.listKey(version), data, cm.ttl).Err(); err != nil {
			cm.logger.Warn("Failed to cache product list", zap.Error(err))
		}
	}()
}

// Invalidate bumps the cache version so every cached list becomes unreachable.
func (cm *CacheManager) Invalidate(ctx context.Context) {
	if err := cm.redis.Incr(ctx, cacheVersionKey).Err(); err != nil {
		cm.logger.Warn("Failed to bump product cache version", zap.Error(err))
	}
}

func (cm *CacheManager) getCacheVersion(ctx context.Context) (int64, error) {
	val, err := cm.redis.Get(ctx, cacheVersionKey).Result()
	if err == redis.Nil {
		if err := cm.redis.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (cm *CacheManager) listKey(version int64) string {
	return fmt.Sprintf("%s%d", productListCachePrefix, version)
}
