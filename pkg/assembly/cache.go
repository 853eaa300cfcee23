package assembly

import (
	"context"
	"time"

	"github.com/easyops/shardctx-go/pkg/core/shard"
	"github.com/easyops/shardctx-go/pkg/otel"
	"github.com/easyops/shardctx-go/pkg/store"
)

// Cache 装配缓存。
//
// 纯记忆层，没有任何权威性：缓存后端不可用时读路径降级为
// 永远未命中，写路径静默放弃，调用本身不失败。命中前校验
// TTL 与每个参与来源的版本标记，任何不一致按未命中处理并
// 触发重新装配（惰性失效）。
type Cache struct {
	store    store.CacheStore
	entities store.EntityStore
	ttl      time.Duration
	logger   otel.Logger
	metrics  otel.Metrics
}

// NewCache 创建装配缓存。cacheStore 为 nil 时缓存整体禁用。
func NewCache(cacheStore store.CacheStore, entities store.EntityStore, config *Config) *Cache {
	if config == nil {
		config = DefaultConfig()
	}
	return &Cache{
		store:    cacheStore,
		entities: entities,
		ttl:      config.CacheTTL,
		logger:   config.GetLogger(),
		metrics:  config.GetMetrics(),
	}
}

// Enabled 返回缓存是否启用。
func (c *Cache) Enabled() bool {
	return c.store != nil
}

// Lookup 按指纹查找有效条目。
//
// 返回条目的深拷贝，调用方改写不影响缓存内容。
func (c *Cache) Lookup(ctx context.Context, tenantID, fingerprint string) (*shard.AssembledContext, bool) {
	if !c.Enabled() {
		return nil, false
	}

	entry, err := c.store.Get(ctx, tenantID, fingerprint)
	if err == store.ErrNotFound {
		c.metrics.Counter(otel.MetricCacheMisses).Add(ctx, 1)
		return nil, false
	}
	if err != nil {
		// 后端故障降级为未命中
		c.logger.WithContext(ctx).Warn("cache read failed, treating as miss",
			"fingerprint", fingerprint, "error", err)
		c.metrics.Counter(otel.MetricCacheErrors).Add(ctx, 1)
		return nil, false
	}

	if entry.Expired(time.Now()) {
		c.metrics.Counter(otel.MetricCacheMisses).Add(ctx, 1)
		return nil, false
	}

	if !c.versionsValid(ctx, tenantID, entry) {
		c.metrics.Counter(otel.MetricCacheStale).Add(ctx, 1)
		return nil, false
	}

	c.metrics.Counter(otel.MetricCacheHits).Add(ctx, 1)
	return entry.Context.Clone(), true
}

// versionsValid 校验条目记录的来源版本与当前版本一致。
func (c *Cache) versionsValid(ctx context.Context, tenantID string, entry *shard.CacheEntry) bool {
	if len(entry.SourceVersions) == 0 {
		return true
	}

	ids := make([]string, 0, len(entry.SourceVersions))
	for id := range entry.SourceVersions {
		ids = append(ids, id)
	}

	current, err := c.entities.GetVersions(ctx, tenantID, ids)
	if err != nil {
		// 无法校验时宁可重算，不返回可能陈旧的内容
		c.logger.WithContext(ctx).Warn("version check failed, treating as miss",
			"fingerprint", entry.Fingerprint, "error", err)
		return false
	}

	for id, recorded := range entry.SourceVersions {
		if current[id] != recorded {
			return false
		}
	}
	return true
}

// Store 写入条目。后端故障只记日志，不影响调用方。
//
// 同指纹的并发写入为后写覆盖：条目由独立计算得出且一经
// 写入不再修改，重复计算只是以等价值覆盖。
func (c *Cache) Store(ctx context.Context, entry *shard.CacheEntry) {
	if !c.Enabled() {
		return
	}

	entry.CreatedAt = time.Now()
	if c.ttl > 0 {
		entry.ExpiresAt = entry.CreatedAt.Add(c.ttl)
	}

	if err := c.store.Put(ctx, entry); err != nil {
		c.logger.WithContext(ctx).Warn("cache write failed, result not cached",
			"fingerprint", entry.Fingerprint, "error", err)
		c.metrics.Counter(otel.MetricCacheErrors).Add(ctx, 1)
	}
}

// Invalidate 失效根分片或任一来源为指定分片的全部条目。
//
// 幂等，过度失效可接受；后端故障只记日志，绝不让调用方失败。
func (c *Cache) Invalidate(ctx context.Context, tenantID, entityID string) {
	if !c.Enabled() {
		return
	}

	c.metrics.Counter(otel.MetricCacheInvalidations).Add(ctx, 1)
	if err := c.store.DeleteByEntity(ctx, tenantID, entityID); err != nil {
		c.logger.WithContext(ctx).Warn("cache invalidation failed",
			"tenant_id", tenantID, "entity_id", entityID, "error", err)
		c.metrics.Counter(otel.MetricCacheErrors).Add(ctx, 1)
	}
}
