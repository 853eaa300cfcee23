package assembly

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/easyops/shardctx-go/pkg/core/shard"
	"github.com/easyops/shardctx-go/pkg/store"
)

// brokenCacheStore 所有操作都失败的缓存后端。
type brokenCacheStore struct{}

func (s *brokenCacheStore) Get(ctx context.Context, tenantID, fingerprint string) (*shard.CacheEntry, error) {
	return nil, errors.New("cache backend down")
}

func (s *brokenCacheStore) Put(ctx context.Context, entry *shard.CacheEntry) error {
	return errors.New("cache backend down")
}

func (s *brokenCacheStore) DeleteByEntity(ctx context.Context, tenantID, entityID string) error {
	return errors.New("cache backend down")
}

func (s *brokenCacheStore) Close() error { return nil }

func testEntry(fingerprint string) *shard.CacheEntry {
	return &shard.CacheEntry{
		Fingerprint: fingerprint,
		TenantID:    "acme",
		EntityID:    "opp-1",
		TemplateID:  "tpl-1",
		Context: &shard.AssembledContext{
			EntityID:   "opp-1",
			TenantID:   "acme",
			TemplateID: "tpl-1",
			Fragments: []shard.Fragment{
				{EntityID: "c1", RelationshipType: "contacts", Content: "name: Alice", TokenCount: 3},
			},
		},
	}
}

func TestCache_Disabled(t *testing.T) {
	c := NewCache(nil, store.NewMemoryEntityStore(), DefaultConfig())

	if c.Enabled() {
		t.Error("expected cache to be disabled without a backend")
	}
	if _, ok := c.Lookup(context.Background(), "acme", "fp"); ok {
		t.Error("expected miss from disabled cache")
	}
	// 禁用状态下写入与失效均为空操作，不得崩溃
	c.Store(context.Background(), testEntry("fp"))
	c.Invalidate(context.Background(), "acme", "opp-1")
}

func TestCache_StoreAndLookup(t *testing.T) {
	es := store.NewMemoryEntityStore()
	c := NewCache(store.NewMemoryCacheStore(), es, DefaultConfig())
	ctx := context.Background()

	c.Store(ctx, testEntry("fp-1"))

	got, ok := c.Lookup(ctx, "acme", "fp-1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.EntityID != "opp-1" || len(got.Fragments) != 1 {
		t.Errorf("unexpected cached context: %+v", got)
	}

	// 返回的是副本：改写不影响后续命中
	got.Fragments[0].Content = "mutated"
	again, ok := c.Lookup(ctx, "acme", "fp-1")
	if !ok {
		t.Fatal("expected second hit")
	}
	if again.Fragments[0].Content != "name: Alice" {
		t.Error("expected cached content to be isolated from callers")
	}
}

func TestCache_MissUnknownFingerprint(t *testing.T) {
	c := NewCache(store.NewMemoryCacheStore(), store.NewMemoryEntityStore(), DefaultConfig())

	if _, ok := c.Lookup(context.Background(), "acme", "unknown"); ok {
		t.Error("expected miss for unknown fingerprint")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	cs := store.NewMemoryCacheStore()
	c := NewCache(cs, store.NewMemoryEntityStore(), DefaultConfig())
	ctx := context.Background()

	// 直接写入一条已过期的条目
	entry := testEntry("fp-old")
	entry.CreatedAt = time.Now().Add(-time.Hour)
	entry.ExpiresAt = time.Now().Add(-time.Minute)
	if err := cs.Put(ctx, entry); err != nil {
		t.Fatalf("failed to put entry: %v", err)
	}

	if _, ok := c.Lookup(ctx, "acme", "fp-old"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestCache_VersionInvalidation(t *testing.T) {
	es := store.NewMemoryEntityStore()
	c := NewCache(store.NewMemoryCacheStore(), es, DefaultConfig())
	ctx := context.Background()

	root := seedShard(t, es, "opp-1", "opportunity")

	entry := testEntry("fp-v")
	entry.SourceVersions = map[string]int64{"opp-1": root.Version}
	c.Store(ctx, entry)

	if _, ok := c.Lookup(ctx, "acme", "fp-v"); !ok {
		t.Fatal("expected hit while versions match")
	}

	// 根分片更新后版本号递增，旧条目按未命中处理
	seedShard(t, es, "opp-1", "opportunity")
	if _, ok := c.Lookup(ctx, "acme", "fp-v"); ok {
		t.Error("expected miss after source version changed")
	}
}

func TestCache_DeletedSourceInvalidates(t *testing.T) {
	es := store.NewMemoryEntityStore()
	c := NewCache(store.NewMemoryCacheStore(), es, DefaultConfig())
	ctx := context.Background()

	contact := seedShard(t, es, "c1", "contact")

	entry := testEntry("fp-d")
	entry.SourceVersions = map[string]int64{"c1": contact.Version}
	c.Store(ctx, entry)

	if err := es.DeleteShard(ctx, "acme", "c1"); err != nil {
		t.Fatalf("failed to delete shard: %v", err)
	}

	// 被删来源在版本查询中缺席，条目失效
	if _, ok := c.Lookup(ctx, "acme", "fp-d"); ok {
		t.Error("expected miss after a source was deleted")
	}
}

func TestCache_BackendFailureDegrades(t *testing.T) {
	c := NewCache(&brokenCacheStore{}, store.NewMemoryEntityStore(), DefaultConfig())
	ctx := context.Background()

	// 读失败降级为未命中
	if _, ok := c.Lookup(ctx, "acme", "fp"); ok {
		t.Error("expected miss when backend read fails")
	}

	// 写失败与失效失败均不得传播
	c.Store(ctx, testEntry("fp"))
	c.Invalidate(ctx, "acme", "opp-1")
}

func TestCache_Invalidate(t *testing.T) {
	cs := store.NewMemoryCacheStore()
	c := NewCache(cs, store.NewMemoryEntityStore(), DefaultConfig())
	ctx := context.Background()

	c.Store(ctx, testEntry("fp-1"))
	c.Invalidate(ctx, "acme", "opp-1")

	if _, ok := c.Lookup(ctx, "acme", "fp-1"); ok {
		t.Error("expected entry to be gone after invalidation")
	}

	// 幂等：重复失效同样成功
	c.Invalidate(ctx, "acme", "opp-1")
}

func TestCache_TenantIsolation(t *testing.T) {
	c := NewCache(store.NewMemoryCacheStore(), store.NewMemoryEntityStore(), DefaultConfig())
	ctx := context.Background()

	c.Store(ctx, testEntry("fp-1"))

	if _, ok := c.Lookup(ctx, "globex", "fp-1"); ok {
		t.Error("expected miss for another tenant")
	}
}
