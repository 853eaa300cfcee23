package store

import (
	"context"
	"testing"
	"time"

	"github.com/easyops/shardctx-go/pkg/core/shard"
)

// ============================================================================
// Entity Store Tests
// ============================================================================

func TestNewMemoryEntityStore(t *testing.T) {
	store := NewMemoryEntityStore()
	if store == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestMemoryEntityStore_PutGet(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()

	sh := &shard.Shard{
		ID:       "opp-1",
		TenantID: "acme",
		TypeID:   "opportunity",
		Name:     "Big Deal",
		Data:     map[string]any{"stage": "negotiation", "amount": "120000"},
	}

	if err := store.PutShard(ctx, sh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sh.Version != 1 {
		t.Errorf("expected version 1 after first put, got %d", sh.Version)
	}

	retrieved, err := store.GetEntity(ctx, "acme", "opp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retrieved.Name != "Big Deal" {
		t.Errorf("expected name 'Big Deal', got %s", retrieved.Name)
	}
	if retrieved.Data["stage"] != "negotiation" {
		t.Errorf("expected stage 'negotiation', got %v", retrieved.Data["stage"])
	}
}

func TestMemoryEntityStore_VersionIncrement(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()

	sh := &shard.Shard{ID: "opp-1", TenantID: "acme", TypeID: "opportunity"}
	_ = store.PutShard(ctx, sh)
	_ = store.PutShard(ctx, sh)
	_ = store.PutShard(ctx, sh)

	retrieved, err := store.GetEntity(ctx, "acme", "opp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retrieved.Version != 3 {
		t.Errorf("expected version 3 after three puts, got %d", retrieved.Version)
	}
}

func TestMemoryEntityStore_GetNotFound(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()

	_, err := store.GetEntity(ctx, "acme", "nonexistent")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryEntityStore_TenantIsolation(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()

	_ = store.PutShard(ctx, &shard.Shard{ID: "opp-1", TenantID: "acme", TypeID: "opportunity"})

	_, err := store.GetEntity(ctx, "globex", "opp-1")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound across tenants, got %v", err)
	}
}

func TestMemoryEntityStore_Delete(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()

	_ = store.PutShard(ctx, &shard.Shard{ID: "opp-1", TenantID: "acme", TypeID: "opportunity"})

	if err := store.DeleteShard(ctx, "acme", "opp-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := store.GetEntity(ctx, "acme", "opp-1")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete")
	}

	if err := store.DeleteShard(ctx, "acme", "opp-1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryEntityStore_GetEntitiesByRelationship(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()

	_ = store.PutShard(ctx, &shard.Shard{ID: "c-1", TenantID: "acme", TypeID: "contact", Name: "Ada"})
	_ = store.PutShard(ctx, &shard.Shard{ID: "c-2", TenantID: "acme", TypeID: "contact", Name: "Grace"})
	_ = store.PutShard(ctx, &shard.Shard{
		ID: "opp-1", TenantID: "acme", TypeID: "opportunity",
		Relationships: []shard.Relationship{
			{Type: "contacts", TargetID: "c-1"},
			{Type: "contacts", TargetID: "c-9"}, // 悬空
			{Type: "contacts", TargetID: "c-2"},
			{Type: "account", TargetID: "a-1"},
		},
	})

	summaries, err := store.GetEntitiesByRelationship(ctx, "acme", "opp-1", "contacts", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].ID != "c-1" || summaries[1].ID != "c-2" {
		t.Errorf("expected declaration order [c-1 c-2], got [%s %s]", summaries[0].ID, summaries[1].ID)
	}
}

func TestMemoryEntityStore_GetEntitiesByRelationshipLimit(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()

	rels := make([]shard.Relationship, 0, 5)
	for _, id := range []string{"c-1", "c-2", "c-3", "c-4", "c-5"} {
		_ = store.PutShard(ctx, &shard.Shard{ID: id, TenantID: "acme", TypeID: "contact"})
		rels = append(rels, shard.Relationship{Type: "contacts", TargetID: id})
	}
	_ = store.PutShard(ctx, &shard.Shard{ID: "opp-1", TenantID: "acme", TypeID: "opportunity", Relationships: rels})

	summaries, err := store.GetEntitiesByRelationship(ctx, "acme", "opp-1", "contacts", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 3 {
		t.Errorf("expected 3 summaries, got %d", len(summaries))
	}
}

func TestMemoryEntityStore_GetEntitiesByRelationshipRootMissing(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()

	_, err := store.GetEntitiesByRelationship(ctx, "acme", "nonexistent", "contacts", 0)
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryEntityStore_GetVersions(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()

	_ = store.PutShard(ctx, &shard.Shard{ID: "opp-1", TenantID: "acme", TypeID: "opportunity"})
	sh := &shard.Shard{ID: "c-1", TenantID: "acme", TypeID: "contact"}
	_ = store.PutShard(ctx, sh)
	_ = store.PutShard(ctx, sh)

	versions, err := store.GetVersions(ctx, "acme", []string{"opp-1", "c-1", "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	if versions["opp-1"] != 1 {
		t.Errorf("expected opp-1 version 1, got %d", versions["opp-1"])
	}
	if versions["c-1"] != 2 {
		t.Errorf("expected c-1 version 2, got %d", versions["c-1"])
	}
	if _, ok := versions["missing"]; ok {
		t.Error("expected missing id to be omitted")
	}
}

func TestMemoryEntityStore_MutationHook(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()

	var notified []string
	store.SetMutationHook(func(tenantID, entityID string) {
		notified = append(notified, tenantID+"/"+entityID)
	})

	_ = store.PutShard(ctx, &shard.Shard{ID: "opp-1", TenantID: "acme", TypeID: "opportunity"})
	_ = store.DeleteShard(ctx, "acme", "opp-1")

	if len(notified) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notified))
	}
	if notified[0] != "acme/opp-1" || notified[1] != "acme/opp-1" {
		t.Errorf("unexpected notifications: %v", notified)
	}
}

func TestMemoryEntityStore_GetReturnsClone(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()

	_ = store.PutShard(ctx, &shard.Shard{
		ID: "opp-1", TenantID: "acme", TypeID: "opportunity",
		Data: map[string]any{"stage": "open"},
	})

	first, _ := store.GetEntity(ctx, "acme", "opp-1")
	first.Data["stage"] = "mutated"

	second, _ := store.GetEntity(ctx, "acme", "opp-1")
	if second.Data["stage"] != "open" {
		t.Error("expected stored shard to be unaffected by caller mutation")
	}
}

// ============================================================================
// Template Store Tests
// ============================================================================

func TestMemoryTemplateStore_CRUD(t *testing.T) {
	store := NewMemoryTemplateStore()
	ctx := context.Background()

	tmpl := &shard.Template{
		ID:       "tpl-1",
		TenantID: "acme",
		Name:     "sales-brief",
		Category: "sales",
		Rules:    []shard.GatherRule{{RelationshipType: "contacts", Weight: 0.8}},
	}

	if err := store.CreateTemplate(ctx, tmpl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.CreateTemplate(ctx, tmpl); err != ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	retrieved, err := store.GetTemplateByID(ctx, "acme", "tpl-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retrieved.Name != "sales-brief" {
		t.Errorf("expected name 'sales-brief', got %s", retrieved.Name)
	}

	retrieved.Name = "renamed"
	if err := store.UpdateTemplate(ctx, retrieved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated, _ := store.GetTemplateByID(ctx, "acme", "tpl-1")
	if updated.Name != "renamed" {
		t.Errorf("expected updated name 'renamed', got %s", updated.Name)
	}

	if err := store.DeleteTemplate(ctx, "acme", "tpl-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetTemplateByID(ctx, "acme", "tpl-1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.UpdateTemplate(ctx, tmpl); err != ErrNotFound {
		t.Errorf("expected ErrNotFound updating deleted template, got %v", err)
	}
}

func TestMemoryTemplateStore_FilterAndOrder(t *testing.T) {
	store := NewMemoryTemplateStore()
	ctx := context.Background()

	_ = store.CreateTemplate(ctx, &shard.Template{
		ID: "tpl-1", TenantID: "acme", Name: "a", Category: "sales",
		ShardTypes: []string{"opportunity"},
	})
	_ = store.CreateTemplate(ctx, &shard.Template{
		ID: "tpl-2", TenantID: "acme", Name: "b", Category: "support",
		ShardTypes: []string{"ticket"},
	})
	_ = store.CreateTemplate(ctx, &shard.Template{
		ID: "tpl-3", TenantID: "acme", Name: "c", Category: "sales",
	})

	all, err := store.GetTenantTemplates(ctx, "acme", TemplateFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(all))
	}
	if all[0].ID != "tpl-1" || all[2].ID != "tpl-3" {
		t.Error("expected templates in creation order")
	}

	sales, _ := store.GetTenantTemplates(ctx, "acme", TemplateFilter{Category: "sales"})
	if len(sales) != 2 {
		t.Errorf("expected 2 sales templates, got %d", len(sales))
	}

	// tpl-3 没有类型约束，适用于任意类型
	forOpp, _ := store.GetTenantTemplates(ctx, "acme", TemplateFilter{ShardType: "opportunity"})
	if len(forOpp) != 2 {
		t.Errorf("expected 2 templates applying to opportunity, got %d", len(forOpp))
	}
}

// ============================================================================
// Cache Store Tests
// ============================================================================

func TestMemoryCacheStore_PutGet(t *testing.T) {
	store := NewMemoryCacheStore()
	ctx := context.Background()

	entry := &shard.CacheEntry{
		Fingerprint: "fp-1",
		TenantID:    "acme",
		EntityID:    "opp-1",
		TemplateID:  "tpl-1",
		Context: &shard.AssembledContext{
			EntityID: "opp-1",
			TenantID: "acme",
		},
		CreatedAt:      time.Now(),
		SourceVersions: map[string]int64{"opp-1": 1, "c-1": 2},
	}

	if err := store.Put(ctx, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	retrieved, err := store.Get(ctx, "acme", "fp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retrieved.EntityID != "opp-1" {
		t.Errorf("expected entity 'opp-1', got %s", retrieved.EntityID)
	}

	if _, err := store.Get(ctx, "acme", "fp-missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(ctx, "globex", "fp-1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound across tenants, got %v", err)
	}
}

func TestMemoryCacheStore_DeleteByEntity(t *testing.T) {
	store := NewMemoryCacheStore()
	ctx := context.Background()

	// fp-1 根分片为 opp-1；fp-2 以 c-1 为来源；fp-3 与两者无关
	_ = store.Put(ctx, &shard.CacheEntry{
		Fingerprint: "fp-1", TenantID: "acme", EntityID: "opp-1",
		SourceVersions: map[string]int64{"opp-1": 1},
	})
	_ = store.Put(ctx, &shard.CacheEntry{
		Fingerprint: "fp-2", TenantID: "acme", EntityID: "opp-2",
		SourceVersions: map[string]int64{"opp-2": 1, "c-1": 3},
	})
	_ = store.Put(ctx, &shard.CacheEntry{
		Fingerprint: "fp-3", TenantID: "acme", EntityID: "opp-3",
		SourceVersions: map[string]int64{"opp-3": 1},
	})

	if err := store.DeleteByEntity(ctx, "acme", "opp-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "acme", "fp-1"); err != ErrNotFound {
		t.Error("expected root-entity entry to be deleted")
	}

	if err := store.DeleteByEntity(ctx, "acme", "c-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "acme", "fp-2"); err != ErrNotFound {
		t.Error("expected source-entity entry to be deleted")
	}
	if _, err := store.Get(ctx, "acme", "fp-3"); err != nil {
		t.Error("expected unrelated entry to survive")
	}

	// 幂等：不存在的实体不报错
	if err := store.DeleteByEntity(ctx, "acme", "never-seen"); err != nil {
		t.Errorf("expected idempotent delete, got %v", err)
	}
}
