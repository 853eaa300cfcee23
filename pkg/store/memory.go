package store

import (
	"context"
	"sync"
	"time"

	"github.com/easyops/shardctx-go/pkg/core/shard"
)

// ============================================================================
// Memory Entity Store
// ============================================================================

// MemoryEntityStore 内存实体存储
//
// 基于 map 的简单实现，适用于测试和轻量级场景。
type MemoryEntityStore struct {
	tenants map[string]map[string]*shard.Shard
	hook    MutationHook
	mu      sync.RWMutex
}

// NewMemoryEntityStore 创建内存实体存储
func NewMemoryEntityStore() *MemoryEntityStore {
	return &MemoryEntityStore{
		tenants: make(map[string]map[string]*shard.Shard),
	}
}

// PutShard 写入或更新分片，递增版本号
func (s *MemoryEntityStore) PutShard(ctx context.Context, sh *shard.Shard) error {
	if sh == nil || sh.ID == "" || sh.TenantID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	if s.tenants[sh.TenantID] == nil {
		s.tenants[sh.TenantID] = make(map[string]*shard.Shard)
	}

	stored := sh.Clone()
	now := time.Now()
	if prev, exists := s.tenants[sh.TenantID][sh.ID]; exists {
		stored.Version = prev.Version + 1
		stored.CreatedAt = prev.CreatedAt
	} else {
		stored.Version = 1
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	sh.Version = stored.Version

	s.tenants[sh.TenantID][sh.ID] = stored
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		hook(sh.TenantID, sh.ID)
	}
	return nil
}

// DeleteShard 删除分片
func (s *MemoryEntityStore) DeleteShard(ctx context.Context, tenantID, id string) error {
	s.mu.Lock()
	shards := s.tenants[tenantID]
	if shards == nil {
		s.mu.Unlock()
		return ErrNotFound
	}
	if _, exists := shards[id]; !exists {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(shards, id)
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		hook(tenantID, id)
	}
	return nil
}

// SetMutationHook 注册变更钩子
func (s *MemoryEntityStore) SetMutationHook(hook MutationHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// GetEntity 获取完整分片
func (s *MemoryEntityStore) GetEntity(ctx context.Context, tenantID, id string) (*shard.Shard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shards := s.tenants[tenantID]
	if shards == nil {
		return nil, ErrNotFound
	}

	sh, exists := shards[id]
	if !exists {
		return nil, ErrNotFound
	}

	return sh.Clone(), nil
}

// GetEntitiesByRelationship 按关系类型获取根分片的关联摘要
func (s *MemoryEntityStore) GetEntitiesByRelationship(ctx context.Context, tenantID, rootID, relType string, limit int) ([]*shard.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shards := s.tenants[tenantID]
	if shards == nil {
		return nil, ErrNotFound
	}

	root, exists := shards[rootID]
	if !exists {
		return nil, ErrNotFound
	}

	var summaries []*shard.Summary
	for _, targetID := range root.RelationTargets(relType) {
		if limit > 0 && len(summaries) >= limit {
			break
		}
		target, exists := shards[targetID]
		if !exists {
			// 悬空关系：目标已删除，跳过
			continue
		}
		summaries = append(summaries, shard.SummaryOf(target))
	}

	return summaries, nil
}

// GetVersions 批量获取分片的当前版本标记
func (s *MemoryEntityStore) GetVersions(ctx context.Context, tenantID string, ids []string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := make(map[string]int64, len(ids))
	shards := s.tenants[tenantID]
	if shards == nil {
		return versions, nil
	}

	for _, id := range ids {
		if sh, exists := shards[id]; exists {
			versions[id] = sh.Version
		}
	}

	return versions, nil
}

// Close 关闭连接（内存实现为空操作）
func (s *MemoryEntityStore) Close() error {
	return nil
}

// ============================================================================
// Memory Template Store
// ============================================================================

// MemoryTemplateStore 内存模板存储
type MemoryTemplateStore struct {
	// templates 按租户保存，保持创建顺序以保证列表确定性
	templates map[string][]*shard.Template
	mu        sync.RWMutex
}

// NewMemoryTemplateStore 创建内存模板存储
func NewMemoryTemplateStore() *MemoryTemplateStore {
	return &MemoryTemplateStore{
		templates: make(map[string][]*shard.Template),
	}
}

// GetTenantTemplates 按条件列出租户模板
func (s *MemoryTemplateStore) GetTenantTemplates(ctx context.Context, tenantID string, filter TemplateFilter) ([]*shard.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*shard.Template
	for _, t := range s.templates[tenantID] {
		if filter.Matches(t) {
			result = append(result, t.Clone())
		}
	}
	return result, nil
}

// GetTemplateByID 按 ID 获取租户模板
func (s *MemoryTemplateStore) GetTemplateByID(ctx context.Context, tenantID, id string) (*shard.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.templates[tenantID] {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// CreateTemplate 创建租户模板
func (s *MemoryTemplateStore) CreateTemplate(ctx context.Context, t *shard.Template) error {
	if t == nil || t.ID == "" || t.TenantID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.templates[t.TenantID] {
		if existing.ID == t.ID {
			return ErrAlreadyExists
		}
	}

	s.templates[t.TenantID] = append(s.templates[t.TenantID], t.Clone())
	return nil
}

// UpdateTemplate 更新租户模板
func (s *MemoryTemplateStore) UpdateTemplate(ctx context.Context, t *shard.Template) error {
	if t == nil || t.ID == "" || t.TenantID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.templates[t.TenantID] {
		if existing.ID == t.ID {
			clone := t.Clone()
			clone.CreatedAt = existing.CreatedAt
			s.templates[t.TenantID][i] = clone
			return nil
		}
	}
	return ErrNotFound
}

// DeleteTemplate 删除租户模板
func (s *MemoryTemplateStore) DeleteTemplate(ctx context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	templates := s.templates[tenantID]
	for i, existing := range templates {
		if existing.ID == id {
			s.templates[tenantID] = append(templates[:i], templates[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Close 关闭连接（内存实现为空操作）
func (s *MemoryTemplateStore) Close() error {
	return nil
}

// ============================================================================
// Memory Cache Store
// ============================================================================

// MemoryCacheStore 内存缓存存储
type MemoryCacheStore struct {
	tenants map[string]map[string]*shard.CacheEntry
	mu      sync.RWMutex
}

// NewMemoryCacheStore 创建内存缓存存储
func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{
		tenants: make(map[string]map[string]*shard.CacheEntry),
	}
}

// Get 按指纹获取条目
func (s *MemoryCacheStore) Get(ctx context.Context, tenantID, fingerprint string) (*shard.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.tenants[tenantID]
	if entries == nil {
		return nil, ErrNotFound
	}

	entry, exists := entries[fingerprint]
	if !exists {
		return nil, ErrNotFound
	}
	return entry, nil
}

// Put 写入条目（同指纹后写覆盖）
func (s *MemoryCacheStore) Put(ctx context.Context, entry *shard.CacheEntry) error {
	if entry == nil || entry.Fingerprint == "" || entry.TenantID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tenants[entry.TenantID] == nil {
		s.tenants[entry.TenantID] = make(map[string]*shard.CacheEntry)
	}
	s.tenants[entry.TenantID][entry.Fingerprint] = entry
	return nil
}

// DeleteByEntity 删除根分片或任一来源为指定分片的全部条目
func (s *MemoryCacheStore) DeleteByEntity(ctx context.Context, tenantID, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.tenants[tenantID]
	for fp, entry := range entries {
		if entry.EntityID == entityID {
			delete(entries, fp)
			continue
		}
		if _, ok := entry.SourceVersions[entityID]; ok {
			delete(entries, fp)
		}
	}
	return nil
}

// Close 关闭连接（内存实现为空操作）
func (s *MemoryCacheStore) Close() error {
	return nil
}

// 编译时接口检查
var _ MutableEntityStore = (*MemoryEntityStore)(nil)
var _ TemplateStore = (*MemoryTemplateStore)(nil)
var _ CacheStore = (*MemoryCacheStore)(nil)
