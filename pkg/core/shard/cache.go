package shard

import "time"

// CacheEntry 装配缓存条目。
//
// 缓存是纯派生状态：条目随时可由实体存储和模板存储重建，
// 引擎不把缓存当作任何事实来源。
type CacheEntry struct {
	// Fingerprint 缓存键：对 (租户, 分片, 模板, 选项) 的稳定哈希。
	Fingerprint string `json:"fingerprint"`

	// TenantID 所属租户。缓存严格按租户隔离。
	TenantID string `json:"tenant_id"`

	// EntityID 根分片 ID。
	EntityID string `json:"entity_id"`

	// TemplateID 使用的模板。
	TemplateID string `json:"template_id"`

	// Context 缓存的装配结果。
	Context *AssembledContext `json:"context"`

	// CreatedAt 条目创建时间。
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt 过期时间，零值表示不过期。
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// SourceVersions 每个参与来源（含根分片）的版本标记。
	// 条目仅在所有来源的当前版本与记录一致时有效；
	// 任何不一致等同于未命中，而非返回陈旧内容。
	SourceVersions map[string]int64 `json:"source_versions"`
}

// Expired 返回条目在给定时刻是否已过期。
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}
