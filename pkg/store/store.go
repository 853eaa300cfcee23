// Package store 提供装配引擎的持久化协作方。
//
// 本包定义实体存储、模板存储与缓存存储三个接口，
// 以及内存、SQLite 与 Neo4j 后端实现。引擎除缓存条目外
// 不拥有任何持久状态；缓存条目也随时可以重建。
package store

import (
	"context"

	"github.com/easyops/shardctx-go/pkg/core/shard"
)

// EntityStore 实体存储接口
//
// 分片的事实来源。引擎只读；写入由平台的 CRUD 层负责，
// 写入方通过变更钩子驱动缓存失效。
type EntityStore interface {
	// GetEntity 获取完整分片
	GetEntity(ctx context.Context, tenantID, id string) (*shard.Shard, error)

	// GetEntitiesByRelationship 按关系类型获取根分片的关联摘要
	//
	// 返回顺序与根分片声明关系的顺序一致（确定性要求）。
	// limit <= 0 表示不限数量。
	GetEntitiesByRelationship(ctx context.Context, tenantID, rootID, relType string, limit int) ([]*shard.Summary, error)

	// GetVersions 批量获取分片的当前版本标记
	//
	// 未找到的 ID 从结果中省略。用于缓存条目的惰性失效校验。
	GetVersions(ctx context.Context, tenantID string, ids []string) (map[string]int64, error)

	// Close 关闭连接
	Close() error
}

// MutationHook 实体变更钩子
//
// 实体变更通知方在每次写入时回调，参数为被写分片的租户和 ID。
// 典型用法是接到装配器的 InvalidateCache。
type MutationHook func(tenantID, entityID string)

// MutableEntityStore 支持写入的实体存储
//
// 引擎本身不需要写入；该接口供平台写路径和测试使用。
type MutableEntityStore interface {
	EntityStore

	// PutShard 写入或更新分片，递增版本号
	PutShard(ctx context.Context, s *shard.Shard) error

	// DeleteShard 删除分片
	DeleteShard(ctx context.Context, tenantID, id string) error

	// SetMutationHook 注册变更钩子
	SetMutationHook(hook MutationHook)
}

// TemplateFilter 模板列表查询条件
type TemplateFilter struct {
	// Category 按分类过滤，空表示不过滤
	Category string

	// ShardType 只返回适用于该分片类型的模板
	ShardType string

	// AssistantID 按助手过滤，空表示不过滤
	AssistantID string
}

// Matches 返回模板是否满足过滤条件
func (f TemplateFilter) Matches(t *shard.Template) bool {
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.ShardType != "" && !t.AppliesTo(f.ShardType) {
		return false
	}
	if f.AssistantID != "" && t.AssistantID != "" && t.AssistantID != f.AssistantID {
		return false
	}
	return true
}

// TemplateStore 租户模板存储接口
//
// 系统模板不经过本接口：它们是进程级常量，由注册表直接持有。
type TemplateStore interface {
	// GetTenantTemplates 按条件列出租户模板（按创建顺序）
	GetTenantTemplates(ctx context.Context, tenantID string, filter TemplateFilter) ([]*shard.Template, error)

	// GetTemplateByID 按 ID 获取租户模板
	GetTemplateByID(ctx context.Context, tenantID, id string) (*shard.Template, error)

	// CreateTemplate 创建租户模板
	CreateTemplate(ctx context.Context, t *shard.Template) error

	// UpdateTemplate 更新租户模板
	UpdateTemplate(ctx context.Context, t *shard.Template) error

	// DeleteTemplate 删除租户模板
	DeleteTemplate(ctx context.Context, tenantID, id string) error

	// Close 关闭连接
	Close() error
}

// CacheStore 装配缓存存储接口
//
// 按租户隔离的指纹寻址存储。条目一经写入不再修改；
// 同指纹的并发写入采用后写覆盖。
type CacheStore interface {
	// Get 按指纹获取条目，未找到返回 ErrNotFound
	Get(ctx context.Context, tenantID, fingerprint string) (*shard.CacheEntry, error)

	// Put 写入条目（同指纹覆盖）
	Put(ctx context.Context, entry *shard.CacheEntry) error

	// DeleteByEntity 删除根分片或任一来源为指定分片的全部条目
	//
	// 幂等；过度失效是可接受的，漏失效不可接受。
	DeleteByEntity(ctx context.Context, tenantID, entityID string) error

	// Close 关闭连接
	Close() error
}
