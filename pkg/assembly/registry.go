package assembly

import (
	"context"
	"time"

	"github.com/google/uuid"

	coreerrors "github.com/easyops/shardctx-go/pkg/core/errors"
	"github.com/easyops/shardctx-go/pkg/core/shard"
	"github.com/easyops/shardctx-go/pkg/otel"
	"github.com/easyops/shardctx-go/pkg/store"
)

// Registry 模板注册表。
//
// 系统模板是不可变的进程级常量；租户模板来自模板存储协作方。
// 所有读取操作无副作用。
type Registry struct {
	system []*shard.Template
	store  store.TemplateStore
	logger otel.Logger
}

// NewRegistry 创建模板注册表。
func NewRegistry(templateStore store.TemplateStore, logger otel.Logger) *Registry {
	if logger == nil {
		logger = otel.NewNoopLogger()
	}
	return &Registry{
		system: systemTemplates,
		store:  templateStore,
		logger: logger,
	}
}

// SelectionInput 模板选择的输入。
type SelectionInput struct {
	// PreferredTemplateID 调用方偏好的模板 ID。
	PreferredTemplateID string

	// AssistantID 请求上下文的助手。
	AssistantID string

	// ShardType 根分片类型。
	ShardType string
}

// Resolve 按 ID 解析模板：先查租户模板，再查系统模板。
func (r *Registry) Resolve(ctx context.Context, tenantID, templateID string) (*shard.Template, error) {
	if templateID == "" {
		return nil, coreerrors.ErrTemplateNotFound
	}

	if r.store != nil && tenantID != "" {
		t, err := r.store.GetTemplateByID(ctx, tenantID, templateID)
		if err == nil {
			return t, nil
		}
		if err != store.ErrNotFound {
			return nil, coreerrors.WrapError(err, "resolve template")
		}
	}

	for _, t := range r.system {
		if t.ID == templateID {
			return t.Clone(), nil
		}
	}
	return nil, coreerrors.ErrTemplateNotFound
}

// Select 按确定性算法选择模板，无适用模板时返回 nil。
//
// 顺序：偏好模板（须适用于分片类型）→ 助手匹配 →
// 租户默认模板 → 系统模板。平局时优先级高者胜，
// 优先级相同按声明顺序取先者。
func (r *Registry) Select(ctx context.Context, tenantID string, in SelectionInput) (*shard.Template, error) {
	// 1. 偏好模板适用则直接返回；不适用回退，不报错
	if in.PreferredTemplateID != "" {
		t, err := r.Resolve(ctx, tenantID, in.PreferredTemplateID)
		if err != nil && err != coreerrors.ErrTemplateNotFound {
			return nil, err
		}
		if t != nil && t.AppliesTo(in.ShardType) {
			return t, nil
		}
	}

	tenant, err := r.tenantTemplates(ctx, tenantID, in.ShardType)
	if err != nil {
		return nil, err
	}

	// 2. 助手匹配的模板
	if in.AssistantID != "" {
		var matched []*shard.Template
		for _, t := range append(append([]*shard.Template{}, tenant...), r.applicableSystem(in.ShardType)...) {
			if t.AssistantID == in.AssistantID {
				matched = append(matched, t)
			}
		}
		if best := pickBest(matched); best != nil {
			return best.Clone(), nil
		}
	}

	// 3. 租户默认模板
	var defaults []*shard.Template
	for _, t := range tenant {
		if t.Default {
			defaults = append(defaults, t)
		}
	}
	if best := pickBest(defaults); best != nil {
		return best.Clone(), nil
	}

	// 4. 系统模板
	if best := pickBest(r.applicableSystem(in.ShardType)); best != nil {
		return best.Clone(), nil
	}

	// 5. 无适用模板
	return nil, nil
}

// List 列出租户可见的模板：租户模板加系统模板（按声明顺序）。
func (r *Registry) List(ctx context.Context, tenantID string, filter store.TemplateFilter) ([]*shard.Template, error) {
	var result []*shard.Template

	if r.store != nil && tenantID != "" {
		tenant, err := r.store.GetTenantTemplates(ctx, tenantID, filter)
		if err != nil {
			return nil, coreerrors.WrapError(err, "list templates")
		}
		result = append(result, tenant...)
	}

	for _, t := range r.system {
		if filter.Matches(t) {
			result = append(result, t.Clone())
		}
	}
	return result, nil
}

// ListSystem 返回全部系统模板。
func (r *Registry) ListSystem() []*shard.Template {
	result := make([]*shard.Template, len(r.system))
	for i, t := range r.system {
		result[i] = t.Clone()
	}
	return result
}

// CreateTenantTemplate 创建租户模板，ID 为空时自动生成。
func (r *Registry) CreateTenantTemplate(ctx context.Context, tenantID string, t *shard.Template) (*shard.Template, error) {
	if r.store == nil {
		return nil, coreerrors.ErrStoreUnavailable
	}
	if t == nil || tenantID == "" || t.Name == "" {
		return nil, coreerrors.ErrInvalidInput
	}

	created := t.Clone()
	created.TenantID = tenantID
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	now := time.Now()
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := r.store.CreateTemplate(ctx, created); err != nil {
		return nil, coreerrors.WrapError(err, "create template")
	}

	r.logger.Info("tenant template created",
		"tenant_id", tenantID, "template_id", created.ID, "name", created.Name)
	return created, nil
}

// UpdateTenantTemplate 更新租户模板。系统模板不可修改。
func (r *Registry) UpdateTenantTemplate(ctx context.Context, tenantID string, t *shard.Template) error {
	if r.store == nil {
		return coreerrors.ErrStoreUnavailable
	}
	if t == nil || tenantID == "" || t.ID == "" {
		return coreerrors.ErrInvalidInput
	}
	if r.isSystemID(t.ID) {
		return coreerrors.ErrImmutableTemplate
	}

	updated := t.Clone()
	updated.TenantID = tenantID
	updated.UpdatedAt = time.Now()

	err := r.store.UpdateTemplate(ctx, updated)
	if err == store.ErrNotFound {
		return coreerrors.ErrTemplateNotFound
	}
	if err != nil {
		return coreerrors.WrapError(err, "update template")
	}
	return nil
}

// DeleteTenantTemplate 删除租户模板。系统模板不可删除。
func (r *Registry) DeleteTenantTemplate(ctx context.Context, tenantID, templateID string) error {
	if r.store == nil {
		return coreerrors.ErrStoreUnavailable
	}
	if tenantID == "" || templateID == "" {
		return coreerrors.ErrInvalidInput
	}
	if r.isSystemID(templateID) {
		return coreerrors.ErrImmutableTemplate
	}

	err := r.store.DeleteTemplate(ctx, tenantID, templateID)
	if err == store.ErrNotFound {
		return coreerrors.ErrTemplateNotFound
	}
	if err != nil {
		return coreerrors.WrapError(err, "delete template")
	}
	return nil
}

// tenantTemplates 获取适用于给定分片类型的租户模板。
func (r *Registry) tenantTemplates(ctx context.Context, tenantID, shardType string) ([]*shard.Template, error) {
	if r.store == nil || tenantID == "" {
		return nil, nil
	}
	templates, err := r.store.GetTenantTemplates(ctx, tenantID, store.TemplateFilter{ShardType: shardType})
	if err != nil {
		return nil, coreerrors.WrapError(err, "select template")
	}
	return templates, nil
}

// applicableSystem 返回适用于给定分片类型的系统模板。
func (r *Registry) applicableSystem(shardType string) []*shard.Template {
	var result []*shard.Template
	for _, t := range r.system {
		if t.AppliesTo(shardType) {
			result = append(result, t)
		}
	}
	return result
}

// isSystemID 返回 ID 是否属于系统模板。
func (r *Registry) isSystemID(id string) bool {
	for _, t := range r.system {
		if t.ID == id {
			return true
		}
	}
	return false
}

// pickBest 从候选中取优先级最高者，平局取声明顺序靠前者。
func pickBest(candidates []*shard.Template) *shard.Template {
	var best *shard.Template
	for _, t := range candidates {
		if best == nil || t.Priority > best.Priority {
			best = t
		}
	}
	return best
}
