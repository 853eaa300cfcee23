package assembly

import "github.com/easyops/shardctx-go/pkg/core/shard"

// SourceCandidate 收集阶段产出的来源候选，
// 进入预算/质量处理前的中间形态。
type SourceCandidate struct {
	// EntityID 来源分片 ID。
	EntityID string

	// EntityName 来源分片名称。
	EntityName string

	// TypeID 来源分片类型。
	TypeID string

	// RelationshipType 产生该候选的关系类型。
	RelationshipType string

	// Content 按模板字段列表提取的文本内容。
	Content string

	// Distance 与根分片的结构距离（1 = 直接关系）。
	Distance int

	// Relevance 相关性评分：规则权重 × 衰减系数^(距离-1)。
	Relevance float64

	// TokenCount 内容的 Token 数，由预算阶段填充。
	TokenCount int

	// Truncated 内容是否被预算阶段截断。
	Truncated bool

	// Version 来源分片的修订版本号，参与缓存失效判断。
	Version int64

	// Expected 来源规则是否声明为期望来源。
	Expected bool

	// RuleIndex 产生该候选的规则在模板中的声明序号。
	// 与 Order 一起构成确定性排序的平局裁决。
	RuleIndex int

	// Order 同一规则同一深度内的拉取序号。
	Order int
}

// SectionID 返回候选在截断/缺失列表中的标识，形如 "关系类型:分片ID"。
func (c *SourceCandidate) SectionID() string {
	return c.RelationshipType + ":" + c.EntityID
}

// Fragment 将候选转换为装配结果片段。
func (c *SourceCandidate) Fragment() shard.Fragment {
	return shard.Fragment{
		EntityID:         c.EntityID,
		EntityName:       c.EntityName,
		RelationshipType: c.RelationshipType,
		Content:          c.Content,
		Distance:         c.Distance,
		Relevance:        c.Relevance,
		TokenCount:       c.TokenCount,
		Truncated:        c.Truncated,
	}
}
