package shard

import "time"

// GatherRule 声明模板要拉取的一类关系来源。
type GatherRule struct {
	// RelationshipType 要遍历的关系类型。
	RelationshipType string `json:"relationship_type"`

	// Fields 从目标分片提取的字段列表，空表示全部文本字段。
	Fields []string `json:"fields,omitempty"`

	// Limit 单条规则最多拉取的分片数量，<=0 使用引擎默认值。
	Limit int `json:"limit,omitempty"`

	// Depth 遍历深度：1 = 直接关系，2 = 关系的关系。<=0 视为 1。
	Depth int `json:"depth,omitempty"`

	// Weight 相关性权重（0-1]，<=0 视为 1.0。
	Weight float64 `json:"weight,omitempty"`

	// Expected 该来源是否为模板期望的来源。
	// 期望来源缺失会计入 missing_expected_sources 并降低完整度。
	Expected bool `json:"expected,omitempty"`
}

// Template 上下文模板：声明装配时拉取哪些关系与字段，
// 以及适用规则和 Token 预算。
type Template struct {
	// ID 模板标识。
	ID string `json:"id"`

	// TenantID 所属租户，空表示系统模板（平台内置、不可变）。
	TenantID string `json:"tenant_id,omitempty"`

	// Name 模板名称。
	Name string `json:"name"`

	// Category 模板分类（如 "sales"、"support"）。
	Category string `json:"category,omitempty"`

	// ShardTypes 适用的分片类型，空表示适用于所有类型。
	ShardTypes []string `json:"shard_types,omitempty"`

	// AssistantID 匹配的助手，空表示不限助手。
	AssistantID string `json:"assistant_id,omitempty"`

	// Priority 选择优先级，越大越优先。
	Priority int `json:"priority"`

	// Default 是否为租户内该分片类型的默认模板。
	Default bool `json:"default,omitempty"`

	// TokenBudget 默认 Token 预算，<=0 使用引擎默认值。
	TokenBudget int `json:"token_budget,omitempty"`

	// Rules 按声明顺序排列的收集规则。顺序参与确定性排序。
	Rules []GatherRule `json:"rules"`

	// CreatedAt 创建时间（系统模板为零值）。
	CreatedAt time.Time `json:"created_at,omitempty"`

	// UpdatedAt 最后更新时间。
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// IsSystem 返回是否为系统模板。
func (t *Template) IsSystem() bool {
	return t.TenantID == ""
}

// AppliesTo 返回模板是否适用于给定分片类型。
// 空的 ShardTypes 适用于所有类型；shardType 为空时视为适用。
func (t *Template) AppliesTo(shardType string) bool {
	if shardType == "" || len(t.ShardTypes) == 0 {
		return true
	}
	for _, st := range t.ShardTypes {
		if st == shardType {
			return true
		}
	}
	return false
}

// ExpectedTypes 返回声明为期望来源的关系类型（按声明顺序）。
func (t *Template) ExpectedTypes() []string {
	var types []string
	for _, rule := range t.Rules {
		if rule.Expected {
			types = append(types, rule.RelationshipType)
		}
	}
	return types
}

// Clone 创建模板的深拷贝。
func (t *Template) Clone() *Template {
	clone := *t

	clone.ShardTypes = make([]string, len(t.ShardTypes))
	copy(clone.ShardTypes, t.ShardTypes)

	clone.Rules = make([]GatherRule, len(t.Rules))
	for i, rule := range t.Rules {
		clone.Rules[i] = rule
		clone.Rules[i].Fields = make([]string, len(rule.Fields))
		copy(clone.Rules[i].Fields, rule.Fields)
	}

	return &clone
}
