package shard

// Severity 质量警告的严重程度。
type Severity string

const (
	// SeverityLow 低。
	SeverityLow Severity = "low"
	// SeverityMedium 中。
	SeverityMedium Severity = "medium"
	// SeverityHigh 高。
	SeverityHigh Severity = "high"
)

// Warning 装配过程产生的质量警告。
type Warning struct {
	// Message 警告内容。
	Message string `json:"message"`

	// Severity 严重程度。
	Severity Severity `json:"severity"`

	// Impact 对结果的影响说明，可为空。
	Impact string `json:"impact,omitempty"`
}

// Fragment 装配结果中的一条来源片段。
type Fragment struct {
	// EntityID 来源分片 ID。
	EntityID string `json:"entity_id"`

	// EntityName 来源分片名称。
	EntityName string `json:"entity_name,omitempty"`

	// RelationshipType 来源关系类型。
	RelationshipType string `json:"relationship_type"`

	// Content 纳入上下文的文本内容（可能被截断）。
	Content string `json:"content"`

	// Distance 与根分片的结构距离（1 = 直接关系）。
	Distance int `json:"distance"`

	// Relevance 相关性评分（0-1）。
	Relevance float64 `json:"relevance"`

	// TokenCount 片段的 Token 数量（截断后）。
	TokenCount int `json:"token_count"`

	// Truncated 内容是否被截断。
	Truncated bool `json:"truncated,omitempty"`
}

// SectionID 返回片段在截断/缺失列表中的标识，
// 形如 "关系类型:分片ID"。
func (f *Fragment) SectionID() string {
	return f.RelationshipType + ":" + f.EntityID
}

// ContextQuality 装配结果的质量评估记录。
type ContextQuality struct {
	// SourceCount 纳入的来源数量。
	SourceCount int `json:"source_count"`

	// AverageRelevance 纳入来源的平均相关性（0-1，无来源时为 0）。
	AverageRelevance float64 `json:"average_relevance"`

	// Completeness 期望来源的覆盖比例（0-1，模板未声明期望来源时为 1）。
	Completeness float64 `json:"completeness"`

	// TotalTokens 装配结果的总 Token 数。恒有 TotalTokens <= TokenLimit。
	TotalTokens int `json:"total_tokens"`

	// TokenLimit 本次装配生效的 Token 预算。
	TokenLimit int `json:"token_limit"`

	// Truncated 是否发生过截断或丢弃。
	Truncated bool `json:"truncated"`

	// TruncatedSections 被截断或丢弃的来源标识（"类型:ID"）。
	TruncatedSections []string `json:"truncated_sections,omitempty"`

	// MissingExpectedSources 模板期望但不可用或被过滤的来源。
	// 整条规则拉取失败记录关系类型（如 "contacts"），
	// 单个候选被访问过滤剔除记录 "类型:分片ID"（如 "contacts:c2"）。
	MissingExpectedSources []string `json:"missing_expected_sources,omitempty"`

	// Warnings 质量警告列表。
	Warnings []Warning `json:"warnings,omitempty"`

	// QualityScore 综合质量评分（0-1）。由评估器从上述字段推导，
	// 不独立存储：0.4*完整度 + 0.4*平均相关性 + 0.2*(1-截断惩罚)。
	QualityScore float64 `json:"quality_score"`
}

// AssembledContext 装配完成的上下文：有序的来源片段加质量记录。
type AssembledContext struct {
	// EntityID 根分片 ID。
	EntityID string `json:"entity_id"`

	// TenantID 所属租户。
	TenantID string `json:"tenant_id"`

	// TemplateID 实际使用的模板。
	TemplateID string `json:"template_id"`

	// Fragments 按预算排序后的来源片段。
	Fragments []Fragment `json:"fragments"`

	// Quality 质量评估。
	Quality ContextQuality `json:"quality"`
}

// Clone 创建装配结果的深拷贝。缓存返回副本，避免调用方改写缓存内容。
func (c *AssembledContext) Clone() *AssembledContext {
	clone := *c

	clone.Fragments = make([]Fragment, len(c.Fragments))
	copy(clone.Fragments, c.Fragments)

	clone.Quality.TruncatedSections = append([]string(nil), c.Quality.TruncatedSections...)
	clone.Quality.MissingExpectedSources = append([]string(nil), c.Quality.MissingExpectedSources...)
	clone.Quality.Warnings = append([]Warning(nil), c.Quality.Warnings...)

	return &clone
}
