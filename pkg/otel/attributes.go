package otel

import "go.opentelemetry.io/otel/attribute"

// 预定义的语义属性键
// 遵循 OpenTelemetry 语义约定
const (
	// 租户与分片相关属性
	AttrTenantID  = "tenant.id"
	AttrShardID   = "shard.id"
	AttrShardType = "shard.type"

	// 模板相关属性
	AttrTemplateID  = "template.id"
	AttrAssistantID = "assistant.id"

	// 装配相关属性
	AttrAssemblyStage    = "assembly.stage"
	AttrTokenLimit       = "assembly.token_limit"
	AttrTotalTokens      = "assembly.total_tokens"
	AttrSourceCount      = "assembly.source_count"
	AttrQualityScore     = "assembly.quality_score"
	AttrTruncated        = "assembly.truncated"
	AttrFailureCode      = "assembly.failure_code"

	// 缓存相关属性
	AttrCacheHit         = "cache.hit"
	AttrCacheFingerprint = "cache.fingerprint"

	// 收集相关属性
	AttrRelationshipType = "gather.relationship_type"
	AttrGatherDepth      = "gather.depth"

	// Error 相关属性
	AttrErrorType      = "error.type"
	AttrErrorMessage   = "error.message"
	AttrErrorRetryable = "error.retryable"
)

// TenantID 创建租户属性
func TenantID(id string) attribute.KeyValue {
	return attribute.String(AttrTenantID, id)
}

// ShardID 创建分片属性
func ShardID(id string) attribute.KeyValue {
	return attribute.String(AttrShardID, id)
}

// ShardType 创建分片类型属性
func ShardType(typ string) attribute.KeyValue {
	return attribute.String(AttrShardType, typ)
}

// TemplateID 创建模板属性
func TemplateID(id string) attribute.KeyValue {
	return attribute.String(AttrTemplateID, id)
}

// AssemblyStage 创建装配阶段属性
func AssemblyStage(stage string) attribute.KeyValue {
	return attribute.String(AttrAssemblyStage, stage)
}

// CacheHit 创建缓存命中属性
func CacheHit(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// QualityScore 创建质量评分属性
func QualityScore(score float64) attribute.KeyValue {
	return attribute.Float64(AttrQualityScore, score)
}

// TokenUsage 创建 Token 用量属性
func TokenUsage(total, limit int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrTotalTokens, total),
		attribute.Int(AttrTokenLimit, limit),
	}
}

// ErrorAttrs 创建错误属性
func ErrorAttrs(errType, message string, retryable bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, errType),
		attribute.String(AttrErrorMessage, message),
		attribute.Bool(AttrErrorRetryable, retryable),
	}
}
