package otel

// 预定义的指标名称
// 遵循 OpenTelemetry 语义约定
const (
	// 装配指标
	MetricAssemblyRequests = "assembly.requests"         // 计数器: 装配请求次数
	MetricAssemblyDuration = "assembly.duration"         // 直方图: 装配耗时(ms)
	MetricAssemblyFailures = "assembly.failures"         // 计数器: 类型化失败次数
	MetricAssemblyErrors   = "assembly.errors"           // 计数器: 基础设施错误次数
	MetricAssemblyTokens   = "assembly.tokens"           // 直方图: 装配结果 Token 数
	MetricQualityScore     = "assembly.quality.score"    // 直方图: 质量评分

	// 缓存指标
	MetricCacheHits          = "assembly.cache.hits"          // 计数器: 缓存命中次数
	MetricCacheMisses        = "assembly.cache.misses"        // 计数器: 缓存未命中次数
	MetricCacheStale         = "assembly.cache.stale"         // 计数器: 版本失配导致的未命中
	MetricCacheInvalidations = "assembly.cache.invalidations" // 计数器: 缓存失效调用次数
	MetricCacheErrors        = "assembly.cache.errors"        // 计数器: 缓存后端错误（已降级）

	// 收集指标
	MetricGatherFetches  = "assembly.gather.fetches"  // 计数器: 关系拉取次数
	MetricGatherFailures = "assembly.gather.failures" // 计数器: 部分拉取失败次数
	MetricGatherDuration = "assembly.gather.duration" // 直方图: 收集阶段耗时(ms)

	// 预算指标
	MetricBudgetTruncations = "assembly.budget.truncations" // 计数器: 截断/丢弃的来源数
)

// MetricUnit 指标单位
type MetricUnit string

const (
	UnitNone         MetricUnit = ""
	UnitMilliseconds MetricUnit = "ms"
	UnitSeconds      MetricUnit = "s"
	UnitBytes        MetricUnit = "By"
	UnitCount        MetricUnit = "1"
)

// MetricDescription 指标描述
type MetricDescription struct {
	Name        string
	Description string
	Unit        MetricUnit
	Type        string // counter, histogram, gauge
}

// PredefinedMetrics 预定义指标列表
var PredefinedMetrics = []MetricDescription{
	{MetricAssemblyRequests, "Number of context assembly requests", UnitCount, "counter"},
	{MetricAssemblyDuration, "Duration of context assembly", UnitMilliseconds, "histogram"},
	{MetricAssemblyFailures, "Number of typed assembly failures", UnitCount, "counter"},
	{MetricAssemblyErrors, "Number of infrastructure errors", UnitCount, "counter"},
	{MetricAssemblyTokens, "Token count of assembled contexts", UnitCount, "histogram"},
	{MetricQualityScore, "Quality score of assembled contexts", UnitNone, "histogram"},

	{MetricCacheHits, "Number of assembly cache hits", UnitCount, "counter"},
	{MetricCacheMisses, "Number of assembly cache misses", UnitCount, "counter"},
	{MetricCacheStale, "Number of stale entries treated as misses", UnitCount, "counter"},
	{MetricCacheInvalidations, "Number of cache invalidation calls", UnitCount, "counter"},
	{MetricCacheErrors, "Number of degraded cache backend errors", UnitCount, "counter"},

	{MetricGatherFetches, "Number of relationship fetches", UnitCount, "counter"},
	{MetricGatherFailures, "Number of partial fetch failures", UnitCount, "counter"},
	{MetricGatherDuration, "Duration of the gather stage", UnitMilliseconds, "histogram"},

	{MetricBudgetTruncations, "Number of truncated or dropped sources", UnitCount, "counter"},
}
