package assembly

import (
	"time"

	"github.com/easyops/shardctx-go/pkg/core/config"
	"github.com/easyops/shardctx-go/pkg/otel"
)

// Config 保存装配引擎的配置。
type Config struct {
	// DefaultTokenBudget 是模板和调用方都未指定预算时的系统默认值。
	DefaultTokenBudget int

	// GatherConcurrency 是单次调用收集阶段的最大并发拉取数。
	GatherConcurrency int

	// TruncationThreshold 是部分截断阈值：剩余预算至少容纳
	// 该比例的候选内容时截断纳入，否则整体丢弃。
	TruncationThreshold float64

	// MaxDepth 是关系遍历的最大深度上限，规则声明的深度不会超过它。
	MaxDepth int

	// DefaultRuleLimit 是收集规则未声明上限时的默认拉取数。
	DefaultRuleLimit int

	// DistanceDecay 是相关性随结构距离的衰减系数。
	DistanceDecay float64

	// CacheTTL 是缓存条目的存活时间，0 表示不过期。
	CacheTTL time.Duration

	// TokenCounter 是要使用的 Token 计数器。
	TokenCounter TokenCounter

	// Logger 是引擎使用的日志器。
	Logger otel.Logger

	// Metrics 是引擎使用的指标收集器。
	Metrics otel.Metrics
}

// ConfigOption 配置 Config。
type ConfigOption func(*Config)

// WithDefaultTokenBudget 设置系统默认 Token 预算。
func WithDefaultTokenBudget(budget int) ConfigOption {
	return func(c *Config) {
		c.DefaultTokenBudget = budget
	}
}

// WithGatherConcurrency 设置收集阶段的并发上限。
func WithGatherConcurrency(n int) ConfigOption {
	return func(c *Config) {
		c.GatherConcurrency = n
	}
}

// WithTruncationThreshold 设置部分截断阈值。
func WithTruncationThreshold(threshold float64) ConfigOption {
	return func(c *Config) {
		c.TruncationThreshold = threshold
	}
}

// WithMaxDepth 设置关系遍历的最大深度。
func WithMaxDepth(depth int) ConfigOption {
	return func(c *Config) {
		c.MaxDepth = depth
	}
}

// WithDefaultRuleLimit 设置规则的默认拉取上限。
func WithDefaultRuleLimit(limit int) ConfigOption {
	return func(c *Config) {
		c.DefaultRuleLimit = limit
	}
}

// WithDistanceDecay 设置相关性的距离衰减系数。
func WithDistanceDecay(decay float64) ConfigOption {
	return func(c *Config) {
		c.DistanceDecay = decay
	}
}

// WithCacheTTL 设置缓存条目的存活时间。
func WithCacheTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.CacheTTL = ttl
	}
}

// WithTokenCounter 设置 Token 计数器。
func WithTokenCounter(counter TokenCounter) ConfigOption {
	return func(c *Config) {
		c.TokenCounter = counter
	}
}

// WithLogger 设置日志器。
func WithLogger(logger otel.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics 设置指标收集器。
func WithMetrics(metrics otel.Metrics) ConfigOption {
	return func(c *Config) {
		c.Metrics = metrics
	}
}

// DefaultConfig 返回具有合理默认值的 Config。
func DefaultConfig() *Config {
	return &Config{
		DefaultTokenBudget:  2048,
		GatherConcurrency:   8,
		TruncationThreshold: 0.25,
		MaxDepth:            2,
		DefaultRuleLimit:    5,
		DistanceDecay:       0.5,
		CacheTTL:            5 * time.Minute,
		TokenCounter:        nil, // 需要时使用 DefaultTokenCounter()
		Logger:              otel.NewNoopLogger(),
		Metrics:             otel.NewNoopMetrics(),
	}
}

// NewConfig 使用给定的选项创建新的 Config。
func NewConfig(opts ...ConfigOption) *Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromEngineConfig 从外部配置（koanf 加载）构建引擎 Config。
func FromEngineConfig(ec *config.EngineConfig, opts ...ConfigOption) *Config {
	c := DefaultConfig()
	if ec != nil {
		if ec.DefaultTokenBudget > 0 {
			c.DefaultTokenBudget = ec.DefaultTokenBudget
		}
		if ec.GatherConcurrency > 0 {
			c.GatherConcurrency = ec.GatherConcurrency
		}
		if ec.TruncationThreshold > 0 {
			c.TruncationThreshold = ec.TruncationThreshold
		}
		if ec.MaxDepth > 0 {
			c.MaxDepth = ec.MaxDepth
		}
		if ec.DefaultRuleLimit > 0 {
			c.DefaultRuleLimit = ec.DefaultRuleLimit
		}
		if ec.DistanceDecay > 0 {
			c.DistanceDecay = ec.DistanceDecay
		}
		if ec.CacheTTL > 0 {
			c.CacheTTL = ec.CacheTTL
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetTokenCounter 返回配置的 Token 计数器或默认计数器。
func (c *Config) GetTokenCounter() TokenCounter {
	if c.TokenCounter != nil {
		return c.TokenCounter
	}
	return DefaultTokenCounter()
}

// GetLogger 返回配置的日志器或空实现。
func (c *Config) GetLogger() otel.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return otel.NewNoopLogger()
}

// GetMetrics 返回配置的指标收集器或空实现。
func (c *Config) GetMetrics() otel.Metrics {
	if c.Metrics != nil {
		return c.Metrics
	}
	return otel.NewNoopMetrics()
}
