package config

import "time"

// EngineConfig 装配引擎配置
type EngineConfig struct {
	// DefaultTokenBudget 系统默认 Token 预算
	// 默认: 2048
	DefaultTokenBudget int `koanf:"default_token_budget"`
	// GatherConcurrency 单次调用收集阶段的最大并发拉取数
	// 默认: 8, 范围: [1, 64]
	GatherConcurrency int `koanf:"gather_concurrency"`
	// TruncationThreshold 部分截断阈值：剩余预算至少容纳该比例的
	// 候选内容时截断纳入，否则整体丢弃
	// 默认: 0.25, 范围: (0, 1]
	TruncationThreshold float64 `koanf:"truncation_threshold"`
	// DefaultRuleLimit 单条收集规则的默认拉取上限
	// 默认: 5
	DefaultRuleLimit int `koanf:"default_rule_limit"`
	// MaxDepth 关系遍历的最大深度
	// 默认: 2
	MaxDepth int `koanf:"max_depth"`
	// DistanceDecay 相关性随结构距离的衰减系数
	// 默认: 0.5
	DistanceDecay float64 `koanf:"distance_decay"`
	// CacheTTL 缓存条目的存活时间
	// 默认: 5m
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// Validate 验证引擎配置
func (c *EngineConfig) Validate() error {
	if c.DefaultTokenBudget < 1 {
		return ErrInvalidTokenBudget
	}
	if c.GatherConcurrency < 1 || c.GatherConcurrency > 64 {
		return ErrInvalidConcurrency
	}
	if c.TruncationThreshold <= 0 || c.TruncationThreshold > 1 {
		return ErrInvalidThreshold
	}
	if c.CacheTTL < 0 {
		return ErrInvalidTTL
	}
	return nil
}

// StoreConfig 持久化协作方配置
type StoreConfig struct {
	// Type 存储类型: memory、sqlite、neo4j
	Type string `koanf:"type"`
	// SQLitePath SQLite 数据库路径
	SQLitePath string `koanf:"sqlite_path"`
	// Neo4jURI Neo4j 连接地址
	Neo4jURI string `koanf:"neo4j_uri"`
	// Neo4jUsername Neo4j 用户名
	Neo4jUsername string `koanf:"neo4j_username"`
	// Neo4jPassword Neo4j 密码
	Neo4jPassword string `koanf:"neo4j_password"`
}
