// Package config 提供配置加载和管理功能
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config 全局配置结构
type Config struct {
	// Engine 装配引擎配置
	Engine EngineConfig `koanf:"engine"`
	// Store 持久化协作方配置
	Store StoreConfig `koanf:"store"`
	// Observability 可观测性配置
	Observability ObservabilityConfig `koanf:"observability"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	// Enabled 是否启用
	Enabled bool `koanf:"enabled"`
	// ServiceName 服务名称
	ServiceName string `koanf:"service_name"`
	// TracerEndpoint 追踪端点
	TracerEndpoint string `koanf:"tracer_endpoint"`
	// MetricsEndpoint 指标端点
	MetricsEndpoint string `koanf:"metrics_endpoint"`
	// SampleRate 采样率 [0, 1]
	SampleRate float64 `koanf:"sample_rate"`
}

// Loader 配置加载器
type Loader struct {
	k *koanf.Koanf
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		k: koanf.New("."),
	}
}

// LoadEnv 从环境变量加载配置
func (l *Loader) LoadEnv(prefix string) error {
	return l.k.Load(env.Provider(prefix, ".", func(s string) string {
		// 转换环境变量名: SHARDCTX_ENGINE_CACHE_TTL -> engine.cache_ttl
		s = strings.TrimPrefix(s, prefix)
		s = strings.ToLower(s)
		parts := strings.SplitN(s, "_", 2)
		if len(parts) == 2 {
			return parts[0] + "." + parts[1]
		}
		return s
	}), nil)
}

// Unmarshal 解析配置到结构体
func (l *Loader) Unmarshal(cfg *Config) error {
	return l.k.Unmarshal("", cfg)
}

// Get 获取配置值
func (l *Loader) Get(key string) interface{} {
	return l.k.Get(key)
}

// GetString 获取字符串配置值
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// GetInt 获取整数配置值
func (l *Loader) GetInt(key string) int {
	return l.k.Int(key)
}

// GetBool 获取布尔配置值
func (l *Loader) GetBool(key string) bool {
	return l.k.Bool(key)
}

// GetDuration 获取时间间隔配置值
func (l *Loader) GetDuration(key string) time.Duration {
	return l.k.Duration(key)
}

// Load 加载完整配置（环境变量优先于默认值）
func Load() (*Config, error) {
	loader := NewLoader()

	if err := loader.LoadEnv("SHARDCTX_"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults 应用默认配置值
func applyDefaults(cfg *Config) {
	// Engine 默认值
	if cfg.Engine.DefaultTokenBudget == 0 {
		cfg.Engine.DefaultTokenBudget = 2048
	}
	if cfg.Engine.GatherConcurrency == 0 {
		cfg.Engine.GatherConcurrency = 8
	}
	if cfg.Engine.TruncationThreshold == 0 {
		cfg.Engine.TruncationThreshold = 0.25
	}
	if cfg.Engine.DefaultRuleLimit == 0 {
		cfg.Engine.DefaultRuleLimit = 5
	}
	if cfg.Engine.MaxDepth == 0 {
		cfg.Engine.MaxDepth = 2
	}
	if cfg.Engine.DistanceDecay == 0 {
		cfg.Engine.DistanceDecay = 0.5
	}
	if cfg.Engine.CacheTTL == 0 {
		cfg.Engine.CacheTTL = 5 * time.Minute
	}

	// Store 默认值
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}

	// Observability 默认值
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "shardctx"
	}
	if cfg.Observability.SampleRate == 0 {
		cfg.Observability.SampleRate = 1.0
	}
}
