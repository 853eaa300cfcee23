package config

import "errors"

// 配置验证相关错误
var (
	// ErrInvalidTokenBudget Token 预算无效
	ErrInvalidTokenBudget = errors.New("token budget must be positive")
	// ErrInvalidConcurrency 并发度无效
	ErrInvalidConcurrency = errors.New("gather concurrency must be between 1 and 64")
	// ErrInvalidThreshold 截断阈值无效
	ErrInvalidThreshold = errors.New("truncation threshold must be between 0 and 1")
	// ErrInvalidTTL 缓存 TTL 无效
	ErrInvalidTTL = errors.New("invalid cache ttl value")
	// ErrUnknownStoreType 存储类型未知
	ErrUnknownStoreType = errors.New("unknown store type")
)
