// Package errors 定义引擎的通用错误类型
package errors

import (
	"errors"
	"fmt"
)

// 通用错误
var (
	// ErrInvalidInput 输入无效
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrContextCanceled 上下文被取消
	ErrContextCanceled = errors.New("context canceled")
)

// 实体与模板相关错误
var (
	// ErrEntityNotFound 分片未找到
	ErrEntityNotFound = errors.New("entity not found")
	// ErrTemplateNotFound 模板未找到
	ErrTemplateNotFound = errors.New("template not found")
	// ErrNoSuitableTemplate 没有适用的模板
	ErrNoSuitableTemplate = errors.New("no suitable template")
	// ErrImmutableTemplate 系统模板不可修改
	ErrImmutableTemplate = errors.New("system template is immutable")
)

// 基础设施相关错误
var (
	// ErrStoreUnavailable 后端存储不可用
	ErrStoreUnavailable = errors.New("backing store unavailable")
	// ErrCacheUnavailable 缓存后端不可用
	ErrCacheUnavailable = errors.New("cache backend unavailable")
	// ErrTimeout 请求超时
	ErrTimeout = errors.New("request timeout")
)

// WrapError 包装错误并添加上下文信息
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// IsNotFound 判断错误是否为"未找到"类错误
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrEntityNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrNoSuitableTemplate)
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrCacheUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsFatal 判断错误是否为致命错误（不可恢复）
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidInput)
}
