package assembly

import (
	"time"

	"github.com/easyops/shardctx-go/pkg/core/shard"
)

// Options 单次装配调用的选项。每次调用内不可变。
type Options struct {
	// TemplateID 指定偏好模板；不适用于根分片类型时
	// 回退到常规选择算法，而不是报错。
	TemplateID string `json:"template_id,omitempty"`

	// AssistantID 请求上下文的助手，参与模板选择与缓存指纹。
	AssistantID string `json:"assistant_id,omitempty"`

	// UserID 驱动访问过滤。不直接参与缓存指纹：
	// 启用访问控制协作方时以用户的范围令牌代替。
	UserID string `json:"user_id,omitempty"`

	// Debug 在结果上附加各阶段耗时。不改变语义结果，不参与指纹。
	Debug bool `json:"debug,omitempty"`

	// SkipCache 跳过缓存读取与写入。不参与指纹。
	SkipCache bool `json:"skip_cache,omitempty"`

	// MaxTokensOverride 仅本次调用覆盖模板的默认预算，<=0 表示不覆盖。
	MaxTokensOverride int `json:"max_tokens_override,omitempty"`
}

// FailureCode 类型化失败码。
type FailureCode string

const (
	// FailureCodeInvalidInput 输入无效（缺少分片或租户标识）。
	FailureCodeInvalidInput FailureCode = "invalid_input"
	// FailureCodeEntityNotFound 根分片未找到。
	FailureCodeEntityNotFound FailureCode = "entity_not_found"
	// FailureCodeTemplateNotFound 没有可解析的适用模板。
	FailureCodeTemplateNotFound FailureCode = "template_not_found"
)

// Failure 类型化失败：预期内的失败条件，调用方可直接
// 渲染为 404 等价物而无需针对异常做特殊处理。
type Failure struct {
	// Code 失败码。
	Code FailureCode `json:"code"`

	// Message 失败说明。
	Message string `json:"message"`
}

// Result 装配调用的结果。
//
// 预期内的失败（分片/模板未找到、输入无效）以 Success=false 返回；
// 基础设施故障才通过 error 传播。
type Result struct {
	// Success 装配是否成功。
	Success bool `json:"success"`

	// Context 成功时的装配结果。
	Context *shard.AssembledContext `json:"context,omitempty"`

	// Failure 失败时的类型化失败信息。
	Failure *Failure `json:"failure,omitempty"`

	// CacheHit 结果是否来自缓存。
	CacheHit bool `json:"cache_hit,omitempty"`

	// Timings 各阶段耗时，仅在 Options.Debug 时填充。
	Timings map[string]time.Duration `json:"timings,omitempty"`
}

// failed 构造类型化失败结果。
func failed(code FailureCode, message string) *Result {
	return &Result{
		Success: false,
		Failure: &Failure{Code: code, Message: message},
	}
}
