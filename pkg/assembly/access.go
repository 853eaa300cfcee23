package assembly

import (
	"context"

	"github.com/easyops/shardctx-go/pkg/otel"
)

// AccessChecker 访问控制协作方接口。
//
// 可选协作方：未配置时使用空实现，过滤阶段为恒等函数，
// 避免在引擎内部散落运行时分支。
type AccessChecker interface {
	// CanRead 返回用户是否在有效读取范围内可见该分片。
	CanRead(ctx context.Context, userID, entityID string) (bool, error)

	// ScopeToken 返回用户的访问范围令牌（访问等价类标识）。
	// 参与缓存指纹，代替原始 userID，使同一访问等级的用户共享缓存。
	ScopeToken(ctx context.Context, userID string) (string, error)

	// Version 返回访问规则的版本标记。规则变更后版本变化，
	// 旧指纹自然失效。
	Version() string
}

// NoopAccessChecker 空实现：允许一切，不产生范围令牌。
type NoopAccessChecker struct{}

// NewNoopAccessChecker 创建空实现访问检查器。
func NewNoopAccessChecker() *NoopAccessChecker {
	return &NoopAccessChecker{}
}

// CanRead 恒为 true。
func (c *NoopAccessChecker) CanRead(ctx context.Context, userID, entityID string) (bool, error) {
	return true, nil
}

// ScopeToken 恒为空。
func (c *NoopAccessChecker) ScopeToken(ctx context.Context, userID string) (string, error) {
	return "", nil
}

// Version 恒为空。
func (c *NoopAccessChecker) Version() string {
	return ""
}

// AccessFilter 访问过滤器。
type AccessFilter struct {
	checker AccessChecker
	logger  otel.Logger
}

// NewAccessFilter 创建访问过滤器。checker 为 nil 时使用空实现。
func NewAccessFilter(checker AccessChecker, logger otel.Logger) *AccessFilter {
	if checker == nil {
		checker = NewNoopAccessChecker()
	}
	if logger == nil {
		logger = otel.NewNoopLogger()
	}
	return &AccessFilter{checker: checker, logger: logger}
}

// Enabled 返回是否配置了真实的访问控制协作方。
func (f *AccessFilter) Enabled() bool {
	_, noop := f.checker.(*NoopAccessChecker)
	return !noop
}

// Checker 返回底层访问检查器。
func (f *AccessFilter) Checker() AccessChecker {
	return f.checker
}

// Apply 过滤候选：userID 为空或协作方未配置时为恒等函数。
//
// 检查出错的候选按不可见处理并剔除；被剔除的候选返回给
// 调用方用于期望来源缺失的统计。
func (f *AccessFilter) Apply(ctx context.Context, candidates []*SourceCandidate, userID string) (kept, removed []*SourceCandidate) {
	if userID == "" || !f.Enabled() {
		return candidates, nil
	}

	for _, c := range candidates {
		ok, err := f.checker.CanRead(ctx, userID, c.EntityID)
		if err != nil {
			f.logger.WithContext(ctx).Warn("access check failed, excluding candidate",
				"entity_id", c.EntityID, "error", err)
			removed = append(removed, c)
			continue
		}
		if !ok {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed
}

// 编译时接口检查
var _ AccessChecker = (*NoopAccessChecker)(nil)
