package assembly

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// FingerprintInput 缓存指纹的输入。
//
// 刻意排除 Debug 与 SkipCache（不改变语义结果），也排除原始
// UserID：启用访问控制协作方时以用户的范围令牌（访问等价类）
// 代替，使同一访问等级的用户共享缓存命中。
type FingerprintInput struct {
	// TenantID 租户标识，必含，保证跨租户不发生指纹碰撞。
	TenantID string

	// EntityID 根分片 ID。
	EntityID string

	// TemplateID 解析后的模板 ID。
	TemplateID string

	// AssistantID 请求助手。
	AssistantID string

	// MaxTokensOverride 调用级预算覆盖，<=0 视为未覆盖。
	MaxTokensOverride int

	// AccessVersion 访问控制协作方的规则版本。
	AccessVersion string

	// ScopeToken 用户的访问范围令牌，未启用访问控制时为空。
	ScopeToken string
}

// Fingerprint 计算稳定的缓存指纹。
//
// 规范化串以不可见分隔符连接后做 xxhash64，
// 相同输入在任何进程中得到相同指纹。
func Fingerprint(in FingerprintInput) string {
	override := ""
	if in.MaxTokensOverride > 0 {
		override = strconv.Itoa(in.MaxTokensOverride)
	}

	canonical := strings.Join([]string{
		in.TenantID,
		in.EntityID,
		in.TemplateID,
		in.AssistantID,
		override,
		in.AccessVersion,
		in.ScopeToken,
	}, "\x1f")

	return fmt.Sprintf("%016x", xxhash.Sum64String(canonical))
}
