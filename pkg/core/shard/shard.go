// Package shard 定义分片平台的核心数据模型。
//
// 分片（Shard）是平台通用的内容单元：带类型的结构化数据记录，
// 并声明与其他分片的关系。本包同时定义上下文模板、装配结果
// 与缓存条目等引擎共享类型。所有类型由持久化层拥有，引擎只读。
package shard

import (
	"sort"
	"strings"
	"time"
)

// Relationship 表示分片声明的一条关系（内部链接）。
type Relationship struct {
	// Type 关系类型（如 "contacts"、"activities"）。
	Type string `json:"type"`

	// TargetID 目标分片 ID。
	TargetID string `json:"target_id"`
}

// Shard 平台的通用内容单元。
type Shard struct {
	// ID 稳定标识。
	ID string `json:"id"`

	// TenantID 所属租户。
	TenantID string `json:"tenant_id"`

	// TypeID 分片类型名（如 "opportunity"、"account"）。
	TypeID string `json:"type_id"`

	// Name 展示名称。
	Name string `json:"name"`

	// Data 任意键值结构化数据。
	Data map[string]any `json:"data,omitempty"`

	// Relationships 声明的关系列表。
	Relationships []Relationship `json:"relationships,omitempty"`

	// Version 修订版本号，每次写入递增。用于缓存失效判断。
	Version int64 `json:"version"`

	// CreatedAt 创建时间。
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt 最后更新时间。
	UpdatedAt time.Time `json:"updated_at"`
}

// RelationTargets 返回指定类型关系的目标 ID 列表（按声明顺序）。
func (s *Shard) RelationTargets(relType string) []string {
	var ids []string
	for _, rel := range s.Relationships {
		if rel.Type == relType {
			ids = append(ids, rel.TargetID)
		}
	}
	return ids
}

// Clone 创建分片的深拷贝。
func (s *Shard) Clone() *Shard {
	clone := *s

	clone.Data = make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		clone.Data[k] = v
	}

	clone.Relationships = make([]Relationship, len(s.Relationships))
	copy(clone.Relationships, s.Relationships)

	return &clone
}

// Summary 分片的轻量级投影。
//
// 关系收集阶段只获取摘要而非完整分片，避免不必要的负载。
type Summary struct {
	// ID 分片 ID。
	ID string `json:"id"`

	// TypeID 分片类型名。
	TypeID string `json:"type_id"`

	// Name 展示名称。
	Name string `json:"name"`

	// Fields 按字段名提取的文本值。
	Fields map[string]string `json:"fields,omitempty"`

	// Relationships 摘要携带的关系，用于二级遍历。
	Relationships []Relationship `json:"relationships,omitempty"`

	// Version 来源分片的修订版本号。
	Version int64 `json:"version"`
}

// RelationTargets 返回指定类型关系的目标 ID 列表（按声明顺序）。
func (sm *Summary) RelationTargets(relType string) []string {
	var ids []string
	for _, rel := range sm.Relationships {
		if rel.Type == relType {
			ids = append(ids, rel.TargetID)
		}
	}
	return ids
}

// Content 按模板声明的字段列表拼接摘要内容。
//
// 字段按声明顺序输出；fields 为空时按字段名排序输出全部字段，
// 保证结果确定。
func (sm *Summary) Content(fields []string) string {
	if len(fields) == 0 {
		fields = make([]string, 0, len(sm.Fields))
		for name := range sm.Fields {
			fields = append(fields, name)
		}
		sort.Strings(fields)
	}

	var b strings.Builder
	for _, name := range fields {
		value, ok := sm.Fields[name]
		if !ok || value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
	}
	return b.String()
}

// SummaryOf 从完整分片构造摘要。字符串字段原样保留，
// 其余类型忽略（摘要只携带可直接入上下文的文本）。
func SummaryOf(s *Shard) *Summary {
	fields := make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		if str, ok := v.(string); ok {
			fields[k] = str
		}
	}

	rels := make([]Relationship, len(s.Relationships))
	copy(rels, s.Relationships)

	return &Summary{
		ID:            s.ID,
		TypeID:        s.TypeID,
		Name:          s.Name,
		Fields:        fields,
		Relationships: rels,
		Version:       s.Version,
	}
}
