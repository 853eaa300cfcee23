package assembly

import "github.com/easyops/shardctx-go/pkg/core/shard"

// systemTemplates 平台内置的系统模板表。
//
// 进程级只读状态：启动时加载一次，之后不再变更，
// 并发读取无需同步。注册表对外返回副本。
var systemTemplates = []*shard.Template{
	{
		ID:          "sys-opportunity-brief",
		Name:        "Opportunity Brief",
		Category:    "sales",
		ShardTypes:  []string{"opportunity"},
		Priority:    10,
		TokenBudget: 2048,
		Rules: []shard.GatherRule{
			{RelationshipType: "account", Fields: []string{"industry", "segment", "notes"}, Limit: 1, Weight: 1.0, Expected: true},
			{RelationshipType: "contacts", Fields: []string{"title", "role", "notes"}, Limit: 5, Weight: 0.9, Expected: true},
			{RelationshipType: "activities", Fields: []string{"summary", "outcome"}, Limit: 10, Weight: 0.7},
			{RelationshipType: "documents", Fields: []string{"title", "excerpt"}, Limit: 3, Weight: 0.5},
		},
	},
	{
		ID:          "sys-account-brief",
		Name:        "Account Brief",
		Category:    "sales",
		ShardTypes:  []string{"account"},
		Priority:    10,
		TokenBudget: 2048,
		Rules: []shard.GatherRule{
			{RelationshipType: "opportunities", Fields: []string{"stage", "amount", "notes"}, Limit: 5, Weight: 1.0, Expected: true},
			{RelationshipType: "contacts", Fields: []string{"title", "role"}, Limit: 5, Weight: 0.8},
			{RelationshipType: "activities", Fields: []string{"summary", "outcome"}, Limit: 10, Weight: 0.6},
		},
	},
	{
		ID:          "sys-contact-brief",
		Name:        "Contact Brief",
		Category:    "sales",
		ShardTypes:  []string{"contact"},
		Priority:    10,
		TokenBudget: 1024,
		Rules: []shard.GatherRule{
			{RelationshipType: "account", Fields: []string{"industry", "segment"}, Limit: 1, Weight: 1.0, Expected: true},
			{RelationshipType: "activities", Fields: []string{"summary", "outcome"}, Limit: 10, Weight: 0.8},
			{RelationshipType: "opportunities", Fields: []string{"stage", "amount"}, Limit: 5, Weight: 0.6},
		},
	},
	{
		// 通用兜底模板：适用于任意分片类型，优先级最低
		ID:          "sys-generic",
		Name:        "Generic Context",
		Category:    "generic",
		Priority:    0,
		TokenBudget: 2048,
		Rules: []shard.GatherRule{
			{RelationshipType: "related", Limit: 5, Weight: 0.8},
			{RelationshipType: "activities", Fields: []string{"summary"}, Limit: 5, Weight: 0.5},
		},
	},
}

// SystemTemplates 返回系统模板表的副本（按声明顺序）。
func SystemTemplates() []*shard.Template {
	result := make([]*shard.Template, len(systemTemplates))
	for i, t := range systemTemplates {
		result[i] = t.Clone()
	}
	return result
}
