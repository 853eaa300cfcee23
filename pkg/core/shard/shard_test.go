package shard

import (
	"testing"
	"time"
)

func TestSummaryContent(t *testing.T) {
	sm := &Summary{
		Fields: map[string]string{
			"stage":  "negotiation",
			"amount": "120000",
			"empty":  "",
		},
	}

	tests := []struct {
		name   string
		fields []string
		want   string
	}{
		{"declared order", []string{"stage", "amount"}, "stage: negotiation\namount: 120000"},
		{"missing field skipped", []string{"stage", "owner"}, "stage: negotiation"},
		{"empty value skipped", []string{"empty", "stage"}, "stage: negotiation"},
		{"no fields sorts by name", nil, "amount: 120000\nstage: negotiation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sm.Content(tt.fields); got != tt.want {
				t.Errorf("Content(%v) = %q, want %q", tt.fields, got, tt.want)
			}
		})
	}
}

func TestSummaryOf(t *testing.T) {
	s := &Shard{
		ID: "opp-1", TypeID: "opportunity", Name: "Renewal", Version: 3,
		Data: map[string]any{
			"stage":  "negotiation",
			"amount": 120000, // 非字符串字段不进入摘要
		},
		Relationships: []Relationship{{Type: "contacts", TargetID: "c1"}},
	}

	sm := SummaryOf(s)
	if sm.Version != 3 {
		t.Errorf("expected version carried over, got %d", sm.Version)
	}
	if _, ok := sm.Fields["amount"]; ok {
		t.Error("non-string fields must not appear in the summary")
	}
	if sm.Fields["stage"] != "negotiation" {
		t.Errorf("expected string field kept, got %q", sm.Fields["stage"])
	}
	if len(sm.Relationships) != 1 {
		t.Errorf("expected relationships carried over, got %d", len(sm.Relationships))
	}
}

func TestShardRelationTargets(t *testing.T) {
	s := &Shard{
		Relationships: []Relationship{
			{Type: "contacts", TargetID: "c1"},
			{Type: "activities", TargetID: "a1"},
			{Type: "contacts", TargetID: "c2"},
		},
	}

	got := s.RelationTargets("contacts")
	if len(got) != 2 || got[0] != "c1" || got[1] != "c2" {
		t.Errorf("expected [c1 c2] in declaration order, got %v", got)
	}
	if targets := s.RelationTargets("documents"); len(targets) != 0 {
		t.Errorf("expected no targets, got %v", targets)
	}
}

func TestSummaryRelationTargets(t *testing.T) {
	sm := &Summary{
		Relationships: []Relationship{
			{Type: "contacts", TargetID: "c1"},
			{Type: "activities", TargetID: "a1"},
			{Type: "contacts", TargetID: "c2"},
		},
	}

	got := sm.RelationTargets("contacts")
	if len(got) != 2 || got[0] != "c1" || got[1] != "c2" {
		t.Errorf("expected [c1 c2] in declaration order, got %v", got)
	}
	if targets := sm.RelationTargets("documents"); len(targets) != 0 {
		t.Errorf("expected no targets, got %v", targets)
	}
}

func TestShardClone(t *testing.T) {
	s := &Shard{
		ID:            "opp-1",
		Data:          map[string]any{"stage": "negotiation"},
		Relationships: []Relationship{{Type: "contacts", TargetID: "c1"}},
	}

	clone := s.Clone()
	clone.Data["stage"] = "closed"
	clone.Relationships[0].TargetID = "other"

	if s.Data["stage"] != "negotiation" {
		t.Error("clone must not share the data map")
	}
	if s.Relationships[0].TargetID != "c1" {
		t.Error("clone must not share the relationship slice")
	}
}

func TestTemplateAppliesTo(t *testing.T) {
	tests := []struct {
		name       string
		shardTypes []string
		shardType  string
		want       bool
	}{
		{"declared type", []string{"opportunity"}, "opportunity", true},
		{"other type", []string{"opportunity"}, "account", false},
		{"no declared types applies to all", nil, "anything", true},
		{"empty shard type always applies", []string{"opportunity"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := &Template{ShardTypes: tt.shardTypes}
			if got := tmpl.AppliesTo(tt.shardType); got != tt.want {
				t.Errorf("AppliesTo(%q) = %v, want %v", tt.shardType, got, tt.want)
			}
		})
	}
}

func TestTemplateExpectedTypes(t *testing.T) {
	tmpl := &Template{
		Rules: []GatherRule{
			{RelationshipType: "account", Expected: true},
			{RelationshipType: "activities"},
			{RelationshipType: "contacts", Expected: true},
		},
	}

	got := tmpl.ExpectedTypes()
	if len(got) != 2 || got[0] != "account" || got[1] != "contacts" {
		t.Errorf("expected [account contacts] in declaration order, got %v", got)
	}
}

func TestCacheEntryExpired(t *testing.T) {
	now := time.Now()

	entry := &CacheEntry{ExpiresAt: now.Add(time.Minute)}
	if entry.Expired(now) {
		t.Error("entry before its deadline must not be expired")
	}
	if !entry.Expired(now.Add(2 * time.Minute)) {
		t.Error("entry past its deadline must be expired")
	}

	// 零值 ExpiresAt 表示不过期
	forever := &CacheEntry{}
	if forever.Expired(now.Add(24 * time.Hour)) {
		t.Error("entry without a deadline must never expire")
	}
}

func TestAssembledContextClone(t *testing.T) {
	c := &AssembledContext{
		Fragments: []Fragment{{EntityID: "c1", Content: "original"}},
		Quality: ContextQuality{
			TruncatedSections: []string{"contacts:c2"},
			Warnings:          []Warning{{Message: "w", Severity: SeverityLow}},
		},
	}

	clone := c.Clone()
	clone.Fragments[0].Content = "mutated"
	clone.Quality.TruncatedSections[0] = "mutated"
	clone.Quality.Warnings[0].Message = "mutated"

	if c.Fragments[0].Content != "original" {
		t.Error("clone must not share fragments")
	}
	if c.Quality.TruncatedSections[0] != "contacts:c2" {
		t.Error("clone must not share truncated sections")
	}
	if c.Quality.Warnings[0].Message != "w" {
		t.Error("clone must not share warnings")
	}
}
