package assembly

import (
	"strings"
	"testing"
)

// charCounter 一字符一 Token 的计数器，让测试里的 Token 数等于内容长度。
func charCounter() TokenCounter {
	return &EstimatedCounter{CharsPerToken: 1.0}
}

func candidate(id, relType string, contentLen int, relevance float64, distance int) *SourceCandidate {
	return &SourceCandidate{
		EntityID:         id,
		RelationshipType: relType,
		Content:          strings.Repeat("x", contentLen),
		Distance:         distance,
		Relevance:        relevance,
	}
}

func TestBudgeter_AllFit(t *testing.T) {
	b := NewBudgeter(charCounter(), 0.25)

	candidates := []*SourceCandidate{
		candidate("e1", "contacts", 40, 0.9, 1),
		candidate("e2", "contacts", 40, 0.9, 1),
	}

	result := b.Fit(candidates, 100)
	if len(result.Included) != 2 {
		t.Fatalf("expected 2 included, got %d", len(result.Included))
	}
	if result.Truncated {
		t.Error("expected no truncation")
	}
	if result.TotalTokens != 80 {
		t.Errorf("expected 80 total tokens, got %d", result.TotalTokens)
	}
}

func TestBudgeter_PartialTruncation(t *testing.T) {
	// 两个 50 Token 的高相关来源加一个 200 Token 的来源，预算 120：
	// 阈值 0.1 时剩余 20 >= ceil(0.1*200)，第三个来源截断纳入
	b := NewBudgeter(charCounter(), 0.1)

	candidates := []*SourceCandidate{
		candidate("e1", "R1", 50, 1.0, 1),
		candidate("e2", "R1", 50, 1.0, 1),
		candidate("e3", "R2", 200, 0.8, 1),
	}

	result := b.Fit(candidates, 120)
	if len(result.Included) != 3 {
		t.Fatalf("expected 3 included, got %d", len(result.Included))
	}
	if !result.Truncated {
		t.Error("expected truncation")
	}
	if result.TotalTokens != 120 {
		t.Errorf("expected 120 total tokens, got %d", result.TotalTokens)
	}

	last := result.Included[2]
	if last.EntityID != "e3" || !last.Truncated {
		t.Errorf("expected e3 truncated, got %s truncated=%v", last.EntityID, last.Truncated)
	}
	if last.TokenCount != 20 {
		t.Errorf("expected e3 truncated to 20 tokens, got %d", last.TokenCount)
	}
	if len(result.TruncatedSections) != 1 || result.TruncatedSections[0] != "R2:e3" {
		t.Errorf("expected truncated sections [R2:e3], got %v", result.TruncatedSections)
	}
}

func TestBudgeter_DropBelowThreshold(t *testing.T) {
	// 默认阈值 0.25：剩余 20 < ceil(0.25*200)=50，整体丢弃
	b := NewBudgeter(charCounter(), 0.25)

	candidates := []*SourceCandidate{
		candidate("e1", "R1", 50, 1.0, 1),
		candidate("e2", "R1", 50, 1.0, 1),
		candidate("e3", "R2", 200, 0.8, 1),
	}

	result := b.Fit(candidates, 120)
	if len(result.Included) != 2 {
		t.Fatalf("expected 2 included, got %d", len(result.Included))
	}
	if !result.Truncated {
		t.Error("expected truncation flag for dropped candidate")
	}
	if result.TotalTokens != 100 {
		t.Errorf("expected 100 total tokens, got %d", result.TotalTokens)
	}
	if len(result.TruncatedSections) != 1 || result.TruncatedSections[0] != "R2:e3" {
		t.Errorf("expected truncated sections [R2:e3], got %v", result.TruncatedSections)
	}
}

func TestBudgeter_Ranking(t *testing.T) {
	b := NewBudgeter(charCounter(), 0.25)

	candidates := []*SourceCandidate{
		candidate("low", "a", 10, 0.3, 1),
		candidate("far", "b", 10, 0.9, 2),
		candidate("near", "c", 10, 0.9, 1),
		candidate("top", "d", 10, 1.0, 2),
	}

	result := b.Fit(candidates, 100)
	got := make([]string, 0, len(result.Included))
	for _, c := range result.Included {
		got = append(got, c.EntityID)
	}

	want := []string{"top", "near", "far", "low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestBudgeter_StableTieBreak(t *testing.T) {
	b := NewBudgeter(charCounter(), 0.25)

	// 相关性与距离全同：声明顺序决定
	candidates := []*SourceCandidate{
		candidate("first", "a", 10, 0.5, 1),
		candidate("second", "a", 10, 0.5, 1),
		candidate("third", "a", 10, 0.5, 1),
	}

	result := b.Fit(candidates, 100)
	if result.Included[0].EntityID != "first" ||
		result.Included[1].EntityID != "second" ||
		result.Included[2].EntityID != "third" {
		t.Error("expected declaration order to break ties")
	}
}

func TestBudgeter_BudgetInvariant(t *testing.T) {
	b := NewBudgeter(charCounter(), 0.25)

	tests := []struct {
		name   string
		sizes  []int
		budget int
	}{
		{"tight budget", []int{100, 100, 100}, 150},
		{"single over budget", []int{500}, 100},
		{"zero budget", []int{50, 50}, 0},
		{"one token budget", []int{50, 50}, 1},
		{"generous budget", []int{10, 20, 30}, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var candidates []*SourceCandidate
			for i, size := range tt.sizes {
				candidates = append(candidates, candidate(string(rune('a'+i)), "r", size, 0.5, 1))
			}

			result := b.Fit(candidates, tt.budget)
			if result.TotalTokens > tt.budget && tt.budget > 0 {
				t.Errorf("budget invariant violated: %d > %d", result.TotalTokens, tt.budget)
			}

			sum := 0
			for _, c := range result.Included {
				sum += c.TokenCount
			}
			if sum != result.TotalTokens {
				t.Errorf("total tokens %d does not match included sum %d", result.TotalTokens, sum)
			}
		})
	}
}

func TestTruncateToTokens(t *testing.T) {
	counter := charCounter()

	content := strings.Repeat("x", 100)
	truncated, tokens := truncateToTokens(counter, content, 30)
	if tokens != 30 {
		t.Errorf("expected 30 tokens, got %d", tokens)
	}
	if len(truncated) != 30 {
		t.Errorf("expected 30 chars, got %d", len(truncated))
	}

	// 已在预算内的内容原样返回
	short, tokens := truncateToTokens(counter, "abc", 10)
	if short != "abc" || tokens != 3 {
		t.Errorf("expected unchanged content, got %q (%d tokens)", short, tokens)
	}

	// 零预算
	empty, tokens := truncateToTokens(counter, "abc", 0)
	if empty != "" || tokens != 0 {
		t.Errorf("expected empty result for zero budget, got %q (%d)", empty, tokens)
	}
}
