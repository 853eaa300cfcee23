package assembly

import (
	"math"
	"sort"
)

// FitResult 预算阶段的产出。
type FitResult struct {
	// Included 纳入预算的候选（按排序后的纳入顺序）。
	Included []*SourceCandidate

	// Truncated 是否发生过截断或丢弃。
	Truncated bool

	// TruncatedSections 被截断或丢弃的来源标识（"类型:ID"）。
	TruncatedSections []string

	// TotalTokens 纳入内容的 Token 总数，恒 <= 预算。
	TotalTokens int
}

// Budgeter Token 预算器。
//
// 候选按相关性降序、距离升序、声明顺序稳定排序后贪心纳入。
// 候选超出剩余预算时：剩余空间至少容纳其内容的阈值比例
// （向上取整）则截断纳入，否则整体丢弃；两种情况都记入
// TruncatedSections。所有 Token 计算为整数，估算向上取整。
type Budgeter struct {
	counter   TokenCounter
	threshold float64
}

// NewBudgeter 创建预算器。
func NewBudgeter(counter TokenCounter, threshold float64) *Budgeter {
	if counter == nil {
		counter = DefaultTokenCounter()
	}
	if threshold <= 0 || threshold > 1 {
		threshold = 0.25
	}
	return &Budgeter{counter: counter, threshold: threshold}
}

// Fit 将候选装入预算。
func (b *Budgeter) Fit(candidates []*SourceCandidate, budget int) *FitResult {
	result := &FitResult{}
	if budget <= 0 || len(candidates) == 0 {
		if len(candidates) > 0 {
			result.Truncated = true
			for _, c := range candidates {
				result.TruncatedSections = append(result.TruncatedSections, c.SectionID())
			}
		}
		return result
	}

	ranked := make([]*SourceCandidate, len(candidates))
	copy(ranked, candidates)
	for _, c := range ranked {
		c.TokenCount = b.counter.Count(c.Content)
	}

	// 相关性降序、距离升序；输入已按声明顺序，稳定排序保证平局确定
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Relevance != ranked[j].Relevance {
			return ranked[i].Relevance > ranked[j].Relevance
		}
		return ranked[i].Distance < ranked[j].Distance
	})

	remaining := budget
	for _, c := range ranked {
		if c.TokenCount <= remaining {
			result.Included = append(result.Included, c)
			remaining -= c.TokenCount
			continue
		}

		// 剩余空间至少容纳阈值比例时截断纳入，否则整体丢弃
		minFit := int(math.Ceil(b.threshold * float64(c.TokenCount)))
		if remaining > 0 && remaining >= minFit {
			content, tokens := truncateToTokens(b.counter, c.Content, remaining)
			if tokens > 0 {
				c.Content = content
				c.TokenCount = tokens
				c.Truncated = true
				result.Included = append(result.Included, c)
				result.TruncatedSections = append(result.TruncatedSections, c.SectionID())
				result.Truncated = true
				remaining -= tokens
				continue
			}
		}

		result.TruncatedSections = append(result.TruncatedSections, c.SectionID())
		result.Truncated = true
	}

	result.TotalTokens = budget - remaining
	return result
}

// truncateToTokens 将内容确定性地截断到不超过 maxTokens。
//
// 先按比例估算切点，再单调收缩直至满足预算，
// 相同输入总是得到相同切点。
func truncateToTokens(counter TokenCounter, content string, maxTokens int) (string, int) {
	if maxTokens <= 0 {
		return "", 0
	}

	full := counter.Count(content)
	if full <= maxTokens {
		return content, full
	}

	runes := []rune(content)
	cut := len(runes) * maxTokens / full
	if cut >= len(runes) {
		cut = len(runes) - 1
	}

	for cut > 0 {
		truncated := string(runes[:cut])
		tokens := counter.Count(truncated)
		if tokens <= maxTokens {
			return truncated, tokens
		}
		step := cut / 16
		if step < 1 {
			step = 1
		}
		cut -= step
	}
	return "", 0
}
