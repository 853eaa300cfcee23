package assembly

import (
	"fmt"
	"strings"

	"github.com/easyops/shardctx-go/pkg/core/shard"
)

// 质量评分的权重组成：完整度、平均相关性、截断惩罚。
const (
	weightCompleteness = 0.4
	weightRelevance    = 0.4
	weightTruncation   = 0.2
)

// AssessInput 质量评估的输入。
type AssessInput struct {
	// Fit 预算阶段的产出。
	Fit *FitResult

	// TotalCandidates 进入预算阶段的候选总数（截断惩罚的分母）。
	TotalCandidates int

	// ExpectedTypes 模板声明的期望关系类型（按声明顺序）。
	ExpectedTypes []string

	// MissingExpected 期望但不可用或被过滤的来源。
	MissingExpected []string

	// TokenLimit 本次装配生效的预算。
	TokenLimit int
}

// Assessor 质量评估器。
type Assessor struct{}

// NewAssessor 创建质量评估器。
func NewAssessor() *Assessor {
	return &Assessor{}
}

// Assess 计算质量记录与综合评分。
//
// 完整度 = 纳入结果中出现的期望类型数 / 声明的期望类型数，
// 未声明期望来源时为 1.0；被截断的期望来源仍计为已覆盖。
func (a *Assessor) Assess(in AssessInput) shard.ContextQuality {
	quality := shard.ContextQuality{
		SourceCount:            len(in.Fit.Included),
		TotalTokens:            in.Fit.TotalTokens,
		TokenLimit:             in.TokenLimit,
		Truncated:              in.Fit.Truncated,
		TruncatedSections:      in.Fit.TruncatedSections,
		MissingExpectedSources: in.MissingExpected,
	}

	// 平均相关性：纳入候选的均值，无候选时为 0
	if len(in.Fit.Included) > 0 {
		var sum float64
		for _, c := range in.Fit.Included {
			sum += c.Relevance
		}
		quality.AverageRelevance = sum / float64(len(in.Fit.Included))
	}

	// 完整度
	quality.Completeness = 1.0
	if len(in.ExpectedTypes) > 0 {
		includedTypes := make(map[string]bool, len(in.Fit.Included))
		for _, c := range in.Fit.Included {
			includedTypes[c.RelationshipType] = true
		}
		covered := 0
		for _, typ := range in.ExpectedTypes {
			if includedTypes[typ] {
				covered++
			}
		}
		quality.Completeness = float64(covered) / float64(len(in.ExpectedTypes))
	}

	// 综合评分
	truncationPenalty := float64(len(in.Fit.TruncatedSections)) / float64(max(1, in.TotalCandidates))
	quality.QualityScore = weightCompleteness*quality.Completeness +
		weightRelevance*quality.AverageRelevance +
		weightTruncation*(1-truncationPenalty)

	quality.Warnings = a.warnings(quality)
	return quality
}

// warnings 从质量记录生成警告列表。
func (a *Assessor) warnings(q shard.ContextQuality) []shard.Warning {
	var warnings []shard.Warning

	if len(q.MissingExpectedSources) > 0 {
		warnings = append(warnings, shard.Warning{
			Message:  fmt.Sprintf("missing expected sources: %s", strings.Join(q.MissingExpectedSources, ", ")),
			Severity: shard.SeverityMedium,
			Impact:   "context completeness reduced",
		})
	}

	if q.Truncated {
		severity := shard.SeverityLow
		if q.Completeness < 0.5 {
			severity = shard.SeverityHigh
		}
		warnings = append(warnings, shard.Warning{
			Message:  fmt.Sprintf("content truncated to fit token budget (%d/%d tokens)", q.TotalTokens, q.TokenLimit),
			Severity: severity,
			Impact:   "some source content was shortened or dropped",
		})
	}

	if q.SourceCount == 0 {
		warnings = append(warnings, shard.Warning{
			Message:  "no sources included in assembled context",
			Severity: shard.SeverityHigh,
			Impact:   "context carries no related information",
		})
	}

	return warnings
}
