package assembly

import (
	"context"
	"math"
	"sort"
	"sync"

	coreerrors "github.com/easyops/shardctx-go/pkg/core/errors"
	"github.com/easyops/shardctx-go/pkg/core/shard"
	"github.com/easyops/shardctx-go/pkg/otel"
	"github.com/easyops/shardctx-go/pkg/store"
)

// GatherResult 收集阶段的产出。
type GatherResult struct {
	// Candidates 确定性排序后的来源候选。
	Candidates []*SourceCandidate

	// FailedTypes 拉取失败的关系类型（按规则声明顺序）。
	// 部分失败不中断收集，只降低质量。
	FailedTypes []string
}

// Gatherer 关系收集器。
//
// 按模板声明顺序遍历收集规则，逐规则并发拉取关联分片的摘要。
// 并发度由信号量限制，避免压垮后端存储。候选在返回前按
// (规则序号, 距离, 拉取序号) 重新排序，输出与完成顺序无关。
type Gatherer struct {
	entities store.EntityStore
	config   *Config
	logger   otel.Logger
}

// NewGatherer 创建关系收集器。
func NewGatherer(entities store.EntityStore, config *Config) *Gatherer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Gatherer{
		entities: entities,
		config:   config,
		logger:   config.GetLogger(),
	}
}

// ruleResult 单条规则的拉取结果。
type ruleResult struct {
	candidates []*SourceCandidate
	err        error
}

// Gather 收集根分片的来源候选。
//
// 单条规则失败记入 FailedTypes 并继续；所有规则都因基础设施
// 故障失败时向上返回可重试错误。
func (g *Gatherer) Gather(ctx context.Context, root *shard.Shard, tmpl *shard.Template) (*GatherResult, error) {
	if len(tmpl.Rules) == 0 {
		return &GatherResult{}, nil
	}

	results := make([]ruleResult, len(tmpl.Rules))
	sem := make(chan struct{}, g.config.GatherConcurrency)
	var wg sync.WaitGroup

	for i := range tmpl.Rules {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				results[idx] = ruleResult{err: ctx.Err()}
				return
			}

			candidates, err := g.gatherRule(ctx, root, idx, tmpl.Rules[idx])
			results[idx] = ruleResult{candidates: candidates, err: err}
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, coreerrors.WrapError(coreerrors.ErrContextCanceled, "gather")
	}

	result := &GatherResult{}
	failures := 0
	for i, rr := range results {
		if rr.err != nil {
			failures++
			result.FailedTypes = append(result.FailedTypes, tmpl.Rules[i].RelationshipType)
			g.logger.WithContext(ctx).Warn("relationship fetch failed",
				"relationship_type", tmpl.Rules[i].RelationshipType,
				"shard_id", root.ID,
				"error", rr.err)
			continue
		}
		result.Candidates = append(result.Candidates, rr.candidates...)
	}

	// 全量失败是基础设施问题，向上报告为可重试错误
	if failures == len(tmpl.Rules) && failures > 0 {
		return nil, coreerrors.WrapError(coreerrors.ErrStoreUnavailable, "all relationship fetches failed")
	}

	result.Candidates = dedupeCandidates(result.Candidates, root.ID)

	sort.SliceStable(result.Candidates, func(a, b int) bool {
		ca, cb := result.Candidates[a], result.Candidates[b]
		if ca.RuleIndex != cb.RuleIndex {
			return ca.RuleIndex < cb.RuleIndex
		}
		if ca.Distance != cb.Distance {
			return ca.Distance < cb.Distance
		}
		return ca.Order < cb.Order
	})

	return result, nil
}

// gatherRule 执行单条规则：一级拉取，需要时继续二级遍历。
func (g *Gatherer) gatherRule(ctx context.Context, root *shard.Shard, ruleIndex int, rule shard.GatherRule) ([]*SourceCandidate, error) {
	limit := rule.Limit
	if limit <= 0 {
		limit = g.config.DefaultRuleLimit
	}
	depth := rule.Depth
	if depth <= 0 {
		depth = 1
	}
	if depth > g.config.MaxDepth {
		depth = g.config.MaxDepth
	}

	summaries, err := g.entities.GetEntitiesByRelationship(ctx, root.TenantID, root.ID, rule.RelationshipType, limit)
	if err != nil {
		return nil, err
	}

	var candidates []*SourceCandidate
	order := 0
	for _, sm := range summaries {
		candidates = append(candidates, g.candidateOf(sm, ruleIndex, rule, 1, order))
		order++
	}

	// 二级遍历：从一级目标继续沿同类型关系展开
	if depth >= 2 {
		for _, sm := range summaries {
			if len(sm.RelationTargets(rule.RelationshipType)) == 0 {
				continue
			}
			second, err := g.entities.GetEntitiesByRelationship(ctx, root.TenantID, sm.ID, rule.RelationshipType, limit)
			if err != nil {
				// 二级拉取失败只损失深层候选，一级结果保留
				g.logger.WithContext(ctx).Warn("second-level fetch failed",
					"relationship_type", rule.RelationshipType,
					"shard_id", sm.ID,
					"error", err)
				continue
			}
			for _, deep := range second {
				candidates = append(candidates, g.candidateOf(deep, ruleIndex, rule, 2, order))
				order++
			}
		}
	}

	return candidates, nil
}

// candidateOf 从摘要构造来源候选。
func (g *Gatherer) candidateOf(sm *shard.Summary, ruleIndex int, rule shard.GatherRule, distance, order int) *SourceCandidate {
	weight := rule.Weight
	if weight <= 0 {
		weight = 1.0
	}

	return &SourceCandidate{
		EntityID:         sm.ID,
		EntityName:       sm.Name,
		TypeID:           sm.TypeID,
		RelationshipType: rule.RelationshipType,
		Content:          sm.Content(rule.Fields),
		Distance:         distance,
		Relevance:        weight * math.Pow(g.config.DistanceDecay, float64(distance-1)),
		Version:          sm.Version,
		Expected:         rule.Expected,
		RuleIndex:        ruleIndex,
		Order:            order,
	}
}

// dedupeCandidates 按分片 ID 去重，保留结构距离最短的候选，
// 距离相同保留先出现者。根分片自身不作为候选。
func dedupeCandidates(candidates []*SourceCandidate, rootID string) []*SourceCandidate {
	best := make(map[string]*SourceCandidate, len(candidates))
	var order []string

	for _, c := range candidates {
		if c.EntityID == rootID {
			continue
		}
		existing, ok := best[c.EntityID]
		if !ok {
			best[c.EntityID] = c
			order = append(order, c.EntityID)
			continue
		}
		if c.Distance < existing.Distance {
			best[c.EntityID] = c
		}
	}

	result := make([]*SourceCandidate, 0, len(order))
	for _, id := range order {
		result = append(result, best[id])
	}
	return result
}
