package assembly

import (
	"context"
	"fmt"
	"time"

	coreerrors "github.com/easyops/shardctx-go/pkg/core/errors"
	"github.com/easyops/shardctx-go/pkg/core/shard"
	"github.com/easyops/shardctx-go/pkg/otel"
	"github.com/easyops/shardctx-go/pkg/store"
)

// Assembler 上下文装配器（编排器）。
//
// 将注册表、收集器、过滤器、预算器、评估器与缓存组合为公开的
// AssembleContext 操作。阶段顺序严格：
// 缓存查找 → 模板解析 → 收集 → 过滤 → 预算 → 评估 → 缓存写入。
// 致命错误（根分片未找到、无适用模板、根存储不可用）终止流水线；
// 部分失败阶段（关系拉取、访问过滤）只降低质量并继续。
type Assembler struct {
	config   *Config
	registry *Registry
	gatherer *Gatherer
	filter   *AccessFilter
	budgeter *Budgeter
	assessor *Assessor
	cache    *Cache
	entities store.EntityStore
	logger   otel.Logger
	metrics  otel.Metrics
}

// AssemblerOption 配置 Assembler。
type AssemblerOption func(*Assembler)

// WithAssemblerConfig 设置引擎配置。
func WithAssemblerConfig(config *Config) AssemblerOption {
	return func(a *Assembler) {
		a.config = config
	}
}

// WithAccessChecker 设置访问控制协作方。
func WithAccessChecker(checker AccessChecker) AssemblerOption {
	return func(a *Assembler) {
		a.filter = NewAccessFilter(checker, nil)
	}
}

// NewAssembler 创建装配器。
//
// cacheStore 为 nil 时缓存整体禁用，所有正确性属性不变。
func NewAssembler(entities store.EntityStore, templates store.TemplateStore, cacheStore store.CacheStore, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		entities: entities,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.config == nil {
		a.config = DefaultConfig()
	}
	a.logger = a.config.GetLogger()
	a.metrics = a.config.GetMetrics()

	a.registry = NewRegistry(templates, a.logger)
	a.gatherer = NewGatherer(entities, a.config)
	if a.filter == nil {
		a.filter = NewAccessFilter(nil, a.logger)
	}
	a.budgeter = NewBudgeter(a.config.GetTokenCounter(), a.config.TruncationThreshold)
	a.assessor = NewAssessor()
	a.cache = NewCache(cacheStore, entities, a.config)

	return a
}

// AssembleContext 装配给定根分片的上下文。
//
// 预期内的失败（输入无效、分片未找到、无适用模板）以
// Success=false 的类型化结果返回；只有基础设施故障通过
// error 传播。取消路径快速失败，缓存写入阶段不会执行。
func (a *Assembler) AssembleContext(ctx context.Context, entityID, tenantID string, opts *Options) (*Result, error) {
	a.metrics.Counter(otel.MetricAssemblyRequests).Add(ctx, 1)
	started := time.Now()
	defer func() {
		a.metrics.Histogram(otel.MetricAssemblyDuration).Record(ctx,
			float64(time.Since(started).Milliseconds()))
	}()

	if opts == nil {
		opts = &Options{}
	}

	if entityID == "" || tenantID == "" {
		a.metrics.Counter(otel.MetricAssemblyFailures).Add(ctx, 1)
		return failed(FailureCodeInvalidInput, "entity id and tenant id are required"), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, coreerrors.WrapError(coreerrors.ErrContextCanceled, "assemble context")
	}

	timings := newStopwatch(opts.Debug)
	log := a.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"shard_id":  entityID,
	})

	// 根分片：根级失败是类型化失败，根存储故障是基础设施错误
	root, err := a.entities.GetEntity(ctx, tenantID, entityID)
	if err == store.ErrNotFound {
		a.metrics.Counter(otel.MetricAssemblyFailures).Add(ctx, 1)
		return failed(FailureCodeEntityNotFound, fmt.Sprintf("entity %q not found", entityID)), nil
	}
	if err != nil {
		a.metrics.Counter(otel.MetricAssemblyErrors).Add(ctx, 1)
		return nil, fmt.Errorf("fetch root entity: %w (%v)", coreerrors.ErrStoreUnavailable, err)
	}

	// 模板解析
	tmpl, err := a.registry.Select(ctx, tenantID, SelectionInput{
		PreferredTemplateID: opts.TemplateID,
		AssistantID:         opts.AssistantID,
		ShardType:           root.TypeID,
	})
	if err != nil {
		a.metrics.Counter(otel.MetricAssemblyErrors).Add(ctx, 1)
		return nil, err
	}
	if tmpl == nil {
		a.metrics.Counter(otel.MetricAssemblyFailures).Add(ctx, 1)
		return failed(FailureCodeTemplateNotFound,
			fmt.Sprintf("no suitable template for shard type %q", root.TypeID)), nil
	}
	timings.lap("resolve")

	budget := a.resolveBudget(tmpl, opts)
	fingerprint, cacheable := a.fingerprint(ctx, root, tmpl, opts)
	useCache := cacheable && !opts.SkipCache

	// 缓存查找
	if useCache {
		if cached, ok := a.cache.Lookup(ctx, tenantID, fingerprint); ok {
			timings.lap("cache_lookup")
			log.Debug("assembly cache hit", "fingerprint", fingerprint)
			return &Result{
				Success:  true,
				Context:  cached,
				CacheHit: true,
				Timings:  timings.result(),
			}, nil
		}
		timings.lap("cache_lookup")
	}

	// 收集（阶段内并发，结果确定性排序）
	gathered, err := a.gatherer.Gather(ctx, root, tmpl)
	if err != nil {
		a.metrics.Counter(otel.MetricAssemblyErrors).Add(ctx, 1)
		return nil, err
	}
	a.metrics.Counter(otel.MetricGatherFetches).Add(ctx, int64(len(gathered.Candidates)))
	a.metrics.Counter(otel.MetricGatherFailures).Add(ctx, int64(len(gathered.FailedTypes)))
	timings.lap("gather")

	// 过滤
	kept, removed := a.filter.Apply(ctx, gathered.Candidates, opts.UserID)
	timings.lap("filter")

	missingExpected := collectMissingExpected(tmpl, gathered.FailedTypes, removed)

	// 预算
	fit := a.budgeter.Fit(kept, budget)
	a.metrics.Counter(otel.MetricBudgetTruncations).Add(ctx, int64(len(fit.TruncatedSections)))
	timings.lap("budget")

	// 评估
	quality := a.assessor.Assess(AssessInput{
		Fit:             fit,
		TotalCandidates: len(kept),
		ExpectedTypes:   tmpl.ExpectedTypes(),
		MissingExpected: missingExpected,
		TokenLimit:      budget,
	})
	timings.lap("score")

	assembled := &shard.AssembledContext{
		EntityID:   root.ID,
		TenantID:   tenantID,
		TemplateID: tmpl.ID,
		Fragments:  make([]shard.Fragment, 0, len(fit.Included)),
		Quality:    quality,
	}
	for _, c := range fit.Included {
		assembled.Fragments = append(assembled.Fragments, c.Fragment())
	}

	a.metrics.Histogram(otel.MetricAssemblyTokens).Record(ctx, float64(quality.TotalTokens))
	a.metrics.Histogram(otel.MetricQualityScore).Record(ctx, quality.QualityScore)

	// 取消路径不写缓存
	if err := ctx.Err(); err != nil {
		return nil, coreerrors.WrapError(coreerrors.ErrContextCanceled, "assemble context")
	}

	// 缓存写入
	if useCache {
		a.cache.Store(ctx, &shard.CacheEntry{
			Fingerprint:    fingerprint,
			TenantID:       tenantID,
			EntityID:       root.ID,
			TemplateID:     tmpl.ID,
			Context:        assembled.Clone(),
			SourceVersions: sourceVersions(root, gathered.Candidates),
		})
		timings.lap("cache_store")
	}

	log.Debug("context assembled",
		"template_id", tmpl.ID,
		"source_count", quality.SourceCount,
		"total_tokens", quality.TotalTokens,
		"quality_score", quality.QualityScore)

	return &Result{
		Success: true,
		Context: assembled,
		Timings: timings.result(),
	}, nil
}

// InvalidateCache 失效与指定分片相关的全部缓存条目。
//
// 由实体变更通知方在每次写入时调用。幂等，绝不向调用方报错。
func (a *Assembler) InvalidateCache(ctx context.Context, entityID, tenantID string) {
	a.cache.Invalidate(ctx, tenantID, entityID)
}

// SelectTemplate 运行模板选择算法，无适用模板时返回 nil。
func (a *Assembler) SelectTemplate(ctx context.Context, tenantID string, in SelectionInput) (*shard.Template, error) {
	return a.registry.Select(ctx, tenantID, in)
}

// ListTemplates 列出租户可见的模板。
func (a *Assembler) ListTemplates(ctx context.Context, tenantID string, filter store.TemplateFilter) ([]*shard.Template, error) {
	return a.registry.List(ctx, tenantID, filter)
}

// GetTemplateByID 按 ID 解析模板。
func (a *Assembler) GetTemplateByID(ctx context.Context, tenantID, templateID string) (*shard.Template, error) {
	return a.registry.Resolve(ctx, tenantID, templateID)
}

// ListSystemTemplates 返回全部系统模板。
func (a *Assembler) ListSystemTemplates() []*shard.Template {
	return a.registry.ListSystem()
}

// CreateTemplate 创建租户模板。
func (a *Assembler) CreateTemplate(ctx context.Context, tenantID string, t *shard.Template) (*shard.Template, error) {
	return a.registry.CreateTenantTemplate(ctx, tenantID, t)
}

// UpdateTemplate 更新租户模板。
func (a *Assembler) UpdateTemplate(ctx context.Context, tenantID string, t *shard.Template) error {
	return a.registry.UpdateTenantTemplate(ctx, tenantID, t)
}

// DeleteTemplate 删除租户模板。
func (a *Assembler) DeleteTemplate(ctx context.Context, tenantID, templateID string) error {
	return a.registry.DeleteTenantTemplate(ctx, tenantID, templateID)
}

// Registry 返回模板注册表。
func (a *Assembler) Registry() *Registry {
	return a.registry
}

// resolveBudget 预算解析顺序：调用覆盖 → 模板预算 → 系统默认。
func (a *Assembler) resolveBudget(tmpl *shard.Template, opts *Options) int {
	if opts.MaxTokensOverride > 0 {
		return opts.MaxTokensOverride
	}
	if tmpl.TokenBudget > 0 {
		return tmpl.TokenBudget
	}
	return a.config.DefaultTokenBudget
}

// fingerprint 计算本次调用的缓存指纹。
//
// 仅在访问控制协作方启用且本次调用携带用户时纳入范围令牌。
// 令牌获取失败时指纹无法保证按访问等级隔离，返回不可缓存，
// 本次调用完全绕过缓存（不读不写），装配照常进行。
func (a *Assembler) fingerprint(ctx context.Context, root *shard.Shard, tmpl *shard.Template, opts *Options) (string, bool) {
	var accessVersion, scopeToken string
	if a.filter.Enabled() && opts.UserID != "" {
		accessVersion = a.filter.Checker().Version()
		token, err := a.filter.Checker().ScopeToken(ctx, opts.UserID)
		if err != nil {
			a.logger.Warn("scope token lookup failed, bypassing cache",
				"user_id", opts.UserID, "error", err)
			return "", false
		}
		scopeToken = token
	}

	return Fingerprint(FingerprintInput{
		TenantID:          root.TenantID,
		EntityID:          root.ID,
		TemplateID:        tmpl.ID,
		AssistantID:       opts.AssistantID,
		MaxTokensOverride: opts.MaxTokensOverride,
		AccessVersion:     accessVersion,
		ScopeToken:        scopeToken,
	}), true
}

// collectMissingExpected 汇总期望来源的缺失。
// 整条规则拉取失败记录裸关系类型（该类型的全部候选都缺失）；
// 被访问过滤剔除的期望候选逐个记录 "类型:分片ID"。
func collectMissingExpected(tmpl *shard.Template, failedTypes []string, removed []*SourceCandidate) []string {
	expected := make(map[string]bool)
	for _, typ := range tmpl.ExpectedTypes() {
		expected[typ] = true
	}

	var missing []string
	for _, typ := range failedTypes {
		if expected[typ] {
			missing = append(missing, typ)
		}
	}
	for _, c := range removed {
		if c.Expected {
			missing = append(missing, c.SectionID())
		}
	}
	return missing
}

// sourceVersions 记录根分片与全部收集候选的版本标记。
// 记录全部候选而非仅纳入者：过度失效可接受，漏失效不可接受。
func sourceVersions(root *shard.Shard, candidates []*SourceCandidate) map[string]int64 {
	versions := make(map[string]int64, len(candidates)+1)
	versions[root.ID] = root.Version
	for _, c := range candidates {
		versions[c.EntityID] = c.Version
	}
	return versions
}

// stopwatch 各阶段耗时记录，仅 Debug 时启用。
type stopwatch struct {
	enabled bool
	last    time.Time
	laps    map[string]time.Duration
}

func newStopwatch(enabled bool) *stopwatch {
	return &stopwatch{
		enabled: enabled,
		last:    time.Now(),
	}
}

func (s *stopwatch) lap(stage string) {
	if !s.enabled {
		return
	}
	if s.laps == nil {
		s.laps = make(map[string]time.Duration)
	}
	now := time.Now()
	s.laps[stage] = now.Sub(s.last)
	s.last = now
}

func (s *stopwatch) result() map[string]time.Duration {
	return s.laps
}
