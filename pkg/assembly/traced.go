package assembly

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/easyops/shardctx-go/pkg/otel"
)

// TracedAssembler 带追踪的装配器装饰器。
//
// 在装配调用外层包一个 Span，并把结果的关键维度
// （模板、Token 用量、质量评分、缓存命中）写入属性。
// 指标由内层装配器自带，这里只补充 Span。
type TracedAssembler struct {
	assembler *Assembler
	tracer    otel.Tracer
}

// TracedAssemblerOption 配置 TracedAssembler。
type TracedAssemblerOption func(*TracedAssembler)

// WithTracedAssemblerTracer 设置追踪器。
func WithTracedAssemblerTracer(tracer otel.Tracer) TracedAssemblerOption {
	return func(t *TracedAssembler) {
		t.tracer = tracer
	}
}

// NewTracedAssembler 创建带追踪的装配器包装。
func NewTracedAssembler(assembler *Assembler, opts ...TracedAssemblerOption) *TracedAssembler {
	t := &TracedAssembler{
		assembler: assembler,
		tracer:    otel.NewNoopTracer(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// AssembleContext 带追踪地装配上下文。
func (t *TracedAssembler) AssembleContext(ctx context.Context, entityID, tenantID string, opts *Options) (*Result, error) {
	ctx, span := t.tracer.Start(ctx, "assembly.assemble_context",
		otel.TenantID(tenantID),
		otel.ShardID(entityID),
	)
	defer span.End()

	result, err := t.assembler.AssembleContext(ctx, entityID, tenantID, opts)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otel.StatusError, err.Error())
		return result, err
	}

	if !result.Success {
		span.SetAttributes(attribute.String(otel.AttrFailureCode, string(result.Failure.Code)))
		span.AddEvent("assembly.failed",
			attribute.String(otel.AttrFailureCode, string(result.Failure.Code)),
		)
		span.SetStatus(otel.StatusOK, "")
		return result, nil
	}

	quality := result.Context.Quality
	span.SetAttributes(
		otel.TemplateID(result.Context.TemplateID),
		otel.CacheHit(result.CacheHit),
		otel.QualityScore(quality.QualityScore),
		attribute.Int(otel.AttrSourceCount, quality.SourceCount),
		attribute.Bool(otel.AttrTruncated, quality.Truncated),
	)
	span.SetAttributes(otel.TokenUsage(quality.TotalTokens, quality.TokenLimit)...)
	span.SetStatus(otel.StatusOK, "")

	return result, nil
}

// InvalidateCache 带追踪地失效缓存。
func (t *TracedAssembler) InvalidateCache(ctx context.Context, entityID, tenantID string) {
	ctx, span := t.tracer.Start(ctx, "assembly.invalidate_cache",
		otel.TenantID(tenantID),
		otel.ShardID(entityID),
	)
	defer span.End()

	t.assembler.InvalidateCache(ctx, entityID, tenantID)
	span.SetStatus(otel.StatusOK, "")
}

// Assembler 返回内层装配器。
func (t *TracedAssembler) Assembler() *Assembler {
	return t.assembler
}
