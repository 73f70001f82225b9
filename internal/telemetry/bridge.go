// Package telemetry mirrors captured traces and evaluation results into OpenTelemetry
// spans, so agent runs show up next to the rest of a service's tracing.
//
// Span names follow the OpenTelemetry GenAI conventions where one exists:
//
//	agentra.trace            one per captured trace
//	├── agentra.agent        one per agent span
//	├── gen_ai.chat          one per model call
//	└── gen_ai.tool          one per tool call
//
// Captured traces are already closed when they reach the bridge, so every span is
// started and ended with explicit timestamps taken from the trace.
package telemetry

import (
	"context"
	"time"

	"github.com/spboyer/agentra/capture"
	"github.com/spboyer/agentra/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies the tracer used by [Bridge].
const InstrumentationName = "github.com/spboyer/agentra"

// Span names
const (
	SpanTrace      = "agentra.trace"
	SpanAgent      = "agentra.agent"
	SpanEvaluation = "agentra.evaluate"
	SpanModelCall  = "gen_ai.chat"
	SpanToolCall   = "gen_ai.tool"
)

// Attribute keys
const (
	AttrTraceID        = "agentra.trace.id"
	AttrTraceName      = "agentra.trace.name"
	AttrFramework      = "agentra.framework"
	AttrTotalTokens    = "agentra.tokens.total"
	AttrAgentName      = "agentra.agent.name"
	AttrAgentRole      = "agentra.agent.role"
	AttrSystemName     = "agentra.system.name"
	AttrScore          = "agentra.score"
	AttrStatus         = "agentra.status"
	AttrTraceCount     = "agentra.traces"
	AttrIssueCount     = "agentra.issues"
	AttrRequestModel   = "gen_ai.request.model"
	AttrInputTokens    = "gen_ai.usage.input_tokens"
	AttrOutputTokens   = "gen_ai.usage.output_tokens"
	AttrToolName       = "gen_ai.tool.name"
	attrCategoryPrefix = "agentra.category."
)

// Bridge converts closed traces into OpenTelemetry spans.
type Bridge struct {
	tracer trace.Tracer
}

// NewBridge creates a bridge that emits spans through tp.
func NewBridge(tp trace.TracerProvider) *Bridge {
	return &Bridge{tracer: tp.Tracer(InstrumentationName)}
}

// Hook returns a [capture.TraceHook] that exports every stored trace.
func (b *Bridge) Hook() capture.TraceHook {
	return func(t *models.Trace) {
		b.ExportTrace(context.Background(), t)
	}
}

// ExportTrace emits the span tree for t under the span in ctx, if any.
func (b *Bridge) ExportTrace(ctx context.Context, t *models.Trace) {
	if t == nil {
		return
	}

	start := t.StartTime
	end := traceEnd(t)

	ctx, root := b.tracer.Start(ctx, SpanTrace,
		trace.WithTimestamp(start),
		trace.WithAttributes(
			attribute.String(AttrTraceID, t.ID),
			attribute.String(AttrTraceName, t.Name),
			attribute.Int(AttrTotalTokens, t.TotalTokens()),
		),
	)
	if t.Framework != "" {
		root.SetAttributes(attribute.String(AttrFramework, t.Framework))
	}

	for _, s := range t.AgentSpans {
		if s != nil {
			b.exportAgentSpan(ctx, s, end)
		}
	}
	for _, mc := range t.ModelCalls {
		b.exportModelCall(ctx, mc)
	}
	for _, tc := range t.ToolCalls {
		b.exportToolCall(ctx, tc)
	}

	setStatus(root, t.Error)
	root.End(trace.WithTimestamp(end))
}

func (b *Bridge) exportAgentSpan(ctx context.Context, s *models.AgentSpan, traceEnd time.Time) {
	_, span := b.tracer.Start(ctx, SpanAgent,
		trace.WithTimestamp(s.StartTime),
		trace.WithAttributes(attribute.String(AttrAgentName, s.Name)),
	)
	if s.Role != "" {
		span.SetAttributes(attribute.String(AttrAgentRole, s.Role))
	}

	// a span left open when the trace closed ends with the trace
	end := traceEnd
	if s.EndTime != nil {
		end = *s.EndTime
	}

	setStatus(span, s.Error)
	span.End(trace.WithTimestamp(end))
}

func (b *Bridge) exportModelCall(ctx context.Context, mc models.ModelCall) {
	_, span := b.tracer.Start(ctx, SpanModelCall,
		trace.WithTimestamp(mc.Timestamp),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrRequestModel, mc.Model),
			attribute.Int(AttrInputTokens, mc.TokensIn),
			attribute.Int(AttrOutputTokens, mc.TokensOut),
		),
	)
	span.End(trace.WithTimestamp(mc.Timestamp.Add(millis(mc.DurationMs))))
}

func (b *Bridge) exportToolCall(ctx context.Context, tc models.ToolCall) {
	_, span := b.tracer.Start(ctx, SpanToolCall,
		trace.WithTimestamp(tc.Timestamp),
		trace.WithAttributes(attribute.String(AttrToolName, tc.Name)),
	)
	setStatus(span, tc.Error)
	span.End(trace.WithTimestamp(tc.Timestamp.Add(millis(tc.DurationMs))))
}

// RecordEvaluation emits one span summarizing an evaluation result, with one
// attribute per aggregated category score.
func (b *Bridge) RecordEvaluation(ctx context.Context, result *models.EvaluationResult) {
	if result == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(AttrSystemName, result.SystemName),
		attribute.Float64(AttrScore, result.Score),
		attribute.String(AttrStatus, string(result.Status)),
		attribute.Int(AttrTraceCount, result.TotalTraces),
		attribute.Int(AttrIssueCount, len(result.Issues)),
	}
	for _, cat := range result.Categories {
		attrs = append(attrs, attribute.Float64(attrCategoryPrefix+cat.Name, cat.Score))
	}

	_, span := b.tracer.Start(ctx, SpanEvaluation, trace.WithAttributes(attrs...))
	if result.Status == models.StatusPoor {
		span.SetStatus(codes.Error, result.Summary)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func setStatus(span trace.Span, errMsg string) {
	if errMsg == "" {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetStatus(codes.Error, errMsg)
}

func traceEnd(t *models.Trace) time.Time {
	if t.EndTime != nil {
		return *t.EndTime
	}
	return t.StartTime.Add(millis(t.DurationMs))
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
