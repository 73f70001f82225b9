package evaluators

import (
	"context"
	"fmt"

	"github.com/spboyer/agentra/models"
)

// ToolUsageWeight is the compiled-in weight of the tool usage category.
const ToolUsageWeight = 0.15

// NoToolsScore is the tool usage score of a trace that called no tools.
const NoToolsScore = 0.8

type toolUsageEvaluator struct{}

// NewToolUsageEvaluator creates the tool usage evaluator. It is purely heuristic.
func NewToolUsageEvaluator() Evaluator {
	return toolUsageEvaluator{}
}

func (toolUsageEvaluator) Name() string    { return CategoryToolUsage }
func (toolUsageEvaluator) Weight() float64 { return ToolUsageWeight }

func (toolUsageEvaluator) Evaluate(ctx context.Context, trace *models.Trace, systemDescription string) *models.CategoryResult {
	cat := newCategory(CategoryToolUsage, ToolUsageWeight)

	if trace == nil || len(trace.ToolCalls) == 0 {
		return cat.fixed("no_tools", models.NewScore(NoToolsScore, "No tools were called", nil))
	}

	success := toolSuccessRate(trace)
	cat.check("success_rate", success, issueThreshold,
		fmt.Sprintf("Tool success rate is low: %s", percent(success.Value)))

	cat.check("diversity", toolDiversity(trace), 0, "")
	cat.check("latency", toolLatency(trace), issueThreshold, "Tool calls are slow")

	return cat.result(NoToolsScore)
}

func toolSuccessRate(trace *models.Trace) models.Score {
	total := len(trace.ToolCalls)
	errs := trace.ToolErrors()
	rate := float64(total-errs) / float64(total)

	reason := "All tool calls succeeded"
	if errs > 0 {
		reason = fmt.Sprintf("%d of %d tool calls failed", errs, total)
	}

	return models.NewScore(rate, reason, map[string]any{
		"total":        total,
		"errors":       errs,
		"success_rate": rate,
	})
}

func toolDiversity(trace *models.Trace) models.Score {
	unique := map[string]bool{}
	for _, tc := range trace.ToolCalls {
		unique[tc.Name] = true
	}
	ratio := float64(len(unique)) / float64(len(trace.ToolCalls))

	switch {
	case ratio > 0.7:
		return models.NewScore(0.9, fmt.Sprintf("Good tool diversity (%d unique tools)", len(unique)), nil)
	case ratio > 0.4:
		return models.NewScore(0.7, fmt.Sprintf("Moderate tool diversity (%d unique tools)", len(unique)), nil)
	default:
		return models.NewScore(0.5, "Low tool diversity - may be overusing specific tools", nil)
	}
}

func toolLatency(trace *models.Trace) models.Score {
	total := 0.0
	for _, tc := range trace.ToolCalls {
		total += tc.DurationMs
	}
	avg := total / float64(len(trace.ToolCalls))

	switch {
	case avg < 500:
		return models.NewScore(0.9, fmt.Sprintf("Fast tool calls (avg %.0fms)", avg), nil)
	case avg < 2000:
		return models.NewScore(0.7, fmt.Sprintf("Moderate tool latency (avg %.0fms)", avg), nil)
	default:
		return models.NewScore(0.5, fmt.Sprintf("Slow tool calls (avg %.0fms)", avg), nil)
	}
}
