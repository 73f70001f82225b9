package evaluators

import (
	"context"
	"fmt"
	"strings"

	"github.com/spboyer/agentra/models"
)

// ReasoningWeight is the compiled-in weight of the reasoning category.
const ReasoningWeight = 0.15

const (
	// reasoningCallsJudged is how many model calls are shown to the judge.
	reasoningCallsJudged = 3
	reasoningExcerptLen  = 200
)

// reasoningEvaluator checks the quality of the agent's reasoning steps.
type reasoningEvaluator struct {
	scorer Scorer
}

// NewReasoningEvaluator creates the reasoning quality evaluator.
func NewReasoningEvaluator(scorer Scorer) Evaluator {
	return &reasoningEvaluator{scorer: scorer}
}

func (e *reasoningEvaluator) Name() string    { return CategoryReasoning }
func (e *reasoningEvaluator) Weight() float64 { return ReasoningWeight }

func (e *reasoningEvaluator) Evaluate(ctx context.Context, trace *models.Trace, systemDescription string) *models.CategoryResult {
	cat := newCategory(CategoryReasoning, ReasoningWeight)
	if trace == nil {
		return cat.result(0.5)
	}

	if conversation := extractConversation(trace); conversation != "" {
		input := "N/A"
		if !models.IsEmpty(trace.Input) {
			input = models.Stringify(trace.Input)
		}

		score := e.scorer.Evaluate(ctx, "Is the agent's reasoning logical and consistent?", input, conversation, systemDescription)
		cat.check("logical_consistency", score, issueThreshold, "Reasoning may be inconsistent or illogical")
	}

	if len(trace.ToolCalls) > 0 {
		cat.check("tool_selection", toolSelection(trace), issueThreshold, "Tool selection may be suboptimal")
	}

	cat.check("efficiency", stepEfficiency(trace), issueThreshold, "Agent may be taking inefficient steps")

	return cat.result(0.5)
}

// extractConversation renders the first model calls as alternating query/response lines.
func extractConversation(trace *models.Trace) string {
	var parts []string

	for _, call := range trace.ModelCalls[:min(len(trace.ModelCalls), reasoningCallsJudged)] {
		if n := len(call.Messages); n > 0 {
			content := models.Stringify(call.Messages[n-1]["content"])
			parts = append(parts, "Query: "+models.Truncate(content, reasoningExcerptLen))
		}
		parts = append(parts, "Response: "+models.Truncate(call.Response, reasoningExcerptLen))
	}

	return strings.Join(parts, "\n")
}

func toolSelection(trace *models.Trace) models.Score {
	errorRate := float64(trace.ToolErrors()) / float64(len(trace.ToolCalls))
	details := map[string]any{"error_rate": errorRate}

	switch {
	case errorRate > 0.3:
		return models.NewScore(0.4, fmt.Sprintf("%s of tool calls failed", percent(errorRate)), details)
	case errorRate > 0.1:
		return models.NewScore(0.7, fmt.Sprintf("%s of tool calls failed", percent(errorRate)), details)
	default:
		return models.NewScore(0.9, "Tool calls executed successfully", details)
	}
}

func stepEfficiency(trace *models.Trace) models.Score {
	calls := len(trace.ModelCalls)
	details := map[string]any{"model_calls": calls}

	switch {
	case calls == 0:
		return models.NewScore(0.5, "No model calls to evaluate", nil)
	case calls > 10:
		return models.NewScore(0.6, fmt.Sprintf("High number of model calls (%d) may indicate inefficiency", calls), details)
	case calls > 5:
		return models.NewScore(0.8, fmt.Sprintf("Moderate number of model calls (%d)", calls), details)
	default:
		return models.NewScore(0.9, fmt.Sprintf("Efficient use of model calls (%d)", calls), details)
	}
}
