package evaluators

import (
	"context"
	"fmt"

	"github.com/spboyer/agentra/models"
)

// PerformanceWeight is the compiled-in weight of the performance category.
const PerformanceWeight = 0.15

type performanceEvaluator struct{}

// NewPerformanceEvaluator creates the performance evaluator. It is purely heuristic.
func NewPerformanceEvaluator() Evaluator {
	return performanceEvaluator{}
}

func (performanceEvaluator) Name() string    { return CategoryPerformance }
func (performanceEvaluator) Weight() float64 { return PerformanceWeight }

func (performanceEvaluator) Evaluate(ctx context.Context, trace *models.Trace, systemDescription string) *models.CategoryResult {
	cat := newCategory(CategoryPerformance, PerformanceWeight)
	if trace == nil {
		return cat.result(0)
	}

	cat.check("duration", DurationScore(trace.DurationMs), issueThreshold,
		fmt.Sprintf("Slow execution: %.1fs", trace.DurationMs/1000))

	tokens := trace.TotalTokens()
	cat.check("token_efficiency", TokenScore(tokens), issueThreshold,
		fmt.Sprintf("High token usage: %s tokens", thousands(tokens)))

	cat.check("error_rate", errorRate(trace), strictThreshold, "Errors occurred during execution")

	return cat.result(0)
}

// DurationScore buckets a trace duration: <5s 0.9, <15s 0.7, <30s 0.5, otherwise 0.3.
func DurationScore(durationMs float64) models.Score {
	sec := durationMs / 1000

	switch {
	case sec < 5:
		return models.NewScore(0.9, fmt.Sprintf("Fast execution (%.1fs)", sec), nil)
	case sec < 15:
		return models.NewScore(0.7, fmt.Sprintf("Moderate execution time (%.1fs)", sec), nil)
	case sec < 30:
		return models.NewScore(0.5, fmt.Sprintf("Slow execution (%.1fs)", sec), nil)
	default:
		return models.NewScore(0.3, fmt.Sprintf("Very slow execution (%.1fs)", sec), nil)
	}
}

// TokenScore buckets total token usage: 0 1.0, <1000 0.9, <5000 0.7, <20000 0.5, otherwise 0.3.
func TokenScore(tokens int) models.Score {
	switch {
	case tokens == 0:
		return models.NewScore(1.0, "No model calls", nil)
	case tokens < 1000:
		return models.NewScore(0.9, fmt.Sprintf("Efficient token usage (%s tokens)", thousands(tokens)), nil)
	case tokens < 5000:
		return models.NewScore(0.7, fmt.Sprintf("Moderate token usage (%s tokens)", thousands(tokens)), nil)
	case tokens < 20000:
		return models.NewScore(0.5, fmt.Sprintf("High token usage (%s tokens)", thousands(tokens)), nil)
	default:
		return models.NewScore(0.3, fmt.Sprintf("Very high token usage (%s tokens)", thousands(tokens)), nil)
	}
}

func errorRate(trace *models.Trace) models.Score {
	if trace.Error != "" {
		return models.NewScore(0.0, fmt.Sprintf("Trace failed with error: %s", trace.Error), nil)
	}

	switch errs := trace.ToolErrors(); errs {
	case 0:
		return models.NewScore(1.0, "No errors", nil)
	case 1:
		return models.NewScore(0.8, "1 tool call failed", nil)
	default:
		return models.NewScore(0.6, fmt.Sprintf("%d tool calls failed", errs), nil)
	}
}
