// Package evaluators scores a trace along fixed quality dimensions.
package evaluators

import (
	"context"
	"fmt"

	"github.com/spboyer/agentra/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Category names, in the order [Defaults] runs them.
const (
	CategoryFunctional    = "functional"
	CategoryReasoning     = "reasoning"
	CategoryToolUsage     = "tool_usage"
	CategoryOutputQuality = "output_quality"
	CategoryPerformance   = "performance"
	CategorySafety        = "safety"
)

// Categories lists every category name in evaluation order.
var Categories = []string{
	CategoryFunctional,
	CategoryReasoning,
	CategoryToolUsage,
	CategoryOutputQuality,
	CategoryPerformance,
	CategorySafety,
}

// issueThreshold is the check value below which most checks report an issue.
const issueThreshold = 0.7

// strictThreshold applies to checks where anything short of clean is worth reporting.
const strictThreshold = 0.9

// Evaluator scores one quality dimension of a trace.
type Evaluator interface {
	// Name returns the category name
	Name() string

	// Weight returns the compiled-in weight of the category
	Weight() float64

	// Evaluate scores trace. It never panics on a nil or partially filled trace.
	Evaluate(ctx context.Context, trace *models.Trace, systemDescription string) *models.CategoryResult
}

// Scorer judges subjective criteria. [judge.Judge] implements it.
type Scorer interface {
	Evaluate(ctx context.Context, criteria, input, output, systemContext string) models.Score
}

// Defaults returns the six evaluators in their fixed evaluation order.
func Defaults(scorer Scorer) []Evaluator {
	return []Evaluator{
		NewFunctionalEvaluator(scorer),
		NewReasoningEvaluator(scorer),
		NewToolUsageEvaluator(),
		NewOutputQualityEvaluator(scorer),
		NewPerformanceEvaluator(),
		NewSafetyEvaluator(scorer),
	}
}

// Create creates the evaluator for a category name.
func Create(name string, scorer Scorer) (Evaluator, error) {
	switch name {
	case CategoryFunctional:
		return NewFunctionalEvaluator(scorer), nil
	case CategoryReasoning:
		return NewReasoningEvaluator(scorer), nil
	case CategoryToolUsage:
		return NewToolUsageEvaluator(), nil
	case CategoryOutputQuality:
		return NewOutputQualityEvaluator(scorer), nil
	case CategoryPerformance:
		return NewPerformanceEvaluator(), nil
	case CategorySafety:
		return NewSafetyEvaluator(scorer), nil
	default:
		return nil, fmt.Errorf("'%s' is not a valid evaluation category", name)
	}
}

// categoryBuilder accumulates checks and issues for one category result.
type categoryBuilder struct {
	name   string
	weight float64
	checks map[string]models.Score
	issues []string
}

func newCategory(name string, weight float64) *categoryBuilder {
	return &categoryBuilder{
		name:   name,
		weight: weight,
		checks: map[string]models.Score{},
		issues: []string{},
	}
}

// check records a sub-check and adds issue when its value is below threshold.
func (b *categoryBuilder) check(key string, score models.Score, threshold float64, issue string) {
	score.Value = models.Clamp(score.Value)
	b.checks[key] = score

	if issue != "" && score.Value < threshold {
		b.issues = append(b.issues, issue)
	}
}

func (b *categoryBuilder) issue(text string) {
	b.issues = append(b.issues, text)
}

// result averages the checks, or uses fallback when there are none.
func (b *categoryBuilder) result(fallback float64) *models.CategoryResult {
	return &models.CategoryResult{
		Name:   b.name,
		Score:  models.MeanScore(b.checks, fallback),
		Weight: b.weight,
		Checks: b.checks,
		Issues: b.issues,
	}
}

// fixed returns a result with a single check that decides the category score.
func (b *categoryBuilder) fixed(key string, score models.Score) *models.CategoryResult {
	b.check(key, score, 0, "")
	return b.result(score.Value)
}

var printer = message.NewPrinter(language.English)

// percent renders a ratio as a whole percentage, like "83%".
func percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}

// thousands renders n with thousands separators, like "12,345".
func thousands(n int) string {
	return printer.Sprintf("%d", n)
}
