package evaluators

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/spboyer/agentra/models"
)

// OutputQualityWeight is the compiled-in weight of the output quality category.
const OutputQualityWeight = 0.20

type outputQualityEvaluator struct {
	scorer Scorer
}

// NewOutputQualityEvaluator creates the output quality evaluator.
func NewOutputQualityEvaluator(scorer Scorer) Evaluator {
	return &outputQualityEvaluator{scorer: scorer}
}

func (e *outputQualityEvaluator) Name() string    { return CategoryOutputQuality }
func (e *outputQualityEvaluator) Weight() float64 { return OutputQualityWeight }

func (e *outputQualityEvaluator) Evaluate(ctx context.Context, trace *models.Trace, systemDescription string) *models.CategoryResult {
	cat := newCategory(CategoryOutputQuality, OutputQualityWeight)

	if trace == nil || models.IsEmpty(trace.Output) {
		cat.issue("No output generated")
		return cat.fixed("no_output", models.NewScore(0.0, "No output generated", nil))
	}

	input, output := models.Stringify(trace.Input), models.Stringify(trace.Output)

	clarity := e.scorer.Evaluate(ctx, "Is the output clear, well-structured, and easy to understand?", input, output, systemDescription)
	cat.check("clarity", clarity, issueThreshold, "Output may be unclear or poorly structured")

	completeness := e.scorer.Evaluate(ctx, "Is the output complete and comprehensive?", input, output, systemDescription)
	cat.check("completeness", completeness, issueThreshold, "Output may be incomplete")

	cat.check("format", outputFormat(output), issueThreshold, "Output format may be inconsistent")

	return cat.result(0)
}

const (
	minOutputLen      = 10
	maxWordRepeats    = 10
	shoutingMinLength = 20
)

// outputFormat applies simple formatting heuristics to the rendered output.
func outputFormat(output string) models.Score {
	var problems []string

	if len([]rune(strings.TrimSpace(output))) < minOutputLen {
		problems = append(problems, "Output is very short")
	}

	counts := map[string]int{}
	maxCount := 0
	for _, word := range strings.Fields(strings.ToLower(output)) {
		counts[word]++
		maxCount = max(maxCount, counts[word])
	}
	if maxCount > maxWordRepeats {
		problems = append(problems, "Excessive word repetition")
	}

	if len([]rune(output)) > shoutingMinLength && isUpper(output) {
		problems = append(problems, "Output is all uppercase")
	}

	if len(problems) > 0 {
		return models.NewScore(0.6, fmt.Sprintf("Format issues: %s", strings.Join(problems, ", ")), map[string]any{
			"issues": problems,
		})
	}

	return models.NewScore(0.9, "Output format appears good", nil)
}

// isUpper reports whether s has at least one cased letter and no lowercase ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}
