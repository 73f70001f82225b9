package evaluators

import (
	"context"
	"fmt"

	"github.com/spboyer/agentra/models"
)

// FunctionalWeight is the compiled-in weight of the functional category.
const FunctionalWeight = 0.20

// functionalEvaluator checks whether the agent completed the task correctly.
type functionalEvaluator struct {
	scorer Scorer
}

// NewFunctionalEvaluator creates the functional completion evaluator.
func NewFunctionalEvaluator(scorer Scorer) Evaluator {
	return &functionalEvaluator{scorer: scorer}
}

func (e *functionalEvaluator) Name() string    { return CategoryFunctional }
func (e *functionalEvaluator) Weight() float64 { return FunctionalWeight }

func (e *functionalEvaluator) Evaluate(ctx context.Context, trace *models.Trace, systemDescription string) *models.CategoryResult {
	cat := newCategory(CategoryFunctional, FunctionalWeight)
	if trace == nil {
		return cat.result(0)
	}

	input, output := models.Stringify(trace.Input), models.Stringify(trace.Output)
	answered := !models.IsEmpty(trace.Input) && !models.IsEmpty(trace.Output)

	if answered {
		score := e.scorer.Evaluate(ctx, "Did the agent complete the requested task?", input, output, systemDescription)
		cat.check("task_completion", score, issueThreshold,
			fmt.Sprintf("Task may be incomplete: %s...", models.Truncate(input, 50)))
	}

	if trace.Error == "" {
		score := e.scorer.Evaluate(ctx, "Is the output correct and appropriate for the input?", input, output, systemDescription)
		cat.check("correctness", score, issueThreshold, "Output may be incorrect")
	} else {
		cat.check("correctness", models.NewScore(0.0, fmt.Sprintf("Error occurred: %s", trace.Error), nil), 0, "")
		cat.issue(fmt.Sprintf("Execution error: %s", trace.Error))
	}

	if answered {
		score := e.scorer.Evaluate(ctx, "Does the output fully address all aspects of the input request?", input, output, systemDescription)
		cat.check("completeness", score, issueThreshold, "Response may be incomplete")
	}

	return cat.result(0)
}
