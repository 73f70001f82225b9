package orchestration

import (
	"context"

	"github.com/spboyer/agentra/evaluators"
	"github.com/spboyer/agentra/judge"
	"github.com/spboyer/agentra/models"
)

// Evaluate scores traces with the six default evaluators and returns the aggregate
// result. scorer answers the judged checks; a nil scorer gives every judged check the
// neutral score. weights overrides the category weights as [WithWeights] does.
func Evaluate(ctx context.Context, traces []*models.Trace, systemName, systemDescription string, scorer evaluators.Scorer, weights map[string]float64) *models.EvaluationResult {
	if scorer == nil {
		scorer = judge.New(nil)
	}
	return NewRunner(evaluators.Defaults(scorer), WithWeights(weights)).Evaluate(ctx, traces, systemName, systemDescription)
}
