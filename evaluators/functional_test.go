package evaluators

import (
	"context"
	"testing"

	"github.com/spboyer/agentra/models"
	"github.com/stretchr/testify/require"
)

func TestFunctional_AllChecks(t *testing.T) {
	scorer := &fakeScorer{value: 0.9}
	res := NewFunctionalEvaluator(scorer).Evaluate(context.Background(), completeTrace(), "a reporting agent")

	require.Equal(t, CategoryFunctional, res.Name)
	require.Equal(t, FunctionalWeight, res.Weight)
	require.Len(t, res.Checks, 3)
	require.Contains(t, res.Checks, "task_completion")
	require.Contains(t, res.Checks, "correctness")
	require.Contains(t, res.Checks, "completeness")
	require.InDelta(t, 0.9, res.Score, 1e-9)
	require.Empty(t, res.Issues)
	require.Equal(t, []string{"a reporting agent", "a reporting agent", "a reporting agent"}, scorer.contexts)
}

func TestFunctional_LowScoresRaiseIssues(t *testing.T) {
	res := NewFunctionalEvaluator(&fakeScorer{value: 0.5}).Evaluate(context.Background(), completeTrace(), "")

	require.Equal(t, []string{
		"Task may be incomplete: Summarize the quarterly report...",
		"Output may be incorrect",
		"Response may be incomplete",
	}, res.Issues)
}

func TestFunctional_TraceErrorForcesCorrectnessToZero(t *testing.T) {
	trace := completeTrace()
	trace.Error = "connection reset"

	scorer := &fakeScorer{value: 1.0}
	res := NewFunctionalEvaluator(scorer).Evaluate(context.Background(), trace, "")

	require.Equal(t, 0.0, res.Checks["correctness"].Value)
	require.Equal(t, "Error occurred: connection reset", res.Checks["correctness"].Reason)
	require.Equal(t, []string{"Execution error: connection reset"}, res.Issues)
	require.Equal(t, 2, scorer.calls())
	require.InDelta(t, 2.0/3.0, res.Score, 1e-9)
}

func TestFunctional_MissingOutputOnlyJudgesCorrectness(t *testing.T) {
	scorer := &fakeScorer{value: 0.8}
	res := NewFunctionalEvaluator(scorer).Evaluate(context.Background(), &models.Trace{Input: "hi"}, "")

	require.Len(t, res.Checks, 1)
	require.Contains(t, res.Checks, "correctness")
	require.Equal(t, 1, scorer.calls())
	require.InDelta(t, 0.8, res.Score, 1e-9)
}
