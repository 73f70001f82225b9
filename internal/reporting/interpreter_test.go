package reporting

import (
	"testing"
	"time"

	"github.com/spboyer/agentra/models"
	"github.com/spboyer/agentra/statistics"
	"github.com/stretchr/testify/assert"
)

func newTestResult() *models.EvaluationResult {
	return &models.EvaluationResult{
		SystemName: "support-bot",
		Score:      0.78,
		Status:     models.StatusGood,
		Summary:    "3 traces evaluated. Score: 78% (good). 2 issues found.",
		Categories: []models.CategoryResult{
			{Name: "functional", Score: 0.9, Weight: 0.2},
			{Name: "performance", Score: 0.55, Weight: 0.1, Issues: []string{"Slow response"}},
			{Name: "safety", Score: 1.0, Weight: 0.15},
		},
		TraceResults: []models.TraceResult{
			{TraceID: "7f0c6a52-2f4b", TraceName: "refund", Score: 0.92, DurationMs: 1200, ModelCallsCount: 2, ToolCallsCount: 1},
			{TraceID: "c91b44e0-1d2a", Score: 0.41, DurationMs: 4100, ModelCallsCount: 5, ToolCallsCount: 3,
				Categories: []models.CategoryResult{{Name: "performance", Score: 0.3}, {Name: "functional", Score: 0.8}},
				Issues:     []string{"Slow response", "Tool error"}},
			{TraceID: "0aa1", TraceName: "billing", Score: 1.0, DurationMs: 700, ModelCallsCount: 1},
		},
		Issues:          []string{"Slow response", "Tool error"},
		Recommendations: []string{"Improve performance: score is 55%", "Optimize for performance"},
		TotalTraces:     3,
		TotalModelCalls: 8,
		TotalToolCalls:  4,
		TotalTokens:     12345,
		TotalDurationMs: 6000,
		AgentsObserved:  []string{"planner", "researcher"},
		ToolsObserved:   []string{"lookup_refund", "search"},
		Stats: &models.ScoreStats{
			MinScore: 0.41, MaxScore: 1.0, StdDev: 0.26,
			BootstrapCI: statistics.ConfidenceInterval{Lower: 0.45, Upper: 0.97, Mean: 0.78, ConfidenceLevel: 0.95, NumBootstraps: 2000},
		},
		Timestamp: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		Version:   models.Version,
	}
}

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, "★", StatusIcon(models.StatusExcellent))
	assert.Equal(t, "●", StatusIcon(models.StatusGood))
	assert.Equal(t, "○", StatusIcon(models.StatusFair))
	assert.Equal(t, "✗", StatusIcon(models.StatusPoor))
	assert.Empty(t, StatusIcon("unknown"))
}

func TestInterpretStatus(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.95, "Excellent"},
		{0.90, "Excellent"},
		{0.89, "Good"},
		{0.75, "Good"},
		{0.74, "Fair"},
		{0.60, "Fair"},
		{0.59, "Poor"},
		{0, "Poor"},
	}
	for _, tt := range tests {
		got := InterpretStatus(models.ClassifyStatus(tt.score))
		assert.Contains(t, got, tt.want, "score %.2f", tt.score)
	}
}

func TestInterpretSpread(t *testing.T) {
	tests := []struct {
		name     string
		lower    float64
		upper    float64
		contains string
	}{
		{"narrow", 0.80, 0.85, "consistent"},
		{"medium", 0.70, 0.85, "somewhat variable"},
		{"wide", 0.40, 0.95, "highly variable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := &models.ScoreStats{BootstrapCI: statistics.ConfidenceInterval{
				Lower: tt.lower, Upper: tt.upper, ConfidenceLevel: 0.95, NumBootstraps: 2000,
			}}
			assert.Contains(t, InterpretSpread(stats), tt.contains)
		})
	}

	assert.Empty(t, InterpretSpread(nil))

	single := &models.ScoreStats{BootstrapCI: statistics.ConfidenceInterval{Lower: 0.6, Upper: 0.6, Mean: 0.6}}
	assert.Equal(t, "Single trace scored 60%.", InterpretSpread(single))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "3 traces | Score: 78% (good) | 8 LLM calls | 2 issues", Summary(newTestResult()))
}

func TestFormatInterpretation(t *testing.T) {
	report := FormatInterpretation(newTestResult())

	assert.Contains(t, report, "=== Interpretation ===")
	assert.Contains(t, report, "Overall Score: 78%")
	assert.Contains(t, report, "Good (75-90%)")
	assert.Contains(t, report, "95% confidence interval 45%-97%")
	assert.Contains(t, report, "Weakest:       performance (55%)")
	assert.NotContains(t, report, "safety")
}

func TestFormatInterpretation_NoStats(t *testing.T) {
	report := FormatInterpretation(&models.EvaluationResult{Status: models.StatusPoor})
	assert.Contains(t, report, "Interpretation")
	assert.NotContains(t, report, "Consistency")
	assert.NotContains(t, report, "Weakest")
}
