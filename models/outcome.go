package models

import (
	"math"
	"time"

	"github.com/spboyer/agentra/statistics"
)

// Version is stamped on every [EvaluationResult].
const Version = "0.1.0"

// Status is the discrete classification of an overall score.
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusFair      Status = "fair"
	StatusPoor      Status = "poor"
)

// Status thresholds, inclusive at the lower bound of each band.
const (
	ExcellentThreshold = 0.90
	GoodThreshold      = 0.75
	FairThreshold      = 0.60
)

// ClassifyStatus maps an overall score onto a [Status].
func ClassifyStatus(score float64) Status {
	switch {
	case score >= ExcellentThreshold:
		return StatusExcellent
	case score >= GoodThreshold:
		return StatusGood
	case score >= FairThreshold:
		return StatusFair
	default:
		return StatusPoor
	}
}

// Score is a single bounded judgment, produced either by a heuristic or by a model judge.
type Score struct {
	Value   float64        `json:"value"`
	Reason  string         `json:"reason"`
	Details map[string]any `json:"details,omitempty"`
}

// NewScore creates a [Score], clamping value into [0, 1].
func NewScore(value float64, reason string, details map[string]any) Score {
	return Score{
		Value:   Clamp(value),
		Reason:  reason,
		Details: details,
	}
}

// Clamp bounds v to [0, 1]. NaN clamps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CategoryResult holds the result for one quality dimension.
type CategoryResult struct {
	Name   string           `json:"name"`
	Score  float64          `json:"score"`
	Weight float64          `json:"weight"`
	Checks map[string]Score `json:"checks"`
	Issues []string         `json:"issues"`
}

// TraceResult is the evaluation of a single trace.
type TraceResult struct {
	TraceID         string           `json:"trace_id"`
	TraceName       string           `json:"trace_name,omitempty"`
	Score           float64          `json:"score"`
	Categories      []CategoryResult `json:"categories"`
	Issues          []string         `json:"issues"`
	InputPreview    string           `json:"input_preview"`
	OutputPreview   string           `json:"output_preview"`
	DurationMs      float64          `json:"duration_ms"`
	ModelCallsCount int              `json:"model_calls_count"`
	ToolCallsCount  int              `json:"tool_calls_count"`
}

// DisplayName is the trace name, or the first 8 characters of its ID.
func (tr *TraceResult) DisplayName() string {
	if tr.TraceName != "" {
		return tr.TraceName
	}
	if len(tr.TraceID) > 8 {
		return tr.TraceID[:8]
	}
	return tr.TraceID
}

// ScoreStats summarizes the spread of trace scores.
type ScoreStats struct {
	MinScore    float64                       `json:"min_score"`
	MaxScore    float64                       `json:"max_score"`
	StdDev      float64                       `json:"std_dev"`
	BootstrapCI statistics.ConfidenceInterval `json:"bootstrap_ci"`
}

// EvaluationResult is the complete result of evaluating a set of traces.
type EvaluationResult struct {
	// Name is set when the result is saved.
	Name       string `json:"name"`
	SystemName string `json:"system_name"`

	Score  float64 `json:"score"`
	Status Status  `json:"status"`

	// Categories are per-category averages across traces.
	Categories   []CategoryResult `json:"categories"`
	TraceResults []TraceResult    `json:"trace_results"`

	Summary         string   `json:"summary"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`

	TotalTraces     int     `json:"total_traces"`
	TotalModelCalls int     `json:"total_model_calls"`
	TotalToolCalls  int     `json:"total_tool_calls"`
	TotalTokens     int     `json:"total_tokens"`
	TotalDurationMs float64 `json:"total_duration_ms"`

	AgentsObserved []string `json:"agents_observed"`
	ToolsObserved  []string `json:"tools_observed"`

	Stats *ScoreStats `json:"stats,omitempty"`

	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"agentra_version"`
}

// Category returns the aggregated category with the given name, or nil.
func (r *EvaluationResult) Category(name string) *CategoryResult {
	for i := range r.Categories {
		if r.Categories[i].Name == name {
			return &r.Categories[i]
		}
	}
	return nil
}

// MeanScore is the unweighted arithmetic mean of the check values, or fallback when there are none.
func MeanScore(checks map[string]Score, fallback float64) float64 {
	if len(checks) == 0 {
		return fallback
	}
	total := 0.0
	for _, s := range checks {
		total += s.Value
	}
	return Clamp(total / float64(len(checks)))
}

// ComputeStdDev returns the population standard deviation for a slice of float64 values.
func ComputeStdDev(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(n))
}
