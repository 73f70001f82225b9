// Package orchestration drives the category evaluators over a set of traces and folds
// the results into one [models.EvaluationResult].
package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spboyer/agentra/evaluators"
	"github.com/spboyer/agentra/models"
	"github.com/spboyer/agentra/internal/session"
	"github.com/spboyer/agentra/statistics"
	"golang.org/x/sync/errgroup"
)

// DefaultWeights is the compiled-in category weight table.
var DefaultWeights = map[string]float64{
	evaluators.CategoryFunctional:    evaluators.FunctionalWeight,
	evaluators.CategoryReasoning:     evaluators.ReasoningWeight,
	evaluators.CategoryToolUsage:     evaluators.ToolUsageWeight,
	evaluators.CategoryOutputQuality: evaluators.OutputQualityWeight,
	evaluators.CategoryPerformance:   evaluators.PerformanceWeight,
	evaluators.CategorySafety:        evaluators.SafetyWeight,
}

// DefaultFallbackWeight applies to any category missing from the weight table. It does
// not fall back to the evaluator's own weight.
const DefaultFallbackWeight = 0.1

// recommendThreshold is the aggregated category score below which a category gets a
// dedicated recommendation.
const recommendThreshold = 0.7

// statsSeed keeps bootstrap intervals reproducible across runs over the same traces.
const statsSeed = 20240917

// Empty result sentinel.
const (
	noTracesSummary        = "No traces to evaluate"
	noTracesIssue          = "No traces captured"
	noTracesRecommendation = "Run your agent to capture traces"
)

// Runner orchestrates the evaluation of traces
type Runner struct {
	evaluators []evaluators.Evaluator
	weights    map[string]float64
	workers    int
	logger     session.Logger

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventEvaluationStart    EventType = "evaluation_start"
	EventEvaluationComplete EventType = "evaluation_complete"
	EventTraceStart         EventType = "trace_start"
	EventTraceComplete      EventType = "trace_complete"
	EventCategoryResult     EventType = "category_result"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType   EventType
	TraceName   string
	TraceNum    int
	TotalTraces int
	Category    string
	Score       float64
	DurationMs  int64
	Details     map[string]any
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWeights overrides the weight table. Categories missing from weights are weighted
// with [DefaultFallbackWeight]. A nil map keeps [DefaultWeights].
func WithWeights(weights map[string]float64) RunnerOption {
	return func(r *Runner) {
		if weights == nil {
			return
		}
		r.weights = make(map[string]float64, len(weights))
		for k, v := range weights {
			r.weights[k] = v
		}
	}
}

// WithWorkers sets how many traces are scored concurrently. Values below 1 mean 1.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		r.workers = max(n, 1)
	}
}

// WithSessionLogger records evaluation events to logger.
func WithSessionLogger(logger session.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a runner for the given evaluators, which run in the order given.
func NewRunner(evals []evaluators.Evaluator, opts ...RunnerOption) *Runner {
	r := &Runner{
		evaluators: evals,
		weights:    DefaultWeights,
		workers:    1,
		logger:     session.NopLogger{},
		listeners:  []ProgressListener{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// OnProgress registers a progress listener. Listeners may be called from several
// goroutines when more than one worker is configured.
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Weight returns the weight applied to a category.
func (r *Runner) Weight(category string) float64 {
	if w, ok := r.weights[category]; ok {
		return w
	}
	return DefaultFallbackWeight
}

func (r *Runner) logEvent(ctx context.Context, t session.EventType, data map[string]any) {
	if err := r.logger.Log(session.NewEvent(t, data)); err != nil {
		slog.WarnContext(ctx, "writing session event", "type", t, "error", err)
	}
}

// Evaluate scores every trace with every evaluator and aggregates the result. It never
// fails: evaluator problems are folded into degraded scores and issues. Nil traces are
// ignored.
func (r *Runner) Evaluate(ctx context.Context, traces []*models.Trace, systemName, systemDescription string) *models.EvaluationResult {
	traces = slices.DeleteFunc(slices.Clone(traces), func(t *models.Trace) bool { return t == nil })
	if len(traces) == 0 {
		return emptyResult(systemName)
	}

	startTime := time.Now()

	names := make([]string, 0, len(r.evaluators))
	for _, e := range r.evaluators {
		names = append(names, e.Name())
	}
	r.logEvent(ctx, session.EventSessionStart, session.SessionStartData(systemName, names, len(traces)))
	r.notifyProgress(ProgressEvent{EventType: EventEvaluationStart, TotalTraces: len(traces)})

	traceResults := r.scoreTraces(ctx, traces, systemDescription)

	result := r.aggregate(systemName, traces, traceResults)
	result.Stats = scoreStats(traceResults)

	durationMs := time.Since(startTime).Milliseconds()
	r.logEvent(ctx, session.EventSessionEnd, session.SessionCompleteData(
		len(traces), result.Score, string(result.Status), len(result.Issues), durationMs))
	r.notifyProgress(ProgressEvent{
		EventType:   EventEvaluationComplete,
		TotalTraces: len(traces),
		Score:       result.Score,
		DurationMs:  durationMs,
		Details:     map[string]any{"status": string(result.Status), "issues": len(result.Issues)},
	})

	return result
}

// scoreTraces evaluates traces with up to r.workers goroutines. Results keep the input order.
func (r *Runner) scoreTraces(ctx context.Context, traces []*models.Trace, systemDescription string) []models.TraceResult {
	results := make([]models.TraceResult, len(traces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, trace := range traces {
		g.Go(func() error {
			results[i] = r.scoreTrace(gctx, trace, i+1, len(traces), systemDescription)
			return nil
		})
	}

	// scoreTrace never returns an error
	_ = g.Wait()

	return results
}

func (r *Runner) scoreTrace(ctx context.Context, trace *models.Trace, traceNum, totalTraces int, systemDescription string) models.TraceResult {
	tr := models.TraceResult{
		TraceID:         trace.ID,
		TraceName:       trace.Name,
		Categories:      make([]models.CategoryResult, 0, len(r.evaluators)),
		Issues:          []string{},
		InputPreview:    models.Preview(trace.Input),
		OutputPreview:   models.Preview(trace.Output),
		DurationMs:      trace.DurationMs,
		ModelCallsCount: len(trace.ModelCalls),
		ToolCallsCount:  len(trace.ToolCalls),
	}
	name := tr.DisplayName()

	r.logEvent(ctx, session.EventTraceStart, session.TraceStartData(name, traceNum, totalTraces))
	r.notifyProgress(ProgressEvent{
		EventType:   EventTraceStart,
		TraceName:   name,
		TraceNum:    traceNum,
		TotalTraces: totalTraces,
	})

	start := time.Now()
	for _, e := range r.evaluators {
		cat := r.runEvaluator(ctx, e, trace, systemDescription)

		tr.Categories = append(tr.Categories, cat)
		tr.Issues = append(tr.Issues, cat.Issues...)
		tr.Score += cat.Score * r.Weight(cat.Name)

		r.logEvent(ctx, session.EventCategoryResult, session.CategoryResultData(name, cat.Name, cat.Score, cat.Weight, cat.Issues))
		r.notifyProgress(ProgressEvent{
			EventType:   EventCategoryResult,
			TraceName:   name,
			TraceNum:    traceNum,
			TotalTraces: totalTraces,
			Category:    cat.Name,
			Score:       cat.Score,
		})
	}
	durationMs := time.Since(start).Milliseconds()

	r.logEvent(ctx, session.EventTraceComplete, session.TraceCompleteData(name, tr.Score, len(tr.Issues), durationMs))
	r.notifyProgress(ProgressEvent{
		EventType:   EventTraceComplete,
		TraceName:   name,
		TraceNum:    traceNum,
		TotalTraces: totalTraces,
		Score:       tr.Score,
		DurationMs:  durationMs,
	})

	return tr
}

// runEvaluator runs one evaluator, turning a panic or a nil result into a zero score.
func (r *Runner) runEvaluator(ctx context.Context, e evaluators.Evaluator, trace *models.Trace, systemDescription string) (cat models.CategoryResult) {
	defer func() {
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "evaluator panicked", "category", e.Name(), "trace", trace.ID, "panic", p)
			msg := fmt.Sprintf("%s evaluator failed: %v", e.Name(), p)
			r.logEvent(ctx, session.EventError, session.ErrorData(msg, map[string]any{"category": e.Name(), "trace_id": trace.ID}))
			cat = failedCategory(e, msg)
		}
	}()

	res := e.Evaluate(ctx, trace, systemDescription)
	if res == nil {
		return failedCategory(e, fmt.Sprintf("%s evaluator returned no result", e.Name()))
	}
	return *res
}

func failedCategory(e evaluators.Evaluator, issue string) models.CategoryResult {
	return models.CategoryResult{
		Name:   e.Name(),
		Score:  0,
		Weight: e.Weight(),
		Checks: map[string]models.Score{},
		Issues: []string{issue},
	}
}

func (r *Runner) aggregate(systemName string, traces []*models.Trace, traceResults []models.TraceResult) *models.EvaluationResult {
	categories := make([]models.CategoryResult, 0, len(r.evaluators))
	overall := 0.0
	for i, e := range r.evaluators {
		total := 0.0
		for _, tr := range traceResults {
			total += tr.Categories[i].Score
		}
		cat := models.CategoryResult{
			Name:   e.Name(),
			Score:  total / float64(len(traceResults)),
			Weight: r.Weight(e.Name()),
			Checks: map[string]models.Score{},
			Issues: []string{},
		}
		overall += cat.Score * cat.Weight
		categories = append(categories, cat)
	}

	issues := uniqueIssues(traceResults)
	status := models.ClassifyStatus(overall)

	result := &models.EvaluationResult{
		SystemName:      systemName,
		Score:           overall,
		Status:          status,
		Categories:      categories,
		TraceResults:    traceResults,
		Summary:         fmt.Sprintf("%d traces evaluated. Score: %.0f%% (%s). %d issues found.", len(traces), overall*100, status, len(issues)),
		Issues:          issues,
		Recommendations: recommendations(categories, issues),
		TotalTraces:     len(traces),
		AgentsObserved:  []string{},
		ToolsObserved:   []string{},
		Timestamp:       time.Now().UTC(),
		Version:         models.Version,
	}

	agents := map[string]struct{}{}
	tools := map[string]struct{}{}
	for _, t := range traces {
		result.TotalModelCalls += len(t.ModelCalls)
		result.TotalToolCalls += len(t.ToolCalls)
		result.TotalTokens += t.TotalTokens()
		result.TotalDurationMs += t.DurationMs
		for _, s := range t.AgentSpans {
			if s != nil {
				agents[s.Name] = struct{}{}
			}
		}
		for _, tc := range t.ToolCalls {
			tools[tc.Name] = struct{}{}
		}
	}
	result.AgentsObserved = sortedKeys(agents)
	result.ToolsObserved = sortedKeys(tools)

	return result
}

func uniqueIssues(traceResults []models.TraceResult) []string {
	seen := map[string]struct{}{}
	issues := []string{}
	for _, tr := range traceResults {
		for _, issue := range tr.Issues {
			if _, ok := seen[issue]; ok {
				continue
			}
			seen[issue] = struct{}{}
			issues = append(issues, issue)
		}
	}
	return issues
}

func recommendations(categories []models.CategoryResult, issues []string) []string {
	recs := []string{}
	for _, cat := range categories {
		if cat.Score < recommendThreshold {
			recs = append(recs, fmt.Sprintf("Improve %s: score is %.0f%%", cat.Name, cat.Score*100))
		}
	}

	mentions := func(words ...string) bool {
		for _, issue := range issues {
			lower := strings.ToLower(issue)
			for _, w := range words {
				if strings.Contains(lower, w) {
					return true
				}
			}
		}
		return false
	}

	if mentions("error") {
		recs = append(recs, "Add better error handling")
	}
	if mentions("slow", "latency") {
		recs = append(recs, "Optimize for performance")
	}
	if mentions("incomplete") {
		recs = append(recs, "Ensure outputs fully address inputs")
	}
	return recs
}

func scoreStats(traceResults []models.TraceResult) *models.ScoreStats {
	scores := make([]float64, 0, len(traceResults))
	minScore, maxScore := math.Inf(1), math.Inf(-1)
	for _, tr := range traceResults {
		scores = append(scores, tr.Score)
		minScore = min(minScore, tr.Score)
		maxScore = max(maxScore, tr.Score)
	}

	return &models.ScoreStats{
		MinScore:    minScore,
		MaxScore:    maxScore,
		StdDev:      models.ComputeStdDev(scores),
		BootstrapCI: statistics.ScoreInterval(scores, statistics.DefaultConfidenceLevel, statsSeed),
	}
}

func emptyResult(systemName string) *models.EvaluationResult {
	return &models.EvaluationResult{
		SystemName:      systemName,
		Score:           0,
		Status:          models.StatusPoor,
		Categories:      []models.CategoryResult{},
		TraceResults:    []models.TraceResult{},
		Summary:         noTracesSummary,
		Issues:          []string{noTracesIssue},
		Recommendations: []string{noTracesRecommendation},
		AgentsObserved:  []string{},
		ToolsObserved:   []string{},
		Timestamp:       time.Now().UTC(),
		Version:         models.Version,
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
