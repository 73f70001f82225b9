package capture

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/spboyer/agentra/models"
)

// TraceHook is called with every trace the collector stores.
type TraceHook func(trace *models.Trace)

// Collector captures traces for one system under evaluation and keeps the closed
// traces for later evaluation or export. It is safe for concurrent use.
type Collector struct {
	systemName  string
	description string
	sampleRate  float64
	hooks       []TraceHook

	// sample is swapped in tests.
	sample func() float64

	mu     sync.Mutex
	traces []*models.Trace
}

// CollectorOption configures a [Collector].
type CollectorOption func(*Collector)

// WithDescription describes what the system does. Judge prompts use it as context.
func WithDescription(description string) CollectorOption {
	return func(c *Collector) {
		c.description = description
	}
}

// WithSampleRate sets the fraction of runs that are captured, in [0, 1].
func WithSampleRate(rate float64) CollectorOption {
	return func(c *Collector) {
		c.sampleRate = models.Clamp(rate)
	}
}

// WithTraceHook registers a hook that runs for every stored trace.
func WithTraceHook(hook TraceHook) CollectorOption {
	return func(c *Collector) {
		c.hooks = append(c.hooks, hook)
	}
}

// NewCollector creates a collector for the named system.
func NewCollector(systemName string, opts ...CollectorOption) *Collector {
	c := &Collector{
		systemName: systemName,
		sampleRate: 1.0,
		sample:     rand.Float64,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SystemName is the name of the system being evaluated.
func (c *Collector) SystemName() string { return c.systemName }

// Description is the system description given with [WithDescription].
func (c *Collector) Description() string { return c.description }

func (c *Collector) sampled() bool {
	if c.sampleRate >= 1.0 {
		return true
	}
	return c.sample() < c.sampleRate
}

// Trace runs fn inside a new trace and stores the trace once it closes, including
// traces whose fn failed. The error from fn is returned unchanged. Runs that are
// sampled out execute fn without capturing anything.
func (c *Collector) Trace(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if !c.sampled() {
		return fn(ctx)
	}

	ctx, rec := Open(ctx, name)
	defer c.finish(rec)

	return runRecorded(ctx, rec, fn)
}

// runRecorded closes rec with the outcome of fn, including panics.
func runRecorded(ctx context.Context, rec *Recorder, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			rec.Close(panicError(p))
			panic(p)
		}
		rec.Close(err)
	}()

	return fn(ctx)
}

func (c *Collector) finish(rec *Recorder) {
	trace := rec.Trace()
	c.store(trace)

	for _, hook := range c.hooks {
		hook(trace)
	}
}

func (c *Collector) store(traces ...*models.Trace) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.traces = append(c.traces, traces...)
}

// Agent marks an agent boundary inside the current trace. See [Agent].
func (c *Collector) Agent(ctx context.Context, name, role string, fn func(ctx context.Context) error) error {
	return Agent(ctx, name, role, fn)
}

// Wrap decorates an agent entry point so every call is captured as a trace named name.
// The argument is recorded as the trace input and the result as its output.
func Wrap[In, Out any](c *Collector, name string, fn func(ctx context.Context, in In) (Out, error)) func(ctx context.Context, in In) (Out, error) {
	return func(ctx context.Context, in In) (Out, error) {
		var out Out

		err := c.Trace(ctx, name, func(ctx context.Context) error {
			SetInput(ctx, in)

			var err error
			out, err = fn(ctx, in)
			if err != nil {
				return err
			}

			SetOutput(ctx, out)
			return nil
		})

		return out, err
	}
}

// Traces returns the stored traces in capture order.
func (c *Collector) Traces() []*models.Trace {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.traces)
}

// Add stores previously captured traces, for example ones loaded from an export.
func (c *Collector) Add(traces ...*models.Trace) {
	c.store(traces...)
}

// Clear drops every stored trace.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	slog.Debug("Clearing captured traces", "system", c.systemName, "count", len(c.traces))
	c.traces = nil
}

// Coverage reports which agents and tools were exercised by the stored traces.
type Coverage struct {
	Agents     []string `json:"agents"`
	Tools      []string `json:"tools"`
	Traces     int      `json:"traces"`
	ModelCalls int      `json:"model_calls"`
	ToolCalls  int      `json:"tool_calls"`
}

// Coverage summarizes the stored traces.
func (c *Collector) Coverage() Coverage {
	traces := c.Traces()

	cov := Coverage{Traces: len(traces)}
	agents := map[string]bool{}
	tools := map[string]bool{}

	for _, t := range traces {
		for _, span := range t.AgentSpans {
			agents[span.Name] = true
		}
		for _, tc := range t.ToolCalls {
			tools[tc.Name] = true
		}
		cov.ModelCalls += len(t.ModelCalls)
		cov.ToolCalls += len(t.ToolCalls)
	}

	cov.Agents = sortedKeys(agents)
	cov.Tools = sortedKeys(tools)
	return cov
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
