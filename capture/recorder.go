// Package capture records agent executions into traces.
//
// The active trace travels in a [context.Context]. Call sites that only hold a ctx (model
// client wrappers, tool dispatchers, framework callbacks) report into whatever trace is
// current for that ctx without needing a reference to the [Recorder]:
//
//	ctx, rec := capture.Open(ctx, "checkout")
//	defer rec.Close(nil)
//
//	capture.RecordToolCall(ctx, models.ToolCall{Name: "search"})
//
// Goroutines started with a ctx see the trace that was current when they were spawned.
// Unrelated ctx trees never see each other's traces.
package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spboyer/agentra/models"
)

type recorderKey struct{}

// Recorder captures a single trace. Use [Open] to create one.
type Recorder struct {
	mu     sync.Mutex
	trace  *models.Trace
	stack  []*models.AgentSpan
	start  time.Time
	closed bool
}

// Open starts a new trace and returns a ctx in which it is current.
func Open(ctx context.Context, name string) (context.Context, *Recorder) {
	now := time.Now()

	r := &Recorder{
		trace: &models.Trace{
			ID:         uuid.NewString(),
			Name:       name,
			StartTime:  now,
			ModelCalls: []models.ModelCall{},
			ToolCalls:  []models.ToolCall{},
			AgentSpans: []*models.AgentSpan{},
			Metadata:   map[string]any{},
		},
		start: now,
	}

	slog.Debug("Trace opened", "trace_id", r.trace.ID, "name", name)
	return context.WithValue(ctx, recorderKey{}, r), r
}

// Current returns the open recorder for ctx, or nil when no trace is being captured.
// Once the innermost recorder in ctx is closed, Current returns nil: work that outlives
// its trace is dropped rather than attributed to an enclosing trace.
func Current(ctx context.Context) *Recorder {
	if ctx == nil {
		return nil
	}

	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	if r == nil {
		return nil
	}
	if r.Closed() {
		slog.Debug("Dropping capture call for a closed trace", "trace_id", r.trace.ID)
		return nil
	}
	return r
}

// Close finalizes the trace. A non-nil err is recorded as the trace error.
// Calling Close more than once has no effect.
func (r *Recorder) Close(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	end := time.Now()
	r.trace.EndTime = &end
	r.trace.DurationMs = float64(end.Sub(r.start).Microseconds()) / 1000.0
	if err != nil {
		r.trace.Error = err.Error()
	}
	r.closed = true

	slog.Debug("Trace closed",
		"trace_id", r.trace.ID,
		"duration_ms", r.trace.DurationMs,
		"model_calls", len(r.trace.ModelCalls),
		"tool_calls", len(r.trace.ToolCalls),
		"open_spans", len(r.stack))
}

// Closed reports whether [Recorder.Close] has run.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// writable reports whether the trace still accepts changes. r.mu must be held.
func (r *Recorder) writable(op string) bool {
	if r.closed {
		slog.Debug("Ignoring change to a closed trace", "trace_id", r.trace.ID, "op", op)
		return false
	}
	return true
}

// ID returns the trace identifier.
func (r *Recorder) ID() string {
	return r.trace.ID
}

// Trace returns a snapshot of the trace captured so far.
func (r *Recorder) Trace() *models.Trace {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trace.Clone()
}

// SetInput records the trace input. The last writer wins.
func (r *Recorder) SetInput(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.writable("set_input") {
		return
	}
	r.trace.Input = v
}

// SetOutput records the trace output. The last writer wins.
func (r *Recorder) SetOutput(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.writable("set_output") {
		return
	}
	r.trace.Output = v
}

// SetFramework names the agent framework that produced the trace.
func (r *Recorder) SetFramework(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.writable("set_framework") {
		return
	}
	r.trace.Framework = name
}

// SetMetadata stores a free-form metadata value on the trace.
func (r *Recorder) SetMetadata(key string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.writable("set_metadata") {
		return
	}
	r.trace.Metadata[key] = v
}

// PushAgentSpan opens an agent span. Until it is popped, model and tool calls are
// attributed to it as well as to the trace. Spans nest: an outer span keeps receiving
// the calls made while an inner span is open.
func (r *Recorder) PushAgentSpan(name, role string, input any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.writable("push_agent_span") {
		return
	}

	span := &models.AgentSpan{
		Name:       name,
		Role:       role,
		StartTime:  time.Now(),
		ModelCalls: []models.ModelCall{},
		ToolCalls:  []models.ToolCall{},
		Input:      input,
	}

	r.trace.AgentSpans = append(r.trace.AgentSpans, span)
	r.stack = append(r.stack, span)
}

// PopAgentSpan closes the innermost agent span if it is named name. When the
// innermost span has a different name (or none is open) the call does nothing
// and returns false.
func (r *Recorder) PopAgentSpan(name string, output any, errMsg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.writable("pop_agent_span") {
		return false
	}

	n := len(r.stack)
	if n == 0 || r.stack[n-1].Name != name {
		top := ""
		if n > 0 {
			top = r.stack[n-1].Name
		}
		slog.Debug("Ignoring agent span pop that does not match the innermost span",
			"trace_id", r.trace.ID, "name", name, "innermost", top)
		return false
	}

	span := r.stack[n-1]
	r.stack = r.stack[:n-1]

	end := time.Now()
	span.EndTime = &end
	span.Output = output
	span.Error = errMsg
	return true
}

// SpanDepth is the number of agent spans currently open.
func (r *Recorder) SpanDepth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stack)
}

// RecordModelCall appends a model call to the trace and to every open span.
func (r *Recorder) RecordModelCall(call models.ModelCall) {
	if call.Timestamp.IsZero() {
		call.Timestamp = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.writable("model_call") {
		return
	}

	r.trace.ModelCalls = append(r.trace.ModelCalls, call)
	for _, span := range r.stack {
		span.ModelCalls = append(span.ModelCalls, call)
	}
}

// RecordToolCall appends a tool call to the trace and to every open span.
func (r *Recorder) RecordToolCall(call models.ToolCall) {
	if call.Timestamp.IsZero() {
		call.Timestamp = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.writable("tool_call") {
		return
	}

	r.trace.ToolCalls = append(r.trace.ToolCalls, call)
	for _, span := range r.stack {
		span.ToolCalls = append(span.ToolCalls, call)
	}
}

// AddEvent appends a generic framework event (task boundaries and the like).
func (r *Recorder) AddEvent(eventType string, data map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.writable("event") {
		return
	}

	r.trace.Events = append(r.trace.Events, models.TraceEvent{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	})
}
