package models

import "time"

// costPerToken is a rough blended price used by [Trace.TotalCost].
const costPerToken = 0.00001

// ModelCall is a single language model invocation.
type ModelCall struct {
	Model      string           `json:"model"`
	Messages   []map[string]any `json:"messages,omitempty"`
	Response   string           `json:"response"`
	TokensIn   int              `json:"tokens_in"`
	TokensOut  int              `json:"tokens_out"`
	DurationMs float64          `json:"duration_ms"`
	Timestamp  time.Time        `json:"timestamp"`

	// Metadata holds adaptor specific values, like the agent or graph node name.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ToolCall is a single tool/function invocation.
type ToolCall struct {
	Name   string `json:"name"`
	Input  any    `json:"input,omitempty"`
	Output any    `json:"output,omitempty"`
	// Error is empty when the call succeeded.
	Error      string    `json:"error,omitempty"`
	DurationMs float64   `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Failed reports whether the tool call recorded an error.
func (tc ToolCall) Failed() bool {
	return tc.Error != ""
}

// AgentSpan tracks one agent's execution inside a multi-agent trace.
type AgentSpan struct {
	Name      string     `json:"name"`
	Role      string     `json:"role,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	ModelCalls []ModelCall `json:"model_calls"`
	ToolCalls  []ToolCall  `json:"tool_calls"`

	Input  any    `json:"input,omitempty"`
	Output any    `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Open reports whether the span has not been popped yet.
func (s *AgentSpan) Open() bool {
	return s.EndTime == nil
}

// TraceEvent is a generic, framework specific event (task start/end and similar).
type TraceEvent struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Trace is the complete record of one traced unit of work.
type Trace struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Input  any    `json:"input,omitempty"`
	Output any    `json:"output,omitempty"`

	ModelCalls []ModelCall `json:"model_calls"`
	ToolCalls  []ToolCall  `json:"tool_calls"`
	// AgentSpans is flat and in creation order. Nesting is only implied by timing.
	AgentSpans []*AgentSpan `json:"agent_spans"`

	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	DurationMs float64    `json:"duration_ms"`
	Error      string     `json:"error,omitempty"`
	Framework  string     `json:"framework,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
	Events   []TraceEvent   `json:"events,omitempty"`
}

// TotalTokens is the sum of input and output tokens over all model calls.
func (t *Trace) TotalTokens() int {
	total := 0
	for _, c := range t.ModelCalls {
		total += c.TokensIn + c.TokensOut
	}
	return total
}

// TotalCost is a rough cost estimate based on [Trace.TotalTokens].
func (t *Trace) TotalCost() float64 {
	return float64(t.TotalTokens()) * costPerToken
}

// ToolErrors returns the number of tool calls that recorded an error.
func (t *Trace) ToolErrors() int {
	errs := 0
	for _, tc := range t.ToolCalls {
		if tc.Failed() {
			errs++
		}
	}
	return errs
}

// Clone returns a copy of the trace that shares no slices or spans with t.
// Opaque values (input, output, messages) are shallow copied.
func (t *Trace) Clone() *Trace {
	c := *t
	c.ModelCalls = append([]ModelCall(nil), t.ModelCalls...)
	c.ToolCalls = append([]ToolCall(nil), t.ToolCalls...)
	c.Events = append([]TraceEvent(nil), t.Events...)

	c.AgentSpans = make([]*AgentSpan, 0, len(t.AgentSpans))
	for _, s := range t.AgentSpans {
		sc := *s
		sc.ModelCalls = append([]ModelCall(nil), s.ModelCalls...)
		sc.ToolCalls = append([]ToolCall(nil), s.ToolCalls...)
		c.AgentSpans = append(c.AgentSpans, &sc)
	}

	if t.Metadata != nil {
		c.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}

	return &c
}
