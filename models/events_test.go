package models

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTraceTotalTokens(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		trace := &Trace{}
		want := 0
		n := rng.Intn(20)

		for j := 0; j < n; j++ {
			in, out := rng.Intn(5000), rng.Intn(5000)
			want += in + out
			trace.ModelCalls = append(trace.ModelCalls, ModelCall{Model: "m", TokensIn: in, TokensOut: out})
		}

		require.Equal(t, want, trace.TotalTokens())
		require.InDelta(t, float64(want)*costPerToken, trace.TotalCost(), 1e-12)
	}
}

func TestTraceToolErrors(t *testing.T) {
	trace := &Trace{ToolCalls: []ToolCall{
		{Name: "search"},
		{Name: "fetch", Error: "timeout"},
		{Name: "fetch", Error: "404"},
	}}

	require.Equal(t, 2, trace.ToolErrors())
	require.False(t, trace.ToolCalls[0].Failed())
	require.True(t, trace.ToolCalls[1].Failed())
}

func TestTraceClone(t *testing.T) {
	end := time.Now()
	original := &Trace{
		ID:         "t1",
		ModelCalls: []ModelCall{{Model: "gpt-4"}},
		ToolCalls:  []ToolCall{{Name: "search"}},
		AgentSpans: []*AgentSpan{{Name: "planner", EndTime: &end, ToolCalls: []ToolCall{{Name: "search"}}}},
		Metadata:   map[string]any{"k": "v"},
	}

	clone := original.Clone()
	clone.ModelCalls = append(clone.ModelCalls, ModelCall{Model: "other"})
	clone.AgentSpans[0].ToolCalls = append(clone.AgentSpans[0].ToolCalls, ToolCall{Name: "x"})
	clone.AgentSpans[0].Name = "renamed"
	clone.Metadata["k"] = "changed"

	require.Len(t, original.ModelCalls, 1)
	require.Len(t, original.AgentSpans[0].ToolCalls, 1)
	require.Equal(t, "planner", original.AgentSpans[0].Name)
	require.Equal(t, "v", original.Metadata["k"])
}

func TestTraceJSON(t *testing.T) {
	trace := Trace{
		ID:         "abc",
		Input:      map[string]any{"query": "hi"},
		ModelCalls: []ModelCall{{Model: "gpt-4", TokensIn: 3, TokensOut: 4}},
	}

	data, err := json.Marshal(trace)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "model_calls")
	require.NotContains(t, raw, "total_tokens")
}

func TestIsEmpty(t *testing.T) {
	var nilMap map[string]any
	var nilPtr *Trace

	for _, v := range []any{nil, "", 0, 0.0, false, []string{}, map[string]any{}, nilMap, nilPtr} {
		require.True(t, IsEmpty(v), "%#v", v)
	}
	for _, v := range []any{"x", 1, true, []int{1}, map[string]int{"a": 1}, struct{}{}} {
		require.False(t, IsEmpty(v), "%#v", v)
	}
}

func TestStringifyAndPreview(t *testing.T) {
	require.Equal(t, "", Stringify(nil))
	require.Equal(t, "plain", Stringify("plain"))
	require.Equal(t, `{"a":1}`, Stringify(map[string]int{"a": 1}))

	long := make([]rune, 150)
	for i := range long {
		long[i] = 'é'
	}
	require.Len(t, []rune(Preview(string(long))), PreviewLength)
	require.Equal(t, "", Preview(""))
}
