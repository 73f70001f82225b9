package capture

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/spboyer/agentra/models"
	"github.com/stretchr/testify/require"
)

func TestCollector_StoresTraces(t *testing.T) {
	var hooked []*models.Trace
	c := NewCollector("support-bot",
		WithDescription("answers support tickets"),
		WithTraceHook(func(trace *models.Trace) { hooked = append(hooked, trace) }))

	require.Equal(t, "support-bot", c.SystemName())
	require.Equal(t, "answers support tickets", c.Description())

	err := c.Trace(context.Background(), "ok", func(ctx context.Context) error {
		return c.Agent(ctx, "triage", "", func(ctx context.Context) error {
			RecordToolCall(ctx, models.ToolCall{Name: "lookup"})
			return nil
		})
	})
	require.NoError(t, err)

	sentinel := errors.New("nope")
	err = c.Trace(context.Background(), "failed", func(ctx context.Context) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	traces := c.Traces()
	require.Len(t, traces, 2)
	require.Equal(t, "ok", traces[0].Name)
	require.Equal(t, "failed", traces[1].Name)
	require.Equal(t, "nope", traces[1].Error)
	require.Len(t, hooked, 2)

	cov := c.Coverage()
	require.Equal(t, []string{"triage"}, cov.Agents)
	require.Equal(t, []string{"lookup"}, cov.Tools)
	require.Equal(t, 2, cov.Traces)
	require.Equal(t, 1, cov.ToolCalls)

	c.Clear()
	require.Empty(t, c.Traces())
}

func TestCollector_SampleRate(t *testing.T) {
	c := NewCollector("sys", WithSampleRate(0.5))

	draws := []float64{0.9, 0.1}
	c.sample = func() float64 {
		v := draws[0]
		draws = draws[1:]
		return v
	}

	for range 2 {
		require.NoError(t, c.Trace(context.Background(), "", func(ctx context.Context) error {
			RecordModelCall(ctx, models.ModelCall{Model: "m"})
			return nil
		}))
	}

	require.Len(t, c.Traces(), 1)
}

func TestCollector_ZeroSampleRateStillRuns(t *testing.T) {
	c := NewCollector("sys", WithSampleRate(0))

	ran := false
	require.NoError(t, c.Trace(context.Background(), "", func(ctx context.Context) error {
		ran = true
		require.Nil(t, Current(ctx))
		return nil
	}))

	require.True(t, ran)
	require.Empty(t, c.Traces())
}

func TestWrap(t *testing.T) {
	c := NewCollector("sys")

	upper := Wrap(c, "upper", func(ctx context.Context, in string) (string, error) {
		if in == "" {
			return "", errors.New("empty input")
		}
		return strings.ToUpper(in), nil
	})

	out, err := upper(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "HELLO", out)

	_, err = upper(context.Background(), "")
	require.EqualError(t, err, "empty input")

	traces := c.Traces()
	require.Len(t, traces, 2)
	require.Equal(t, "hello", traces[0].Input)
	require.Equal(t, "HELLO", traces[0].Output)
	require.Equal(t, "empty input", traces[1].Error)
	require.Nil(t, traces[1].Output)
}

func TestCollector_ConcurrentTraces(t *testing.T) {
	c := NewCollector("sys")

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Trace(context.Background(), "", func(ctx context.Context) error {
				RecordModelCall(ctx, models.ModelCall{Model: "m"})
				return nil
			})
		}()
	}
	wg.Wait()

	traces := c.Traces()
	require.Len(t, traces, 20)
	for _, trace := range traces {
		require.Len(t, trace.ModelCalls, 1)
	}

	c.Add(&models.Trace{ID: "imported"})
	require.Len(t, c.Traces(), 21)
}
