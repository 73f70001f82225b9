package capture

import (
	"context"
	"fmt"

	"github.com/spboyer/agentra/models"
)

// Run executes fn inside a new trace named name and returns the closed trace.
//
// The trace is closed on every exit path. An error returned by fn is recorded on the
// trace and returned unchanged. A panic is recorded as the trace error and re-panicked.
func Run(ctx context.Context, name string, fn func(ctx context.Context) error) (*models.Trace, error) {
	ctx, rec := Open(ctx, name)
	err := runRecorded(ctx, rec, fn)
	return rec.Trace(), err
}

func panicError(p any) error {
	return fmt.Errorf("panic: %v", p)
}

// Agent marks an agent boundary around fn. When no trace is current for ctx, fn runs
// without any recording.
func Agent(ctx context.Context, name, role string, fn func(ctx context.Context) error) (err error) {
	rec := Current(ctx)
	if rec == nil {
		return fn(ctx)
	}

	rec.PushAgentSpan(name, role, nil)

	defer func() {
		if p := recover(); p != nil {
			rec.PopAgentSpan(name, nil, panicError(p).Error())
			panic(p)
		}
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		rec.PopAgentSpan(name, nil, errMsg)
	}()

	return fn(ctx)
}

// The functions below are the call-site entry points. Each one reports into the trace
// current for ctx and does nothing when no trace is being captured.

// SetInput records the input of the current trace.
func SetInput(ctx context.Context, v any) {
	if rec := Current(ctx); rec != nil {
		rec.SetInput(v)
	}
}

// SetOutput records the output of the current trace.
func SetOutput(ctx context.Context, v any) {
	if rec := Current(ctx); rec != nil {
		rec.SetOutput(v)
	}
}

// PushAgentSpan opens an agent span on the current trace.
func PushAgentSpan(ctx context.Context, name, role string, input any) {
	if rec := Current(ctx); rec != nil {
		rec.PushAgentSpan(name, role, input)
	}
}

// PopAgentSpan closes an agent span on the current trace. It reports false when there
// is no current trace or the name does not match the innermost open span.
func PopAgentSpan(ctx context.Context, name string, output any, errMsg string) bool {
	if rec := Current(ctx); rec != nil {
		return rec.PopAgentSpan(name, output, errMsg)
	}
	return false
}

// RecordModelCall appends a model call to the current trace.
func RecordModelCall(ctx context.Context, call models.ModelCall) {
	if rec := Current(ctx); rec != nil {
		rec.RecordModelCall(call)
	}
}

// RecordToolCall appends a tool call to the current trace.
func RecordToolCall(ctx context.Context, call models.ToolCall) {
	if rec := Current(ctx); rec != nil {
		rec.RecordToolCall(call)
	}
}

// AddEvent appends a framework event to the current trace.
func AddEvent(ctx context.Context, eventType string, data map[string]any) {
	if rec := Current(ctx); rec != nil {
		rec.AddEvent(eventType, data)
	}
}
