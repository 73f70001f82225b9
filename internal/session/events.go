package session

import "time"

// EventType identifies the kind of session event.
type EventType string

const (
	EventSessionStart   EventType = "session_start"
	EventSessionEnd     EventType = "session_complete"
	EventTraceStart     EventType = "trace_start"
	EventTraceComplete  EventType = "trace_complete"
	EventCategoryResult EventType = "category_result"
	EventError          EventType = "error"
)

// Event is a single timestamped entry in a session log.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]any) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      t,
		Data:      data,
	}
}

// SessionStartData returns event data for the start of an evaluation.
func SessionStartData(systemName string, evaluators []string, traceCount int) map[string]any {
	return map[string]any{
		"system_name": systemName,
		"evaluators":  evaluators,
		"trace_count": traceCount,
	}
}

// SessionCompleteData returns event data for the end of an evaluation.
func SessionCompleteData(totalTraces int, score float64, status string, issues int, durationMs int64) map[string]any {
	return map[string]any{
		"total_traces": totalTraces,
		"score":        score,
		"status":       status,
		"issues":       issues,
		"duration_ms":  durationMs,
	}
}

// TraceStartData returns event data for a trace entering evaluation.
func TraceStartData(traceName string, traceNum, totalTraces int) map[string]any {
	return map[string]any{
		"trace_name":   traceName,
		"trace_num":    traceNum,
		"total_traces": totalTraces,
	}
}

// TraceCompleteData returns event data for a scored trace.
func TraceCompleteData(traceName string, score float64, issues int, durationMs int64) map[string]any {
	return map[string]any{
		"trace_name":  traceName,
		"score":       score,
		"issues":      issues,
		"duration_ms": durationMs,
	}
}

// CategoryResultData returns event data for one category of one trace.
func CategoryResultData(traceName, category string, score, weight float64, issues []string) map[string]any {
	return map[string]any{
		"trace_name": traceName,
		"category":   category,
		"score":      score,
		"weight":     weight,
		"issues":     issues,
	}
}

// ErrorData returns event data for an error.
func ErrorData(message string, details map[string]any) map[string]any {
	d := map[string]any{
		"message": message,
	}
	for k, v := range details {
		d[k] = v
	}
	return d
}
