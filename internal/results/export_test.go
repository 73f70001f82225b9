package results

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spboyer/agentra/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTraceFile() *TraceFile {
	start := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	return &TraceFile{
		SystemName:        "support-bot",
		SystemDescription: "Answers billing questions",
		Traces: []*models.Trace{
			{
				ID:         "7f0c6a52-2f4b-4e0a-9f67-1c9a3f0d2b11",
				Name:       "refund",
				Input:      "Where is my refund?",
				Output:     "It was issued yesterday.",
				StartTime:  start,
				EndTime:    &end,
				DurationMs: 1500,
				ModelCalls: []models.ModelCall{{Model: "gpt-4", Response: "It was issued", TokensIn: 40, TokensOut: 8, DurationMs: 900, Timestamp: start}},
				ToolCalls:  []models.ToolCall{{Name: "lookup_refund", Input: "order-1", Output: "issued", DurationMs: 200, Timestamp: start}},
				AgentSpans: []*models.AgentSpan{},
			},
		},
	}
}

func TestExportImport_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "traces.json")

	require.NoError(t, ExportTraces(path, sampleTraceFile()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "support-bot", generic["system_name"])
	assert.Equal(t, "Answers billing questions", generic["system_description"])
	assert.Len(t, generic["traces"], 1)

	tf, err := ImportTraces(path)
	require.NoError(t, err)
	assert.Equal(t, sampleTraceFile(), tf)
}

func TestExportImport_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.json.gz")

	require.NoError(t, ExportTraces(path, sampleTraceFile()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte{0x1f, 0x8b}, raw[:2])

	// content sniffing, not the file name, selects decompression
	renamed := strings.TrimSuffix(path, ".gz")
	require.NoError(t, os.Rename(path, renamed))

	tf, err := ImportTraces(renamed)
	require.NoError(t, err)
	require.Len(t, tf.Traces, 1)
	assert.Equal(t, 48, tf.Traces[0].TotalTokens())
}

func TestReadTraces_DropsNullEntries(t *testing.T) {
	tf, err := ReadTraces(strings.NewReader(`{"system_name":"s","traces":[null,{"id":"a"},null]}`))
	require.NoError(t, err)
	require.Len(t, tf.Traces, 1)
	assert.Equal(t, "a", tf.Traces[0].ID)
}

func TestReadTraces_Malformed(t *testing.T) {
	_, err := ReadTraces(strings.NewReader(`{"traces": [`))
	require.Error(t, err)
}

func TestWriteTraces_EmptyListIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTraces(&buf, &TraceFile{SystemName: "s"}))
	assert.Contains(t, buf.String(), `"traces": []`)
}

func TestImportTraces_Missing(t *testing.T) {
	_, err := ImportTraces(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestImportTraces_TinyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := ImportTraces(path)
	require.Error(t, err)
}
