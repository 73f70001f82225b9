package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// SessionFile represents a session log file on disk.
type SessionFile struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	NumEvents int
}

// ListSessions finds session log files in dir, newest first. Both plain
// and gzip compressed logs are listed.
func ListSessions(dir string) ([]SessionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading session directory: %w", err)
	}

	var files []SessionFile
	for _, e := range entries {
		if e.IsDir() || !isSessionLog(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(dir, e.Name())
		events, _ := ReadEvents(path) //nolint:errcheck
		files = append(files, SessionFile{
			Path:      path,
			Name:      e.Name(),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			NumEvents: len(events),
		})
	}

	slices.SortFunc(files, func(a, b SessionFile) int {
		return b.ModTime.Compare(a.ModTime)
	})

	return files, nil
}

func isSessionLog(name string) bool {
	name = strings.TrimSuffix(name, ".gz")
	return strings.HasSuffix(name, logSuffix)
}

// ReadEvents parses all events from a session log file. Malformed lines are skipped.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening session file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var r io.Reader = f
	if isCompressed(path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening compressed session file: %w", err)
		}
		defer gz.Close() //nolint:errcheck
		r = gz
	}

	return decodeEvents(r)
}

func decodeEvents(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	// category results carry issue lists, so lines can be long
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	return events, nil
}

// RenderTimeline writes a human-readable evaluation timeline to w.
//
//nolint:errcheck // display-only writes; errors are not actionable
func RenderTimeline(w io.Writer, events []Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w, " EVALUATION TIMELINE")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	start := events[0].Timestamp
	for _, ev := range events {
		ts := formatDuration(ev.Timestamp.Sub(start))

		switch ev.Type {
		case EventSessionStart:
			system, _ := ev.Data["system_name"].(string) //nolint:errcheck
			traces := jsonNumber(ev.Data["trace_count"])
			evaluators := jsonStrings(ev.Data["evaluators"])
			fmt.Fprintf(w, "[%s] 🚀 Evaluation started  system=%s  traces=%d  evaluators=%s\n",
				ts, system, traces, strings.Join(evaluators, ","))

		case EventTraceStart:
			name, _ := ev.Data["trace_name"].(string) //nolint:errcheck
			num := jsonNumber(ev.Data["trace_num"])
			total := jsonNumber(ev.Data["total_traces"])
			fmt.Fprintf(w, "[%s] ▶  Trace %d/%d: %s\n", ts, num, total, name)

		case EventCategoryResult:
			category, _ := ev.Data["category"].(string) //nolint:errcheck
			score := jsonFloat(ev.Data["score"])
			issues := jsonStrings(ev.Data["issues"])
			icon := "✓"
			if len(issues) > 0 {
				icon = "!"
			}
			fmt.Fprintf(w, "[%s]    %s %-15s score=%.2f  issues=%d\n", ts, icon, category, score, len(issues))

		case EventTraceComplete:
			name, _ := ev.Data["trace_name"].(string) //nolint:errcheck
			score := jsonFloat(ev.Data["score"])
			dur := jsonNumber(ev.Data["duration_ms"])
			fmt.Fprintf(w, "[%s] ✓  Trace scored: %s  %.0f%% (%dms)\n", ts, name, score*100, dur)

		case EventError:
			msg, _ := ev.Data["message"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s] ❌ Error: %s\n", ts, msg)

		case EventSessionEnd:
			total := jsonNumber(ev.Data["total_traces"])
			score := jsonFloat(ev.Data["score"])
			status, _ := ev.Data["status"].(string) //nolint:errcheck
			issues := jsonNumber(ev.Data["issues"])
			dur := jsonNumber(ev.Data["duration_ms"])
			fmt.Fprintf(w, "[%s] 🏁 Evaluation complete  %d traces  %.0f%% (%s)  %d issues  (%dms)\n",
				ts, total, score*100, status, issues, dur)

		default:
			fmt.Fprintf(w, "[%s] %s %v\n", ts, ev.Type, ev.Data)
		}
	}
	fmt.Fprintln(w)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%6dms", d.Milliseconds())
	}
	return fmt.Sprintf("%6.1fs", d.Seconds())
}

// jsonNumber extracts a number from a JSON-decoded any (float64 or json.Number).
func jsonNumber(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		i, _ := n.Int64() //nolint:errcheck
		return int(i)
	}
	return 0
}

func jsonFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64() //nolint:errcheck
		return f
	}
	return 0
}

func jsonStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
