package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Logger defines the interface for evaluation session logging.
type Logger interface {
	Log(event Event) error
	Close() error
}

// JSONLogger writes events as newline-delimited JSON (NDJSON). Paths ending in ".gz"
// are gzip compressed.
type JSONLogger struct {
	mu   sync.Mutex
	file *os.File
	gz   *gzip.Writer
	enc  *json.Encoder
	path string
}

// NewJSONLogger creates a logger that writes NDJSON to the given path.
// Parent directories are created automatically.
func NewJSONLogger(path string) (*JSONLogger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating session log directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	compressed := isCompressed(path)
	if compressed {
		// gzip members can be concatenated, but a fresh stream keeps readers simple
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening session log: %w", err)
	}

	l := &JSONLogger{file: f, path: path}

	var w io.Writer = f
	if compressed {
		l.gz = gzip.NewWriter(f)
		w = l.gz
	}
	l.enc = json.NewEncoder(w)

	return l, nil
}

// Log writes a single event as one JSON line.
func (l *JSONLogger) Log(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(event)
}

// Close flushes and closes the underlying file.
func (l *JSONLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var gzErr error
	if l.gz != nil {
		gzErr = l.gz.Close()
	}
	return errors.Join(gzErr, l.file.Close())
}

// Path returns the file path of the session log.
func (l *JSONLogger) Path() string {
	return l.path
}

// NopLogger discards all events. Used when session logging is disabled.
type NopLogger struct{}

// Log is a no-op.
func (NopLogger) Log(Event) error { return nil }

// Close is a no-op.
func (NopLogger) Close() error { return nil }

// logSuffix is the file name suffix of session logs written by [DefaultLogPath].
const logSuffix = "-evaluation.jsonl"

// DefaultLogPath returns a timestamped session log path inside dir.
func DefaultLogPath(dir string) string {
	ts := time.Now().UTC().Format("20060102T150405Z")
	return filepath.Join(dir, ts+logSuffix)
}

func isCompressed(path string) bool {
	return strings.HasSuffix(path, ".gz")
}
