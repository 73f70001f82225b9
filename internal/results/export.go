package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spboyer/agentra/models"
)

// TraceFile is the on-disk form of exported traces.
type TraceFile struct {
	SystemName        string          `json:"system_name"`
	SystemDescription string          `json:"system_description"`
	Traces            []*models.Trace `json:"traces"`
}

// WriteTraces encodes tf as indented JSON.
func WriteTraces(w io.Writer, tf *TraceFile) error {
	if tf.Traces == nil {
		tf.Traces = []*models.Trace{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tf); err != nil {
		return fmt.Errorf("encoding traces: %w", err)
	}
	return nil
}

// ReadTraces decodes a [TraceFile]. Nil entries in the trace list are dropped.
func ReadTraces(r io.Reader) (*TraceFile, error) {
	var tf TraceFile
	if err := json.NewDecoder(r).Decode(&tf); err != nil {
		return nil, fmt.Errorf("decoding traces: %w", err)
	}

	traces := tf.Traces[:0]
	for _, t := range tf.Traces {
		if t != nil {
			traces = append(traces, t)
		}
	}
	tf.Traces = traces
	return &tf, nil
}

// ExportTraces writes tf to path. A ".gz" suffix gzip compresses the file.
func ExportTraces(path string, tf *TraceFile) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace export: %w", err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	if !strings.HasSuffix(path, ".gz") {
		return WriteTraces(f, tf)
	}

	gz := gzip.NewWriter(f)
	if err := WriteTraces(gz, tf); err != nil {
		return err
	}
	return gz.Close()
}

// ImportTraces reads a file written by [ExportTraces]. Compression is detected
// from the file content, not the name.
func ImportTraces(path string) (*TraceFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace export: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var magic [2]byte
	n, _ := io.ReadFull(f, magic[:]) //nolint:errcheck
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("reading trace export: %w", err)
	}

	if n == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening compressed trace export: %w", err)
		}
		defer gz.Close() //nolint:errcheck
		return ReadTraces(gz)
	}

	return ReadTraces(f)
}
