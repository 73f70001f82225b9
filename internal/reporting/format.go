// Package reporting renders evaluation results for people and CI systems.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spboyer/agentra/models"
)

// Format selects a report renderer.
type Format string

const (
	FormatConsole  Format = "console"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatJUnit    Format = "junit"
)

// Formats lists every supported format.
var Formats = []Format{FormatConsole, FormatMarkdown, FormatHTML, FormatJSON, FormatJUnit}

// ParseFormat resolves a user supplied format name. "md", "xml" and "text" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "text":
		return FormatConsole, nil
	case "md":
		return FormatMarkdown, nil
	case "xml":
		return FormatJUnit, nil
	default:
		if slices.Contains(Formats, f) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q: must be one of %s", s, formatList())
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Options configures [Write].
type Options struct {
	Console ConsoleOptions

	// Threshold is the per-trace pass mark for JUnit output.
	Threshold float64
}

// Write renders result in the given format.
func Write(w io.Writer, result *models.EvaluationResult, format Format, opts Options) error {
	if result == nil {
		return fmt.Errorf("no evaluation result to report")
	}
	switch format {
	case FormatConsole:
		WriteConsole(w, result, opts.Console)
		return nil
	case FormatMarkdown:
		return WriteMarkdown(w, result)
	case FormatHTML:
		return WriteHTML(w, result)
	case FormatJSON:
		return WriteJSON(w, result)
	case FormatJUnit:
		return WriteJUnitXML(w, result, opts.Threshold)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// WriteJSON writes result as indented JSON.
func WriteJSON(w io.Writer, result *models.EvaluationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
