package reporting

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spboyer/agentra/models"
	"golang.org/x/term"
)

// warnThreshold marks categories that get a warning in reports.
const warnThreshold = 0.7

const (
	ruleWidth      = 70
	sectionWidth   = 66
	barWidth       = 25
	categoryColumn = 18
	maxIssues      = 10
	maxTraceRows   = 5
)

// ConsoleOptions configures [WriteConsole].
type ConsoleOptions struct {
	// ASCII draws bars and markers with plain characters, for logs and files.
	ASCII bool

	// AllTraces lists every trace instead of only small result sets.
	AllTraces bool
}

// ConsoleOptionsFor picks ASCII output when w is not a terminal.
func ConsoleOptionsFor(w io.Writer) ConsoleOptions {
	f, ok := w.(*os.File)
	return ConsoleOptions{ASCII: !ok || !term.IsTerminal(int(f.Fd()))}
}

// WriteConsole writes the detailed console report.
//
//nolint:errcheck // display-only writes; errors are not actionable
func WriteConsole(w io.Writer, result *models.EvaluationResult, opts ConsoleOptions) {
	filled, empty, bullet, arrow, warn := "█", "░", "•", "→", " ⚠"
	if opts.ASCII {
		filled, empty, bullet, arrow, warn = "#", "-", "*", "->", " !"
	}
	rule := strings.Repeat("=", ruleWidth)
	section := func(title string) {
		fmt.Fprintf(w, "  %s\n", title)
		fmt.Fprintf(w, "  %s\n", strings.Repeat("-", sectionWidth))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  AGENTRA EVALUATION: %s\n", result.SystemName)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	icon := StatusIcon(result.Status)
	if opts.ASCII {
		icon = ""
	}
	fmt.Fprintf(w, "  Overall Score: %s %s(%s)\n", percent(result.Score), iconSpace(icon), result.Status)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Traces: %d\n", result.TotalTraces)
	fmt.Fprintf(w, "  LLM Calls: %d\n", result.TotalModelCalls)
	fmt.Fprintf(w, "  Tool Calls: %d\n", result.TotalToolCalls)
	fmt.Fprintf(w, "  Total Tokens: %s\n", thousands(result.TotalTokens))
	fmt.Fprintf(w, "  Total Time: %.1fs\n", result.TotalDurationMs/1000)
	fmt.Fprintln(w)

	section("CATEGORY SCORES")
	categories := slices.Clone(result.Categories)
	slices.SortStableFunc(categories, func(a, b models.CategoryResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	for _, cat := range categories {
		n := min(max(int(cat.Score*barWidth), 0), barWidth)
		bar := strings.Repeat(filled, n) + strings.Repeat(empty, barWidth-n)
		suffix := ""
		if cat.Score < warnThreshold {
			suffix = warn
		}
		fmt.Fprintf(w, "  %s %s %s%s\n", padRight(cat.Name, categoryColumn), bar, percent(cat.Score), suffix)
	}
	fmt.Fprintln(w)

	if len(result.Issues) > 0 {
		section("ISSUES")
		for _, issue := range result.Issues[:min(len(result.Issues), maxIssues)] {
			fmt.Fprintf(w, "  %s %s\n", bullet, issue)
		}
		if extra := len(result.Issues) - maxIssues; extra > 0 {
			fmt.Fprintf(w, "  ... and %d more\n", extra)
		}
		fmt.Fprintln(w)
	}

	if len(result.Recommendations) > 0 {
		section("RECOMMENDATIONS")
		for _, rec := range result.Recommendations {
			fmt.Fprintf(w, "  %s %s\n", arrow, rec)
		}
		fmt.Fprintln(w)
	}

	if opts.AllTraces || len(result.TraceResults) <= maxTraceRows {
		section("TRACE BREAKDOWN")
		for _, tr := range result.TraceResults {
			fmt.Fprintf(w, "  %s: %s (%d LLM, %d tools, %.1fs)\n",
				truncateName(tr.DisplayName(), 40), percent(tr.Score), tr.ModelCallsCount, tr.ToolCallsCount, tr.DurationMs/1000)
		}
		fmt.Fprintln(w)
	}

	if len(result.AgentsObserved) > 0 {
		fmt.Fprintf(w, "  Agents observed: %s\n", strings.Join(result.AgentsObserved, ", "))
	}
	if len(result.ToolsObserved) > 0 {
		fmt.Fprintf(w, "  Tools observed: %s\n", strings.Join(result.ToolsObserved, ", "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

func iconSpace(icon string) string {
	if icon == "" {
		return ""
	}
	return icon + " "
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// thousands formats n with comma separators.
func thousands(n int) string {
	s := fmt.Sprint(n)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// truncateName shortens a name to maxLen runes, replacing the last rune with "…" if needed.
func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
