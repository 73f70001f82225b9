package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/spboyer/agentra/internal/results"
)

const (
	compareLabelWidth  = 20
	compareColumnWidth = 15
)

// WriteComparison prints saved results side by side. With two or more results
// a delta column shows the change from the first to the last.
//
//nolint:errcheck // display-only writes
func WriteComparison(w io.Writer, cmp *results.Comparison) {
	n := len(cmp.Results)
	if n == 0 {
		fmt.Fprintln(w, "No results to compare.")
		return
	}
	withDelta := n > 1

	fmt.Fprintln(w, "COMPARISON REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w)

	header := padRight("Metric", compareLabelWidth)
	for _, r := range cmp.Results {
		header += padRight(truncateName(r.Name, compareColumnWidth-2), compareColumnWidth)
	}
	if withDelta {
		header += "Delta"
	}
	fmt.Fprintln(w, strings.TrimRight(header, " "))
	fmt.Fprintln(w, strings.Repeat("-", 60))

	row := padRight("Overall Score", compareLabelWidth)
	for _, r := range cmp.Results {
		row += padRight(percent(r.Score), compareColumnWidth)
	}
	if withDelta {
		row += delta(cmp.Results[n-1].Score - cmp.Results[0].Score)
	}
	fmt.Fprintln(w, strings.TrimRight(row, " "))

	row = padRight("Status", compareLabelWidth)
	for _, r := range cmp.Results {
		row += padRight(string(r.Status), compareColumnWidth)
	}
	fmt.Fprintln(w, strings.TrimRight(row, " "))

	row = padRight("Traces", compareLabelWidth)
	for _, r := range cmp.Results {
		row += padRight(fmt.Sprint(r.TotalTraces), compareColumnWidth)
	}
	fmt.Fprintln(w, strings.TrimRight(row, " "))

	row = padRight("Issues", compareLabelWidth)
	for _, r := range cmp.Results {
		row += padRight(fmt.Sprint(len(r.Issues)), compareColumnWidth)
	}
	fmt.Fprintln(w, strings.TrimRight(row, " "))

	if len(cmp.Categories) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Category Scores:")
	for _, name := range cmp.Categories {
		row := "  " + padRight(name, compareLabelWidth-2)
		for i := range cmp.Results {
			cell := "N/A"
			if score, ok := cmp.CategoryScore(i, name); ok {
				cell = percent(score)
			}
			row += padRight(cell, compareColumnWidth)
		}
		if withDelta {
			first, okFirst := cmp.CategoryScore(0, name)
			last, okLast := cmp.CategoryScore(n-1, name)
			if okFirst && okLast {
				row += delta(last - first)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

func delta(d float64) string {
	icon := " "
	switch {
	case d > 0.0005:
		icon = "↑"
	case d < -0.0005:
		icon = "↓"
	}
	return fmt.Sprintf("%s%+.0f%%", icon, d*100)
}
