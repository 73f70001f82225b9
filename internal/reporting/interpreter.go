package reporting

import (
	"fmt"
	"strings"

	"github.com/spboyer/agentra/models"
)

// StatusIcon returns the marker printed next to a status.
func StatusIcon(status models.Status) string {
	switch status {
	case models.StatusExcellent:
		return "★"
	case models.StatusGood:
		return "●"
	case models.StatusFair:
		return "○"
	case models.StatusPoor:
		return "✗"
	}
	return ""
}

// InterpretStatus returns a plain-language explanation of a status.
func InterpretStatus(status models.Status) string {
	switch status {
	case models.StatusExcellent:
		return "Excellent (≥90%): the agent behaves well across every dimension."
	case models.StatusGood:
		return "Good (75-90%): minor issues, worth a look before the next release."
	case models.StatusFair:
		return "Fair (60-75%): noticeable problems in at least one dimension."
	default:
		return "Poor (<60%): the agent needs work before it can be relied on."
	}
}

// InterpretSpread explains how consistent trace scores were.
func InterpretSpread(stats *models.ScoreStats) string {
	if stats == nil {
		return ""
	}
	ci := stats.BootstrapCI
	if ci.NumBootstraps == 0 {
		return fmt.Sprintf("Single trace scored %.0f%%.", ci.Mean*100)
	}
	width := (ci.Upper - ci.Lower) * 100
	consistency := "consistent"
	switch {
	case width > 20:
		consistency = "highly variable"
	case width > 10:
		consistency = "somewhat variable"
	}
	return fmt.Sprintf("Trace scores are %s: %.0f%% confidence interval %.0f%%-%.0f%% (min %.0f%%, max %.0f%%).",
		consistency, ci.ConfidenceLevel*100, ci.Lower*100, ci.Upper*100, stats.MinScore*100, stats.MaxScore*100)
}

// Summary is the one-line summary of a result.
func Summary(result *models.EvaluationResult) string {
	return fmt.Sprintf("%d traces | Score: %.0f%% (%s) | %d LLM calls | %d issues",
		result.TotalTraces, result.Score*100, result.Status, result.TotalModelCalls, len(result.Issues))
}

// FormatInterpretation produces a short plain-language reading of a result.
func FormatInterpretation(result *models.EvaluationResult) string {
	var b strings.Builder

	b.WriteString("=== Interpretation ===\n\n")
	fmt.Fprintf(&b, "Overall Score: %.0f%% — %s\n", result.Score*100, InterpretStatus(result.Status))
	if spread := InterpretSpread(result.Stats); spread != "" {
		fmt.Fprintf(&b, "Consistency:   %s\n", spread)
	}

	var weak []string
	for _, cat := range result.Categories {
		if cat.Score < warnThreshold {
			weak = append(weak, fmt.Sprintf("%s (%.0f%%)", cat.Name, cat.Score*100))
		}
	}
	if len(weak) > 0 {
		fmt.Fprintf(&b, "Weakest:       %s\n", strings.Join(weak, ", "))
	}

	return b.String()
}
