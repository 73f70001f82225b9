package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/spboyer/agentra/models"
)

// WriteMarkdown writes result as a GitHub flavored markdown report.
func WriteMarkdown(w io.Writer, result *models.EvaluationResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Agentra Evaluation: %s\n\n", escapeCell(result.SystemName))
	fmt.Fprintf(&b, "**Overall Score:** %s (%s)\n\n", percent(result.Score), result.Status)
	if result.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", result.Summary)
	}

	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Traces | %d |\n", result.TotalTraces)
	fmt.Fprintf(&b, "| LLM Calls | %d |\n", result.TotalModelCalls)
	fmt.Fprintf(&b, "| Tool Calls | %d |\n", result.TotalToolCalls)
	fmt.Fprintf(&b, "| Total Tokens | %s |\n", thousands(result.TotalTokens))
	fmt.Fprintf(&b, "| Total Time | %.1fs |\n\n", result.TotalDurationMs/1000)

	if len(result.Categories) > 0 {
		b.WriteString("## Category Scores\n\n")
		b.WriteString("| Category | Score | Weight | Issues |\n|---|---:|---:|---:|\n")
		for _, cat := range result.Categories {
			name := cat.Name
			if cat.Score < warnThreshold {
				name += " ⚠"
			}
			fmt.Fprintf(&b, "| %s | %s | %.2f | %d |\n", name, percent(cat.Score), cat.Weight, len(cat.Issues))
		}
		b.WriteString("\n")
	}

	if len(result.Issues) > 0 {
		b.WriteString("## Issues\n\n")
		for _, issue := range result.Issues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
		b.WriteString("\n")
	}

	if len(result.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range result.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
		b.WriteString("\n")
	}

	if len(result.TraceResults) > 0 {
		b.WriteString("## Traces\n\n")
		b.WriteString("| Trace | Score | LLM Calls | Tool Calls | Duration | Issues |\n|---|---:|---:|---:|---:|---:|\n")
		for _, tr := range result.TraceResults {
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %.1fs | %d |\n",
				escapeCell(tr.DisplayName()), percent(tr.Score), tr.ModelCallsCount, tr.ToolCallsCount, tr.DurationMs/1000, len(tr.Issues))
		}
		b.WriteString("\n")
	}

	if len(result.AgentsObserved) > 0 {
		fmt.Fprintf(&b, "**Agents observed:** %s\n\n", strings.Join(result.AgentsObserved, ", "))
	}
	if len(result.ToolsObserved) > 0 {
		fmt.Fprintf(&b, "**Tools observed:** %s\n\n", strings.Join(result.ToolsObserved, ", "))
	}

	fmt.Fprintf(&b, "_Generated by agentra %s at %s_\n", result.Version, result.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"))

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
