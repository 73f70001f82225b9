package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spboyer/agentra/capture"
	"github.com/spboyer/agentra/internal/results"
	"github.com/spf13/cobra"
)

func newCoverageCommand() *cobra.Command {
	var (
		asJSON     bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "coverage <traces.json[.gz]>",
		Short: "Show which agents and tools the exported traces exercised",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tf, err := results.ImportTraces(args[0])
			if err != nil {
				return err
			}

			name := firstNonEmpty(tf.SystemName, strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])))
			collector, err := capture.LoadCollector(configPath, name)
			if err != nil {
				return err
			}
			collector.Add(tf.Traces...)
			cov := collector.Coverage()

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cov)
			}

			fmt.Fprintf(out, "System:      %s\n", collector.SystemName())
			fmt.Fprintf(out, "Traces:      %d\n", cov.Traces)
			fmt.Fprintf(out, "LLM calls:   %d\n", cov.ModelCalls)
			fmt.Fprintf(out, "Tool calls:  %d\n", cov.ToolCalls)
			fmt.Fprintf(out, "Agents (%d): %s\n", len(cov.Agents), listOrNone(cov.Agents))
			fmt.Fprintf(out, "Tools (%d):  %s\n", len(cov.Tools), listOrNone(cov.Tools))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print coverage as JSON")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to agentra.yaml (default: search upward from the working directory)")

	return cmd
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
