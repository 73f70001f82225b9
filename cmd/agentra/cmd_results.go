package main

import (
	"fmt"

	"github.com/spboyer/agentra/internal/config"
	"github.com/spboyer/agentra/internal/reporting"
	"github.com/spboyer/agentra/internal/results"
	"github.com/spf13/cobra"
)

func newResultsCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List, show and compare saved evaluation results",
		Long: `Work with evaluation results saved by "agentra evaluate --save".

A result is addressed by the name it was saved under. When several results
share a name the most recent one is used.`,
	}

	cmd.PersistentFlags().StringVar(&dir, "results-dir", config.DefaultResultsDir, "Directory containing saved results")

	cmd.AddCommand(newResultsListCommand(&dir))
	cmd.AddCommand(newResultsShowCommand(&dir))
	cmd.AddCommand(newResultsCompareCommand(&dir))

	return cmd
}

func newResultsListCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := results.NewStore(*dir).List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No saved results found.")
				return nil
			}

			fmt.Fprintf(out, "%-24s %-7s %-10s %-7s %s\n", "Name", "Score", "Status", "Traces", "Timestamp")
			fmt.Fprintln(out, "─────────────────────────────────────────────────────────────────────")
			for _, e := range entries {
				fmt.Fprintf(out, "%-24s %-7s %-10s %-7d %s\n",
					e.Name, fmt.Sprintf("%.0f%%", e.Score*100), e.Status, e.Traces, e.Timestamp.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newResultsShowCommand(dir *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print the report of a saved result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := reporting.ParseFormat(format)
			if err != nil {
				return err
			}

			result, err := results.NewStore(*dir).Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			return reporting.Write(out, result, f, reporting.Options{
				Console:   reporting.ConsoleOptionsFor(out),
				Threshold: junitThreshold(0),
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", config.DefaultFormat, "Report format: console, markdown, html, json or junit")

	return cmd
}

func newResultsCompareCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <name> <name> [name...]",
		Short: "Compare saved results side by side",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmp, err := results.NewStore(*dir).Compare(args...)
			if err != nil {
				return err
			}

			reporting.WriteComparison(cmd.OutOrStdout(), cmp)
			return nil
		},
	}
}
