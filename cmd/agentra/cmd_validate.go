package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spboyer/agentra/internal/config"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [agentra.yaml]",
		Short: "Check a configuration file against the schema",
		Long: `Validate an agentra.yaml file against the configuration schema and
report every problem found. Without an argument the file is found by
walking up from the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				found, err := config.Find(".")
				if err != nil {
					return err
				}
				if found == "" {
					return fmt.Errorf("no %s found in this directory or its parents", config.DefaultFileName)
				}
				path = found
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			if err := config.Validate(data); err != nil {
				var ve *config.ValidationError
				if !errors.As(err, &ve) {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(out, "✗ %s\n", path)
				for _, p := range ve.Problems {
					fmt.Fprintf(out, "  %s\n", p)
				}
				return fmt.Errorf("%s has %d problem(s)", path, len(ve.Problems))
			}

			fmt.Fprintf(out, "✓ %s is valid\n", path)
			return nil
		},
	}
}
