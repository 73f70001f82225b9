package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agentra",
		Short: "Agentra - evaluate AI agents from their execution traces",
		Long: `Agentra scores captured agent traces along six quality dimensions:
functional correctness, reasoning, tool usage, output quality, performance
and safety.

It turns exported traces into a weighted score, a status, a list of issues
and recommendations, and can save, compare and publish the results.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newEvaluateCommand())
	cmd.AddCommand(newResultsCommand())
	cmd.AddCommand(newSessionCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newCoverageCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newCacheCommand())

	return cmd
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return newRootCommand().ExecuteContext(ctx)
}
