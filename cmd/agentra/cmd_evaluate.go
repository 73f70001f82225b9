package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spboyer/agentra/internal/config"
	"github.com/spboyer/agentra/evaluators"
	"github.com/spboyer/agentra/judge"
	"github.com/spboyer/agentra/models"
	"github.com/spboyer/agentra/orchestration"
	"github.com/spboyer/agentra/internal/reporting"
	"github.com/spboyer/agentra/internal/results"
	"github.com/spboyer/agentra/internal/session"
	"github.com/spboyer/agentra/internal/spinner"
	"github.com/spboyer/agentra/internal/telemetry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

type evaluateFlags struct {
	configPath  string
	name        string
	description string
	evaluators  []string
	weights     []string

	judgeProvider string
	judgeModel    string
	judgeCache    string

	workers   int
	filter    []string
	failUnder float64

	format     string
	output     string
	save       string
	resultsDir string
	sessionLog string

	publishAccount   string
	publishContainer string
	publishPrefix    string
}

func newEvaluateCommand() *cobra.Command {
	var flags evaluateFlags

	cmd := &cobra.Command{
		Use:   "evaluate <traces.json[.gz]>",
		Short: "Evaluate exported agent traces",
		Long: `Evaluate a file of exported traces and print a report.

Settings are read from agentra.yaml (found by walking up from the current
directory, or given with --config). Flags override the file.

The command exits with code 1 when the score is below --fail-under and with
code 2 on any other error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, args[0], &flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "Path to agentra.yaml")
	f.StringVar(&flags.name, "name", "", "Name of the system under evaluation")
	f.StringVar(&flags.description, "description", "", "What the system does, given to the judge as context")
	f.StringSliceVar(&flags.evaluators, "evaluators", nil, "Categories to run (default: all)")
	f.StringArrayVar(&flags.weights, "weights", nil, "Category weight override as name=weight (repeatable)")
	f.StringVar(&flags.judgeProvider, "judge-provider", "", "Judge provider: auto, copilot, openai, anthropic or none")
	f.StringVar(&flags.judgeModel, "judge-model", "", "Model used by the judge")
	f.StringVar(&flags.judgeCache, "judge-cache", "", "Directory for caching judge replies")
	f.IntVarP(&flags.workers, "workers", "w", config.DefaultWorkers, "Number of traces scored concurrently")
	f.StringArrayVar(&flags.filter, "filter", nil, "Only evaluate traces whose name or ID matches the glob (repeatable)")
	f.Float64Var(&flags.failUnder, "fail-under", 0, "Exit with code 1 when the score is below this value (0-1)")
	f.StringVarP(&flags.format, "format", "f", config.DefaultFormat, "Report format: console, markdown, html, json or junit")
	f.StringVarP(&flags.output, "output", "o", "", "Write the report to a file instead of stdout")
	f.StringVar(&flags.save, "save", "", "Save the result under this name")
	f.StringVar(&flags.resultsDir, "results-dir", config.DefaultResultsDir, "Directory for saved results")
	f.StringVar(&flags.sessionLog, "session-log", "", "Write an NDJSON session log to this file (.gz to compress)")
	f.StringVar(&flags.publishAccount, "publish-account", "", "Azure Storage account URL to upload the result to")
	f.StringVar(&flags.publishContainer, "publish-container", "", "Blob container for --publish-account")
	f.StringVar(&flags.publishPrefix, "publish-prefix", "", "Blob name prefix for published results")

	return cmd
}

func runEvaluate(cmd *cobra.Command, tracesPath string, flags *evaluateFlags) error {
	ctx := cmd.Context()

	cfg, err := resolveConfig(cmd, flags)
	if err != nil {
		return err
	}

	format, err := reporting.ParseFormat(cfg.Format())
	if err != nil {
		return err
	}

	tf, err := results.ImportTraces(tracesPath)
	if err != nil {
		return err
	}

	systemName := firstNonEmpty(cfg.SystemName(), tf.SystemName, strings.TrimSuffix(filepath.Base(tracesPath), filepath.Ext(tracesPath)))
	description := firstNonEmpty(cfg.Description(), tf.SystemDescription)

	traces, err := orchestration.FilterTraces(tf.Traces, cfg.Filter())
	if err != nil {
		return err
	}
	slog.Debug("Loaded traces", "path", tracesPath, "total", len(tf.Traces), "selected", len(traces))

	client, err := judge.NewClient(cfg.Judge())
	if err != nil {
		return err
	}

	evals, err := buildEvaluators(cfg.Evaluators(), judge.New(client))
	if err != nil {
		return err
	}

	runnerOpts := []orchestration.RunnerOption{
		orchestration.WithWeights(cfg.Weights()),
		orchestration.WithWorkers(cfg.Workers()),
	}
	if path := cfg.SessionLog(); path != "" {
		logger, err := session.NewJSONLogger(path)
		if err != nil {
			return err
		}
		defer func() {
			if err := logger.Close(); err != nil {
				slog.Warn("Failed to close session log", "path", path, "error", err)
			}
		}()
		runnerOpts = append(runnerOpts, orchestration.WithSessionLogger(logger))
	}

	var progress *spinner.Spinner
	if format == reporting.FormatConsole && spinner.Enabled(cmd.ErrOrStderr()) {
		progress = spinner.Start(cmd.ErrOrStderr(), fmt.Sprintf("Scoring %d traces", len(traces)))
	}

	runner := orchestration.NewRunner(evals, runnerOpts...)
	runner.OnProgress(func(e orchestration.ProgressEvent) {
		if e.EventType != orchestration.EventTraceComplete {
			return
		}
		slog.Debug("Trace scored", "trace", e.TraceName, "num", e.TraceNum, "total", e.TotalTraces, "score", e.Score)
		if progress != nil {
			progress.Update(fmt.Sprintf("Scored trace %d/%d: %s", e.TraceNum, e.TotalTraces, e.TraceName))
		}
	})

	result := runner.Evaluate(ctx, traces, systemName, description)
	if progress != nil {
		progress.Stop()
	}

	bridge := telemetry.NewBridge(otel.GetTracerProvider())
	for _, t := range traces {
		bridge.ExportTrace(ctx, t)
	}
	bridge.RecordEvaluation(ctx, result)

	if name := cfg.SaveName(); name != "" {
		path, err := results.NewStore(cfg.ResultsDir()).Save(result, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Result saved to %s\n", path)
	}

	if p := cfg.Publish(); p.Enabled() {
		blobName, err := publishResult(ctx, p, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Result published to %s/%s\n", p.Container, blobName)
	}

	threshold := cfg.FailUnder()
	if err := writeReport(cmd.OutOrStdout(), cfg.OutputPath(), result, format, junitThreshold(threshold)); err != nil {
		return err
	}

	if threshold > 0 && result.Score < threshold {
		return &ScoreBelowThresholdError{Score: result.Score, Threshold: threshold}
	}
	return nil
}

// resolveConfig layers agentra.yaml under the flags the user set explicitly.
func resolveConfig(cmd *cobra.Command, flags *evaluateFlags) (*config.EvalConfig, error) {
	path := flags.configPath
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return nil, err
		}
		path = found
	}

	var opts []config.Option
	if path != "" {
		file, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		slog.Debug("Using configuration file", "path", path)
		opts = append(opts, file.Options()...)
	}

	changed := cmd.Flags().Changed
	if changed("name") {
		opts = append(opts, config.WithSystemName(flags.name))
	}
	if changed("description") {
		opts = append(opts, config.WithDescription(flags.description))
	}
	if changed("evaluators") {
		opts = append(opts, config.WithEvaluators(flags.evaluators))
	}
	if changed("weights") {
		weights, err := parseWeights(flags.weights)
		if err != nil {
			return nil, err
		}
		for name, w := range weights {
			opts = append(opts, config.WithWeight(name, w))
		}
	}
	if changed("judge-provider") {
		opts = append(opts, config.WithJudgeProvider(flags.judgeProvider))
	}
	if changed("judge-model") {
		opts = append(opts, config.WithJudgeModel(flags.judgeModel))
	}
	if changed("judge-cache") {
		opts = append(opts, config.WithJudgeCache(flags.judgeCache))
	}
	if changed("workers") {
		opts = append(opts, config.WithWorkers(flags.workers))
	}
	if changed("filter") {
		opts = append(opts, config.WithFilter(flags.filter))
	}
	if changed("fail-under") {
		if flags.failUnder < 0 || flags.failUnder > 1 {
			return nil, fmt.Errorf("--fail-under must be between 0 and 1, got %v", flags.failUnder)
		}
		opts = append(opts, config.WithFailUnder(flags.failUnder))
	}
	if changed("format") {
		opts = append(opts, config.WithFormat(flags.format))
	}
	if changed("output") {
		opts = append(opts, config.WithOutputPath(flags.output))
	}
	if changed("save") {
		opts = append(opts, config.WithSaveName(flags.save))
	}
	if changed("results-dir") {
		opts = append(opts, config.WithResultsDir(flags.resultsDir))
	}
	if changed("session-log") {
		opts = append(opts, config.WithSessionLog(flags.sessionLog))
	}
	if changed("publish-account") || changed("publish-container") {
		if flags.publishAccount == "" || flags.publishContainer == "" {
			return nil, fmt.Errorf("--publish-account and --publish-container must be used together")
		}
		opts = append(opts, config.WithPublish(config.Publish{
			AccountURL: flags.publishAccount,
			Container:  flags.publishContainer,
			Prefix:     flags.publishPrefix,
		}))
	}

	return config.NewEvalConfig(opts...), nil
}

// parseWeights parses name=weight pairs.
func parseWeights(pairs []string) (map[string]float64, error) {
	weights := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid weight %q: expected name=weight", pair)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", pair, err)
		}
		if w < 0 {
			return nil, fmt.Errorf("invalid weight %q: must not be negative", pair)
		}
		weights[name] = w
	}
	return weights, nil
}

// buildEvaluators returns the named evaluators, or all of them when names is empty.
func buildEvaluators(names []string, scorer evaluators.Scorer) ([]evaluators.Evaluator, error) {
	if len(names) == 0 {
		return evaluators.Defaults(scorer), nil
	}
	evals := make([]evaluators.Evaluator, 0, len(names))
	for _, name := range names {
		e, err := evaluators.Create(name, scorer)
		if err != nil {
			return nil, err
		}
		evals = append(evals, e)
	}
	return evals, nil
}

func publishResult(ctx context.Context, p config.Publish, result *models.EvaluationResult) (string, error) {
	var (
		publisher *results.BlobPublisher
		err       error
	)
	if p.ConnectionStringEnv != "" {
		cs := os.Getenv(p.ConnectionStringEnv)
		if cs == "" {
			return "", fmt.Errorf("environment variable %s is not set", p.ConnectionStringEnv)
		}
		publisher, err = results.NewBlobPublisherFromConnectionString(cs, p.Container, p.Prefix)
	} else {
		publisher, err = results.NewBlobPublisher(p.AccountURL, p.Container, &results.BlobOptions{Prefix: p.Prefix})
	}
	if err != nil {
		return "", err
	}
	return publisher.Publish(ctx, result)
}

// writeReport renders result to path, or to stdout when path is empty.
func writeReport(stdout io.Writer, path string, result *models.EvaluationResult, format reporting.Format, threshold float64) (err error) {
	w := stdout
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	return reporting.Write(w, result, format, reporting.Options{
		Console:   reporting.ConsoleOptionsFor(w),
		Threshold: threshold,
	})
}

// junitThreshold is the per-trace pass mark: the fail-under score when set, otherwise the
// lower bound of the fair status.
func junitThreshold(failUnder float64) float64 {
	if failUnder > 0 {
		return failUnder
	}
	return models.FairThreshold
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
