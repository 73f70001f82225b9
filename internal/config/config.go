// Package config holds the settings for one evaluation, assembled from an
// agentra.yaml file and command line flags.
package config

import (
	"maps"
	"slices"

	"github.com/spboyer/agentra/judge"
)

// Defaults shared by the file loader and the CLI.
const (
	DefaultFileName   = "agentra.yaml"
	DefaultWorkers    = 4
	DefaultSampleRate = 1.0
	DefaultFormat     = "console"
	DefaultResultsDir = "agentra-results"
)

// EvalConfig is the resolved configuration of one evaluation.
type EvalConfig struct {
	systemName  string
	description string

	evaluators []string
	weights    map[string]float64
	judge      judge.Settings

	workers    int
	sampleRate float64
	failUnder  float64
	filter     []string

	format     string
	outputPath string
	resultsDir string
	saveName   string
	sessionLog string

	publish Publish
}

// Publish names the blob container that results are uploaded to.
type Publish struct {
	AccountURL string
	// ConnectionStringEnv names the environment variable holding a connection string.
	ConnectionStringEnv string
	Container           string
	Prefix              string
}

// Enabled reports whether a publish target is configured.
func (p Publish) Enabled() bool {
	return p.Container != "" && (p.AccountURL != "" || p.ConnectionStringEnv != "")
}

// Option configures an [EvalConfig]. Options apply in order, so later ones win.
type Option func(*EvalConfig)

// NewEvalConfig returns a config with defaults, then applies opts.
func NewEvalConfig(opts ...Option) *EvalConfig {
	cfg := &EvalConfig{
		workers:    DefaultWorkers,
		sampleRate: DefaultSampleRate,
		format:     DefaultFormat,
		resultsDir: DefaultResultsDir,
		judge:      judge.Settings{Provider: judge.ProviderAuto},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func WithSystem(name, description string) Option {
	return func(c *EvalConfig) {
		c.systemName = name
		c.description = description
	}
}

func WithSystemName(name string) Option {
	return func(c *EvalConfig) { c.systemName = name }
}

func WithDescription(description string) Option {
	return func(c *EvalConfig) { c.description = description }
}

// WithEvaluators restricts the run to the named categories. Empty means all.
func WithEvaluators(names []string) Option {
	return func(c *EvalConfig) { c.evaluators = slices.Clone(names) }
}

// WithWeights replaces the weight override table. A nil map clears it.
func WithWeights(weights map[string]float64) Option {
	return func(c *EvalConfig) { c.weights = maps.Clone(weights) }
}

// WithWeight sets a single override, keeping the others.
func WithWeight(category string, weight float64) Option {
	return func(c *EvalConfig) {
		if c.weights == nil {
			c.weights = map[string]float64{}
		}
		c.weights[category] = weight
	}
}

func WithJudge(s judge.Settings) Option {
	return func(c *EvalConfig) { c.judge = s }
}

func WithJudgeProvider(provider string) Option {
	return func(c *EvalConfig) { c.judge.Provider = provider }
}

func WithJudgeModel(model string) Option {
	return func(c *EvalConfig) { c.judge.Model = model }
}

func WithJudgeCache(dir string) Option {
	return func(c *EvalConfig) { c.judge.CacheDir = dir }
}

func WithWorkers(n int) Option {
	return func(c *EvalConfig) { c.workers = max(n, 1) }
}

func WithSampleRate(rate float64) Option {
	return func(c *EvalConfig) { c.sampleRate = rate }
}

// WithFailUnder sets the score below which an evaluation counts as failed. Zero disables it.
func WithFailUnder(score float64) Option {
	return func(c *EvalConfig) { c.failUnder = score }
}

func WithFilter(patterns []string) Option {
	return func(c *EvalConfig) { c.filter = slices.Clone(patterns) }
}

func WithFormat(format string) Option {
	return func(c *EvalConfig) { c.format = format }
}

func WithOutputPath(path string) Option {
	return func(c *EvalConfig) { c.outputPath = path }
}

func WithResultsDir(dir string) Option {
	return func(c *EvalConfig) { c.resultsDir = dir }
}

func WithSaveName(name string) Option {
	return func(c *EvalConfig) { c.saveName = name }
}

func WithSessionLog(path string) Option {
	return func(c *EvalConfig) { c.sessionLog = path }
}

func WithPublish(p Publish) Option {
	return func(c *EvalConfig) { c.publish = p }
}

func (c *EvalConfig) SystemName() string  { return c.systemName }
func (c *EvalConfig) Description() string { return c.description }

// Evaluators returns the selected categories, or nil for all of them.
func (c *EvalConfig) Evaluators() []string { return slices.Clone(c.evaluators) }

// Weights returns the weight overrides, or nil when the defaults apply.
func (c *EvalConfig) Weights() map[string]float64 { return maps.Clone(c.weights) }

func (c *EvalConfig) Judge() judge.Settings { return c.judge }
func (c *EvalConfig) Workers() int          { return c.workers }
func (c *EvalConfig) SampleRate() float64   { return c.sampleRate }
func (c *EvalConfig) FailUnder() float64    { return c.failUnder }
func (c *EvalConfig) Filter() []string      { return slices.Clone(c.filter) }
func (c *EvalConfig) Format() string        { return c.format }
func (c *EvalConfig) OutputPath() string    { return c.outputPath }
func (c *EvalConfig) ResultsDir() string    { return c.resultsDir }
func (c *EvalConfig) SaveName() string      { return c.saveName }
func (c *EvalConfig) SessionLog() string    { return c.sessionLog }
func (c *EvalConfig) Publish() Publish      { return c.publish }
