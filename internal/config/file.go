package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spboyer/agentra/judge"
)

// maxSearchDepth bounds how far [Find] walks up the directory tree.
const maxSearchDepth = 10

// File mirrors agentra.yaml. Unset fields keep the [NewEvalConfig] defaults.
type File struct {
	System struct {
		Name        string `mapstructure:"name"`
		Description string `mapstructure:"description"`
	} `mapstructure:"system"`

	Evaluators []string           `mapstructure:"evaluators"`
	Weights    map[string]float64 `mapstructure:"weights"`

	Judge struct {
		Provider   string        `mapstructure:"provider"`
		Model      string        `mapstructure:"model"`
		Timeout    time.Duration `mapstructure:"timeout"`
		MaxRetries int           `mapstructure:"max_retries"`
		RetryDelay time.Duration `mapstructure:"retry_delay"`
		CacheDir   string        `mapstructure:"cache_dir"`
	} `mapstructure:"judge"`

	Workers    int      `mapstructure:"workers"`
	SampleRate *float64 `mapstructure:"sample_rate"`
	FailUnder  float64  `mapstructure:"fail_under"`
	Filter     []string `mapstructure:"filter"`

	Output struct {
		Format string `mapstructure:"format"`
		Path   string `mapstructure:"path"`
	} `mapstructure:"output"`

	Results struct {
		Dir  string `mapstructure:"dir"`
		Save string `mapstructure:"save"`
	} `mapstructure:"results"`

	SessionLog string `mapstructure:"session_log"`

	Publish struct {
		AccountURL          string `mapstructure:"account_url"`
		ConnectionStringEnv string `mapstructure:"connection_string_env"`
		Container           string `mapstructure:"container"`
		Prefix              string `mapstructure:"prefix"`
	} `mapstructure:"publish"`

	// Path is the file the configuration was read from.
	Path string `mapstructure:"-"`
}

// Parse validates data against the schema and decodes it.
func Parse(data []byte) (*File, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}

	var f File
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &f,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	return &f, nil
}

// Load reads and parses the config file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Find walks up from startDir looking for agentra.yaml. It returns "" with a
// nil error when no file exists. Real I/O errors are returned.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", startDir, err)
	}

	for range maxSearchDepth {
		p := filepath.Join(dir, DefaultFileName)
		_, err := os.Stat(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("checking %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}

// Options converts the file into options. Zero values are skipped so they do
// not override defaults.
func (f *File) Options() []Option {
	var opts []Option
	if f.System.Name != "" {
		opts = append(opts, WithSystemName(f.System.Name))
	}
	if f.System.Description != "" {
		opts = append(opts, WithDescription(f.System.Description))
	}
	if len(f.Evaluators) > 0 {
		opts = append(opts, WithEvaluators(f.Evaluators))
	}
	if len(f.Weights) > 0 {
		opts = append(opts, WithWeights(f.Weights))
	}

	j := judge.Settings{
		Provider:   f.Judge.Provider,
		Model:      f.Judge.Model,
		Timeout:    f.Judge.Timeout,
		MaxRetries: f.Judge.MaxRetries,
		RetryDelay: f.Judge.RetryDelay,
		CacheDir:   f.Judge.CacheDir,
	}
	if j != (judge.Settings{}) {
		if j.Provider == "" {
			j.Provider = judge.ProviderAuto
		}
		opts = append(opts, WithJudge(j))
	}

	if f.Workers > 0 {
		opts = append(opts, WithWorkers(f.Workers))
	}
	if f.SampleRate != nil {
		opts = append(opts, WithSampleRate(*f.SampleRate))
	}
	if f.FailUnder > 0 {
		opts = append(opts, WithFailUnder(f.FailUnder))
	}
	if len(f.Filter) > 0 {
		opts = append(opts, WithFilter(f.Filter))
	}
	if f.Output.Format != "" {
		opts = append(opts, WithFormat(f.Output.Format))
	}
	if f.Output.Path != "" {
		opts = append(opts, WithOutputPath(f.Output.Path))
	}
	if f.Results.Dir != "" {
		opts = append(opts, WithResultsDir(f.Results.Dir))
	}
	if f.Results.Save != "" {
		opts = append(opts, WithSaveName(f.Results.Save))
	}
	if f.SessionLog != "" {
		opts = append(opts, WithSessionLog(f.SessionLog))
	}
	if f.Publish.Container != "" {
		opts = append(opts, WithPublish(Publish(f.Publish)))
	}
	return opts
}
