package capture

import (
	"fmt"

	"github.com/spboyer/agentra/internal/config"
)

// LoadCollector creates a collector from an agentra.yaml file. The system name,
// description and sample rate come from the file; opts are applied after them, so
// they win. An empty path searches the working directory and its parents, and when
// no file is found the collector uses defaults with systemName as its name.
func LoadCollector(path, systemName string, opts ...CollectorOption) (*Collector, error) {
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return nil, err
		}
		path = found
	}

	settings := []CollectorOption{WithSampleRate(config.DefaultSampleRate)}
	if path != "" {
		f, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg := config.NewEvalConfig(f.Options()...)
		if cfg.SystemName() != "" {
			systemName = cfg.SystemName()
		}
		settings = []CollectorOption{WithSampleRate(cfg.SampleRate())}
		if cfg.Description() != "" {
			settings = append(settings, WithDescription(cfg.Description()))
		}
	}

	if systemName == "" {
		return nil, fmt.Errorf("a system name is required: set system.name in %s or pass one", config.DefaultFileName)
	}

	return NewCollector(systemName, append(settings, opts...)...), nil
}
