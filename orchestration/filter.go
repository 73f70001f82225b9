package orchestration

import (
	"fmt"
	"path/filepath"

	"github.com/spboyer/agentra/models"
)

// FilterTraces returns the subset of traces whose Name or ID matches at least
// one of the given glob patterns. An empty patterns slice returns all traces
// unchanged.
func FilterTraces(traces []*models.Trace, patterns []string) ([]*models.Trace, error) {
	if len(patterns) == 0 {
		return traces, nil
	}

	var matched []*models.Trace
	for _, t := range traces {
		if t == nil {
			continue
		}
		ok, err := matchesAny(t, patterns)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// matchesAny reports whether a trace's Name or ID matches any pattern.
func matchesAny(t *models.Trace, patterns []string) (bool, error) {
	for _, p := range patterns {
		for _, candidate := range []string{t.Name, t.ID} {
			if candidate == "" {
				continue
			}
			ok, err := filepath.Match(p, candidate)
			if err != nil {
				return false, fmt.Errorf("invalid trace filter pattern %q: %w", p, err)
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, nil
}
