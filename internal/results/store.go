// Package results persists evaluation results and captured traces.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spboyer/agentra/models"
)

// ErrNotFound is returned when no saved result matches a name.
var ErrNotFound = errors.New("result not found")

// DefaultDir is the directory results are saved to when none is configured.
const DefaultDir = "agentra-results"

// timestampLayout is appended to the result name in saved file names.
const timestampLayout = "20060102_150405"

// Store saves and loads [models.EvaluationResult] JSON files in one directory.
type Store struct {
	dir string

	// now is swapped in tests.
	now func() time.Time
}

// NewStore creates a store rooted at dir. An empty dir means [DefaultDir].
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes result as <dir>/<name>_<YYYYMMDD_HHMMSS>.json and returns the path.
// The result's Name is set to name.
func (s *Store) Save(result *models.EvaluationResult, name string) (string, error) {
	if name == "" {
		return "", errors.New("result name is required")
	}
	if !validName(name) {
		return "", fmt.Errorf("invalid result name %q", name)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}

	result.Name = name

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling result: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", name, s.now().Format(timestampLayout)))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing result: %w", err)
	}

	return path, nil
}

// Load reads a saved result. name is tried as "<name>.json", then as an exact file
// name, then as a prefix, in which case the most recently modified match wins.
func (s *Store) Load(name string) (*models.EvaluationResult, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: invalid result name %q", ErrNotFound, name)
	}

	if _, err := os.Stat(s.dir); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: results directory %s does not exist", ErrNotFound, s.dir)
		}
		return nil, fmt.Errorf("reading results directory: %w", err)
	}

	candidates := []string{filepath.Join(s.dir, name+".json")}
	if strings.HasSuffix(name, ".json") {
		candidates = append(candidates, filepath.Join(s.dir, name))
	}
	for _, path := range candidates {
		if fileExists(path) {
			return loadFile(path)
		}
	}

	path, err := s.mostRecentMatch(name)
	if err != nil {
		return nil, err
	}
	return loadFile(path)
}

// validName reports whether name stays inside the store directory.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func (s *Store) mostRecentMatch(prefix string) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("reading results directory: %w", err)
	}

	var (
		best    string
		bestMod time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best = filepath.Join(s.dir, e.Name())
			bestMod = info.ModTime()
		}
	}

	if best == "" {
		return "", fmt.Errorf("%w: no results matching %q", ErrNotFound, prefix)
	}
	return best, nil
}

func loadFile(path string) (*models.EvaluationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}

	var result models.EvaluationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing result %s: %w", filepath.Base(path), err)
	}
	return &result, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Entry describes one saved result.
type Entry struct {
	Name      string        `json:"name"`
	Filename  string        `json:"filename"`
	Timestamp time.Time     `json:"timestamp"`
	Score     float64       `json:"score"`
	Status    models.Status `json:"status"`
	Traces    int           `json:"traces"`
}

// List returns every readable saved result, newest first. A missing directory
// yields an empty list.
func (s *Store) List() ([]Entry, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("reading results directory: %w", err)
	}

	list := []Entry{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		result, err := loadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}

		name := result.Name
		if name == "" {
			name = strings.TrimSuffix(e.Name(), ".json")
		}
		list = append(list, Entry{
			Name:      name,
			Filename:  e.Name(),
			Timestamp: result.Timestamp,
			Score:     result.Score,
			Status:    result.Status,
			Traces:    result.TotalTraces,
		})
	}

	slices.SortStableFunc(list, func(a, b Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return list, nil
}

// Comparison lines up several saved results.
type Comparison struct {
	Results []*models.EvaluationResult

	// Categories is the union of category names, in first-seen order.
	Categories []string
}

// CategoryScore returns the score of category in the i-th result.
func (c *Comparison) CategoryScore(i int, category string) (float64, bool) {
	cat := c.Results[i].Category(category)
	if cat == nil {
		return 0, false
	}
	return cat.Score, true
}

// Compare loads every named result for side-by-side comparison.
func (s *Store) Compare(names ...string) (*Comparison, error) {
	if len(names) == 0 {
		return nil, errors.New("at least one result name is required")
	}

	cmp := &Comparison{}
	seen := map[string]bool{}
	for _, name := range names {
		result, err := s.Load(name)
		if err != nil {
			return nil, err
		}
		if result.Name == "" {
			result.Name = name
		}
		cmp.Results = append(cmp.Results, result)

		for _, cat := range result.Categories {
			if !seen[cat.Name] {
				seen[cat.Name] = true
				cmp.Categories = append(cmp.Categories, cat.Name)
			}
		}
	}
	return cmp, nil
}
