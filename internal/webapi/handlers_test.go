package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spboyer/agentra/models"
	"github.com/spboyer/agentra/internal/results"
)

// mockStore implements ResultStore for testing.
type mockStore struct {
	results map[string]*models.EvaluationResult
	listErr error
}

func newMockStore() *mockStore {
	return &mockStore{results: make(map[string]*models.EvaluationResult)}
}

func (m *mockStore) add(r *models.EvaluationResult) {
	m.results[r.Name] = r
}

func (m *mockStore) List() ([]results.Entry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	list := make([]results.Entry, 0, len(m.results))
	for _, r := range m.results {
		list = append(list, results.Entry{
			Name:      r.Name,
			Filename:  r.Name + ".json",
			Timestamp: r.Timestamp,
			Score:     r.Score,
			Status:    r.Status,
			Traces:    r.TotalTraces,
		})
	}
	return list, nil
}

func (m *mockStore) Load(name string) (*models.EvaluationResult, error) {
	r, ok := m.results[name]
	if !ok {
		return nil, fmt.Errorf("%w: no results matching %q", results.ErrNotFound, name)
	}
	return r, nil
}

func (m *mockStore) Compare(names ...string) (*results.Comparison, error) {
	cmp := &results.Comparison{}
	seen := map[string]bool{}
	for _, name := range names {
		r, err := m.Load(name)
		if err != nil {
			return nil, err
		}
		cmp.Results = append(cmp.Results, r)
		for _, c := range r.Categories {
			if !seen[c.Name] {
				seen[c.Name] = true
				cmp.Categories = append(cmp.Categories, c.Name)
			}
		}
	}
	return cmp, nil
}

func sampleResult(name string, score float64, traces int, ts time.Time, categories ...models.CategoryResult) *models.EvaluationResult {
	return &models.EvaluationResult{
		Name:        name,
		SystemName:  "support-bot",
		Score:       score,
		Status:      models.ClassifyStatus(score),
		Categories:  categories,
		TotalTraces: traces,
		Timestamp:   ts,
		Version:     models.Version,
	}
}

func newPopulatedStore() *mockStore {
	ts := time.Date(2026, 2, 18, 15, 30, 0, 0, time.UTC)
	store := newMockStore()
	store.add(sampleResult("baseline", 0.70, 4, ts,
		models.CategoryResult{Name: "functional", Score: 0.8, Weight: 0.2},
		models.CategoryResult{Name: "safety", Score: 0.6, Weight: 0.15}))
	store.add(sampleResult("candidate", 0.92, 5, ts.Add(time.Hour),
		models.CategoryResult{Name: "functional", Score: 0.95, Weight: 0.2}))
	return store
}

func serve(t *testing.T, store ResultStore, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	RegisterRoutes(mux, store)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	h := NewHandlers(newMockStore())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	h.HandleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
	if resp.Version != models.Version {
		t.Errorf("expected version %q, got %q", models.Version, resp.Version)
	}
}

func TestHandleSummaryEmpty(t *testing.T) {
	rec := serve(t, newMockStore(), "/api/summary")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp SummaryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalResults != 0 {
		t.Errorf("expected 0 results, got %d", resp.TotalResults)
	}
	if resp.Latest != "" {
		t.Errorf("expected no latest result, got %q", resp.Latest)
	}
}

func TestHandleSummaryWithResults(t *testing.T) {
	rec := serve(t, newPopulatedStore(), "/api/summary")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp SummaryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalResults != 2 {
		t.Errorf("expected 2 results, got %d", resp.TotalResults)
	}
	if diff := resp.AvgScore - 0.81; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected avg score 0.81, got %v", resp.AvgScore)
	}
	if resp.BestScore != 0.92 {
		t.Errorf("expected best score 0.92, got %v", resp.BestScore)
	}
	if resp.Latest != "candidate" || resp.LatestScore != 0.92 {
		t.Errorf("expected latest candidate at 0.92, got %q at %v", resp.Latest, resp.LatestScore)
	}
	if resp.StatusCounts[models.StatusExcellent] != 1 || resp.StatusCounts[models.StatusFair] != 1 {
		t.Errorf("unexpected status counts %v", resp.StatusCounts)
	}
}

func TestHandleResultsSorting(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"/api/results", []string{"candidate", "baseline"}},
		{"/api/results?order=asc", []string{"baseline", "candidate"}},
		{"/api/results?sort=score&order=asc", []string{"baseline", "candidate"}},
		{"/api/results?sort=score", []string{"candidate", "baseline"}},
		{"/api/results?sort=name&order=asc", []string{"baseline", "candidate"}},
		{"/api/results?sort=traces", []string{"candidate", "baseline"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := serve(t, newPopulatedStore(), tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}

			var list []ResultSummary
			if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
				t.Fatal(err)
			}
			if len(list) != len(tt.want) {
				t.Fatalf("expected %d results, got %d", len(tt.want), len(list))
			}
			for i, name := range tt.want {
				if list[i].Name != name {
					t.Errorf("position %d: expected %q, got %q", i, name, list[i].Name)
				}
			}
		})
	}
}

func TestHandleResultsEmptyIsArray(t *testing.T) {
	rec := serve(t, newMockStore(), "/api/results")

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("expected empty JSON array, got %s", got)
	}
}

func TestHandleResultsStoreError(t *testing.T) {
	store := newMockStore()
	store.listErr = errors.New("disk on fire")

	for _, path := range []string{"/api/results", "/api/summary"} {
		rec := serve(t, store, path)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s: expected 500, got %d", path, rec.Code)
		}

		var resp ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Error != "disk on fire" || resp.Code != http.StatusInternalServerError {
			t.Errorf("%s: unexpected error body %+v", path, resp)
		}
	}
}

func TestHandleResultDetail(t *testing.T) {
	rec := serve(t, newPopulatedStore(), "/api/results/baseline")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result models.EvaluationResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Name != "baseline" {
		t.Errorf("expected baseline, got %q", result.Name)
	}
	if len(result.Categories) != 2 {
		t.Errorf("expected 2 categories, got %d", len(result.Categories))
	}
}

func TestHandleResultDetailNotFound(t *testing.T) {
	rec := serve(t, newPopulatedStore(), "/api/results/nonexistent")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleResultDetailOutsideResultsDir(t *testing.T) {
	parent := t.TempDir()
	secret, err := results.NewStore(parent).Save(sampleResult("", 0.9, 1, time.Now()), "secret")
	if err != nil {
		t.Fatal(err)
	}
	name := strings.TrimSuffix(filepath.Base(secret), ".json")

	store := results.NewStore(filepath.Join(parent, "results"))
	if _, err := store.Save(sampleResult("", 0.5, 1, time.Now()), "run"); err != nil {
		t.Fatal(err)
	}

	for _, target := range []string{
		"/api/results/..%2F" + name,
		"/api/results/..%2F" + name + ".json",
		"/api/results/..%2F" + name + "/report",
		"/api/results/..%5C" + name,
	} {
		rec := serve(t, store, target)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d: %s", target, rec.Code, rec.Body.String())
		}
	}

	rec := serve(t, store, "/api/compare?name=run&name=..%2F"+name)
	if rec.Code != http.StatusNotFound {
		t.Errorf("compare: expected 404, got %d", rec.Code)
	}
}

func TestHandleResultDetailMissingName(t *testing.T) {
	h := NewHandlers(newPopulatedStore())
	req := httptest.NewRequest(http.MethodGet, "/api/results/", nil)
	rec := httptest.NewRecorder()

	h.HandleResultDetail(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleResultReport(t *testing.T) {
	rec := serve(t, newPopulatedStore(), "/api/results/candidate/report")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<table>") {
		t.Error("expected rendered category table")
	}
	if !strings.Contains(body, "support-bot") {
		t.Error("expected system name in report")
	}
}

func TestHandleCompare(t *testing.T) {
	rec := serve(t, newPopulatedStore(), "/api/compare?name=baseline&name=candidate")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp CompareResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Names) != 2 || resp.Names[0] != "baseline" || resp.Names[1] != "candidate" {
		t.Errorf("unexpected names %v", resp.Names)
	}
	if resp.Delta == nil {
		t.Fatal("expected a delta for two results")
	}
	if diff := *resp.Delta - 0.22; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected delta 0.22, got %v", *resp.Delta)
	}
	if len(resp.Categories) != 2 {
		t.Fatalf("expected 2 category rows, got %d", len(resp.Categories))
	}
	safety := resp.Categories[1]
	if safety.Name != "safety" {
		t.Fatalf("expected safety row, got %q", safety.Name)
	}
	if safety.Scores[0] == nil || *safety.Scores[0] != 0.6 {
		t.Errorf("expected baseline safety 0.6, got %v", safety.Scores[0])
	}
	if safety.Scores[1] != nil {
		t.Errorf("expected missing candidate safety score, got %v", *safety.Scores[1])
	}
}

func TestHandleCompareErrors(t *testing.T) {
	store := newPopulatedStore()

	rec := serve(t, store, "/api/compare?name=baseline")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a single name, got %d", rec.Code)
	}

	rec = serve(t, store, "/api/compare?name=baseline&name=missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown name, got %d", rec.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()

		CORSMiddleware(inner, "http://localhost:5173").ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Errorf("expected origin echoed, got %q", got)
		}
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()

		CORSMiddleware(inner, "http://localhost:5173").ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no CORS header, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/results", nil)
		rec := httptest.NewRecorder()

		CORSMiddleware(inner).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})
}

func TestStoreSatisfiesResultStore(t *testing.T) {
	dir := t.TempDir()
	store := results.NewStore(dir)
	r := sampleResult("", 0.8, 1, time.Now())
	if _, err := store.Save(r, "nightly"); err != nil {
		t.Fatal(err)
	}

	rec := serve(t, store, "/api/results/nightly")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
