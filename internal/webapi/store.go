package webapi

import (
	"slices"
	"strings"

	"github.com/spboyer/agentra/models"
	"github.com/spboyer/agentra/internal/results"
)

// ResultStore provides access to saved evaluation results.
type ResultStore interface {
	// List returns every saved result, newest first.
	List() ([]results.Entry, error)
	// Load returns a single result by name, file name, or prefix.
	Load(name string) (*models.EvaluationResult, error)
	// Compare loads several results for side-by-side display.
	Compare(names ...string) (*results.Comparison, error)
}

var _ ResultStore = (*results.Store)(nil)

func toSummaries(entries []results.Entry) []ResultSummary {
	out := make([]ResultSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, ResultSummary{
			Name:      e.Name,
			Filename:  e.Filename,
			Score:     e.Score,
			Status:    e.Status,
			Traces:    e.Traces,
			Timestamp: e.Timestamp,
		})
	}
	return out
}

func summarize(entries []results.Entry) *SummaryResponse {
	resp := &SummaryResponse{StatusCounts: map[models.Status]int{}}
	if len(entries) == 0 {
		return resp
	}

	total := 0.0
	latest := entries[0]
	for _, e := range entries {
		resp.TotalResults++
		total += e.Score
		resp.StatusCounts[e.Status]++
		if e.Score > resp.BestScore {
			resp.BestScore = e.Score
		}
		if e.Timestamp.After(latest.Timestamp) {
			latest = e
		}
	}
	resp.AvgScore = total / float64(resp.TotalResults)
	resp.Latest = latest.Name
	resp.LatestScore = latest.Score
	return resp
}

func toComparison(cmp *results.Comparison) *CompareResponse {
	resp := &CompareResponse{}
	for _, r := range cmp.Results {
		resp.Names = append(resp.Names, r.Name)
		resp.Scores = append(resp.Scores, r.Score)
		resp.Statuses = append(resp.Statuses, r.Status)
	}
	for _, name := range cmp.Categories {
		row := CategoryRow{Name: name, Scores: make([]*float64, len(cmp.Results))}
		for i := range cmp.Results {
			if score, ok := cmp.CategoryScore(i, name); ok {
				row.Scores[i] = &score
			}
		}
		resp.Categories = append(resp.Categories, row)
	}
	if n := len(resp.Scores); n >= 2 {
		d := resp.Scores[n-1] - resp.Scores[0]
		resp.Delta = &d
	}
	return resp
}

func sortSummaries(list []ResultSummary, field, order string) {
	cmp := func(a, b ResultSummary) int {
		switch field {
		case "score":
			switch {
			case a.Score < b.Score:
				return -1
			case a.Score > b.Score:
				return 1
			}
			return 0
		case "name":
			return strings.Compare(a.Name, b.Name)
		case "traces":
			return a.Traces - b.Traces
		default: // "timestamp" or empty
			return a.Timestamp.Compare(b.Timestamp)
		}
	}

	if order == "asc" {
		slices.SortStableFunc(list, cmp)
	} else {
		slices.SortStableFunc(list, func(a, b ResultSummary) int { return cmp(b, a) })
	}
}
