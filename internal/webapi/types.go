package webapi

import (
	"time"

	"github.com/spboyer/agentra/models"
)

// ResultSummary is the API response for a single saved result in the list.
type ResultSummary struct {
	Name      string        `json:"name"`
	Filename  string        `json:"filename"`
	Score     float64       `json:"score"`
	Status    models.Status `json:"status"`
	Traces    int           `json:"traces"`
	Timestamp time.Time     `json:"timestamp"`
}

// SummaryResponse aggregates every saved result.
type SummaryResponse struct {
	TotalResults int                   `json:"totalResults"`
	AvgScore     float64               `json:"avgScore"`
	BestScore    float64               `json:"bestScore"`
	Latest       string                `json:"latest,omitempty"`
	LatestScore  float64               `json:"latestScore"`
	StatusCounts map[models.Status]int `json:"statusCounts"`
}

// CategoryRow is one category across every compared result. A nil entry in
// Scores means the result has no score for that category.
type CategoryRow struct {
	Name   string     `json:"name"`
	Scores []*float64 `json:"scores"`
}

// CompareResponse lines up several results.
type CompareResponse struct {
	Names      []string        `json:"names"`
	Scores     []float64       `json:"scores"`
	Statuses   []models.Status `json:"statuses"`
	Categories []CategoryRow   `json:"categories"`
	Delta      *float64        `json:"delta,omitempty"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
