package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess    = 0 // Evaluation met the threshold
	ExitBelowScore = 1 // Evaluation scored below --fail-under
	ExitError      = 2 // Configuration or runtime error
)

// ScoreBelowThresholdError indicates that the evaluation ran successfully,
// but the overall score is below the configured threshold.
type ScoreBelowThresholdError struct {
	Score     float64
	Threshold float64
}

func (e *ScoreBelowThresholdError) Error() string {
	return fmt.Sprintf("score %.0f%% is below the required %.0f%%", e.Score*100, e.Threshold*100)
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var belowErr *ScoreBelowThresholdError
		if errors.As(err, &belowErr) {
			os.Exit(ExitBelowScore)
		}

		os.Exit(ExitError)
	}
}
