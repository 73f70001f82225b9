// Package statistics summarizes the spread of trace scores within one evaluation.
package statistics

import (
	"math"
	"math/rand/v2"
	"slices"
)

// ConfidenceInterval is a percentile bootstrap interval around the mean trace score.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
	NumBootstraps   int     `json:"num_bootstraps"`
}

// DefaultResamples is the number of bootstrap resamples drawn per interval.
const DefaultResamples = 2000

// DefaultConfidenceLevel is used when callers pass a level outside (0, 1).
const DefaultConfidenceLevel = 0.95

// ScoreInterval computes a bootstrap confidence interval over trace scores.
// The same seed always yields the same interval for the same scores.
// With fewer than two scores the interval collapses onto the mean.
func ScoreInterval(scores []float64, confidenceLevel float64, seed uint64) ConfidenceInterval {
	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		confidenceLevel = DefaultConfidenceLevel
	}

	m := Mean(scores)
	ci := ConfidenceInterval{Lower: m, Upper: m, Mean: m, ConfidenceLevel: confidenceLevel}

	n := len(scores)
	if n < 2 {
		return ci
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	means := make([]float64, DefaultResamples)
	for i := range means {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += scores[rng.IntN(n)]
		}
		means[i] = sum / float64(n)
	}
	slices.Sort(means)

	alpha := 1.0 - confidenceLevel
	lo := int(math.Floor(alpha / 2.0 * DefaultResamples))
	hi := min(int(math.Floor((1.0-alpha/2.0)*DefaultResamples)), DefaultResamples-1)

	ci.Lower = means[lo]
	ci.Upper = means[hi]
	ci.NumBootstraps = DefaultResamples
	return ci
}

// Mean is the arithmetic mean of values, 0 when empty.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
