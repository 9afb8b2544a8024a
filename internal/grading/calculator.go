// Package grading holds the pure academic rules: the weighted final-grade
// calculation and the status resolution state machine. Functions here are
// deterministic, side-effect free and safe to call from any goroutine.
package grading

import "math"

// WeightedEntry pairs a raw score on the 0-10 scale with its percentage weight.
type WeightedEntry struct {
	Score         float64
	WeightPercent float64
}

// WeightedAverage computes the final grade on the 0-10 scale. Each entry
// contributes (score/10)*weight; the sum is divided by 10 and rounded to two
// decimals. Weights are nominally percentages summing to 100: when they sum
// to less, missing evaluations simply do not contribute. No entries yields 0.
func WeightedAverage(entries []WeightedEntry) float64 {
	sum := 0.0
	for _, e := range entries {
		sum += (e.Score / 10.0) * e.WeightPercent
	}
	return round2(sum / 10.0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
