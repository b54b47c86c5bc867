package ea

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarizes the population at a generation boundary.
type GenerationStats struct {
	Generation   int
	BestScore    float64
	MeanScore    float64
	StdevScore   float64
	MedianScore  float64
	FiniteScores int // Members with a finite score; the rest are left out of the statistics.
	SpeciesCount int
}

// ComputeStats builds the statistics of one generation from raw scores.
func ComputeStats(generation int, scores []float64, best float64, speciesCount int) GenerationStats {
	finite := FiniteValues(scores)
	st := GenerationStats{
		Generation:   generation,
		BestScore:    best,
		MeanScore:    math.NaN(),
		StdevScore:   math.NaN(),
		MedianScore:  math.NaN(),
		FiniteScores: len(finite),
		SpeciesCount: speciesCount,
	}
	if len(finite) == 0 {
		return st
	}
	st.MeanScore = stat.Mean(finite, nil)
	st.StdevScore = 0
	if len(finite) > 1 {
		st.StdevScore = stat.StdDev(finite, nil)
	}
	st.MedianScore = Median(finite)
	return st
}

// FiniteValues returns the values that are neither NaN nor infinite.
func FiniteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Median calculates the median of a slice of float64 values.
// Returns NaN if the slice is empty.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2.0
}
