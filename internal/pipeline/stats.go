package pipeline

import (
	"math"
	"sort"

	"github.com/theirongolddev/gptrecap/internal/model"
)

// Describe summarizes values, ignoring NaN. An empty input yields Count 0
// and NaN for every other field.
func Describe(values []float64) model.Stats {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		nan := math.NaN()
		return model.Stats{Min: nan, Mean: nan, Median: nan, P90: nan, Max: nan}
	}
	sort.Float64s(clean)

	return model.Stats{
		Count:  len(clean),
		Min:    clean[0],
		Mean:   mean(clean),
		Median: quantileSorted(clean, 0.5),
		P90:    quantileSorted(clean, 0.9),
		Max:    clean[len(clean)-1],
	}
}

// DescribeInts is Describe over integer values.
func DescribeInts(values []int) model.Stats {
	fs := make([]float64, len(values))
	for i, v := range values {
		fs[i] = float64(v)
	}
	return Describe(fs)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median sorts a copy of values.
func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, 0.5)
}

// quantileSorted interpolates linearly between the closest ranks.
func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
