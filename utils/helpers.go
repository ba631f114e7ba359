package utils

import (
	"math"

	"golang.org/x/exp/constraints"
)

// An imprecise float approximate comparison. Variance defaults to 0.001.
func FloatEquals(a float64, b float64, inputVariance ...float64) bool {
	variance := 0.001
	if len(inputVariance) >= 1 {
		variance = inputVariance[0]
	}
	return math.Abs(a-b) < variance
}

func Max[T constraints.Ordered](x, y T) T {
	if x < y {
		return y
	}
	return x
}

// Panics on an empty slice.
func MaxSlice[T constraints.Ordered](slice []T) T {
	max := slice[0]
	for i := range slice {
		max = Max(max, slice[i])
	}
	return max
}

// Converts a slice of integers to float64, e.g. counters headed for a float sink.
func ToFloat64[T constraints.Integer](slice []T) []float64 {
	out := make([]float64, len(slice))
	for i := range slice {
		out[i] = float64(slice[i])
	}
	return out
}
