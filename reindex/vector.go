package reindex

import "math"

// NormalizeVector scales a vector to unit length, returning a new slice.
// The squared magnitude is accumulated in float64 so long vectors do not
// lose precision before the square root. A zero vector normalizes to a
// zero vector of the same length.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	result := make([]float32, len(v))
	if sumSquares == 0 {
		return result
	}

	magnitude := math.Sqrt(sumSquares)
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}
