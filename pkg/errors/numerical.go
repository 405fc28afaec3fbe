package errors

import (
	"math"
)

// CheckMatrix returns a NonFiniteError for the first NaN or Inf it finds.
// Split search orders feature values with <=, which is undefined for NaN.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols int) error {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := matrix.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return NewNonFiniteError(operation, i, j, v)
			}
		}
	}
	return nil
}

// CheckWeights validates optional per-sample weights: nil is accepted,
// otherwise the length must match and every weight must be finite and
// non-negative with a positive total.
func CheckWeights(operation string, weights []float64, nSamples int) error {
	if weights == nil {
		return nil
	}
	if len(weights) != nSamples {
		return NewDimensionError(operation, nSamples, len(weights), 0)
	}
	total := 0.0
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return NewNonFiniteError(operation, i, 0, w)
		}
		if w < 0 {
			return NewValidationError("sample_weight", "must be non-negative", w)
		}
		total += w
	}
	if total <= 0 {
		return NewValidationError("sample_weight", "total weight must be positive", total)
	}
	return nil
}
