package vector

import "math"

// Normalize scales v in place to unit length and returns it. Zero vectors are
// returned unchanged.
func Normalize(v []float32) []float32 {
	n := Norm(v)
	if n == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / n)
	}
	return v
}

// IsNormalized reports whether |v| is within tol of 1.
func IsNormalized(v []float32, tol float64) bool {
	return math.Abs(Norm(v)-1) <= tol
}

// FitDimension truncates or zero-pads v to dim. It returns v itself when the
// length already matches and dim <= 0 disables fitting.
func FitDimension(v []float32, dim int) []float32 {
	if dim <= 0 || len(v) == dim {
		return v
	}
	if len(v) > dim {
		return v[:dim:dim]
	}
	out := make([]float32, dim)
	copy(out, v)
	return out
}

// Clone returns a copy of v.
func Clone(v []float32) []float32 {
	if v == nil {
		return nil
	}
	return append([]float32(nil), v...)
}
