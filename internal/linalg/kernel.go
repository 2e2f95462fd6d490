package linalg

import "math"

// #region constants

const sqrt3 = 1.7320508075688772

// #endregion constants

// #region distance

// Dist returns the Euclidean distance between two points in the embedding plane.
func Dist(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// #endregion distance

// #region matern

// Matern32 evaluates the Matérn-3/2 covariance at distance d:
//
//	k(d) = variance * (1 + √3 d/ℓ) * exp(-√3 d/ℓ)
//
// A non-positive length scale is treated as degenerate: full covariance at
// d == 0, none elsewhere.
func Matern32(d, lengthScale, variance float64) float64 {
	if lengthScale <= 0 {
		if d == 0 {
			return variance
		}
		return 0
	}
	r := sqrt3 * d / lengthScale
	return variance * (1 + r) * math.Exp(-r)
}

// #endregion matern

// #region finite

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AllFinite reports whether every element of vs is finite.
func AllFinite(vs []float64) bool {
	for _, v := range vs {
		if !IsFinite(v) {
			return false
		}
	}
	return true
}

// #endregion finite
