package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// #region solve-config

// SolveConfig holds stabilization parameters for the SPD solver.
type SolveConfig struct {
	BaseJitter   float64 // diagonal jitter before size scaling (default 1e-6)
	JitterGrowth float64 // multiplier applied on each retry (default 10)
	MaxAttempts  int     // factorization attempts before degrading (default 3)
}

// DefaultSolveConfig returns the stabilization defaults.
func DefaultSolveConfig() SolveConfig {
	return SolveConfig{
		BaseJitter:   1e-6,
		JitterGrowth: 10,
		MaxAttempts:  3,
	}
}

// #endregion solve-config

// #region solve-result

// SolveResult is the explicit outcome of an SPD solve. A degraded solve is a
// first-class value, not an error: X is all-zero and Reason says why, so the
// caller can fall back to its prior rather than propagate garbage.
type SolveResult struct {
	X        []float64
	Chol     *mat.Cholesky // retained factor; nil when degraded
	Degraded bool
	Attempts int
	Jitter   float64 // jitter actually applied on the final attempt
	Reason   string  // non-empty only when degraded
}

// #endregion solve-result

// #region solve

// SolveSPD solves k·x = b for symmetric positive-definite k via Cholesky
// factorization with an adaptive jitter ladder.
//
// A diagonal jitter scaled to matrix size (BaseJitter · max(1, n/10)) is added
// before factoring; when a pivot fails the full factorization is retried with
// JitterGrowth times the jitter, up to MaxAttempts. Exhausted retries or a
// non-finite solution degrade to the zero vector. Deterministic: the same
// k and b always produce the same result.
func SolveSPD(k *mat.SymDense, b []float64, cfg SolveConfig) SolveResult {
	n := len(b)
	if n == 0 {
		return SolveResult{X: []float64{}}
	}
	if k.SymmetricDim() != n {
		return SolveResult{
			X:        make([]float64, n),
			Degraded: true,
			Reason:   fmt.Sprintf("dimension mismatch: matrix %d, vector %d", k.SymmetricDim(), n),
		}
	}

	jitter := cfg.BaseJitter
	if scale := float64(n) / 10; scale > 1 {
		jitter *= scale
	}

	jittered := mat.NewSymDense(n, nil)
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		jittered.CopySym(k)
		for i := 0; i < n; i++ {
			jittered.SetSym(i, i, k.At(i, i)+jitter)
		}

		var chol mat.Cholesky
		if !chol.Factorize(jittered) {
			jitter *= cfg.JitterGrowth
			continue
		}

		var x mat.VecDense
		if err := chol.SolveVecTo(&x, mat.NewVecDense(n, b)); err != nil {
			jitter *= cfg.JitterGrowth
			continue
		}

		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = x.AtVec(i)
		}
		if !AllFinite(out) {
			return SolveResult{
				X:        make([]float64, n),
				Degraded: true,
				Attempts: attempt,
				Jitter:   jitter,
				Reason:   "solution contains non-finite values",
			}
		}
		return SolveResult{X: out, Chol: &chol, Attempts: attempt, Jitter: jitter}
	}

	return SolveResult{
		X:        make([]float64, n),
		Degraded: true,
		Attempts: cfg.MaxAttempts,
		Jitter:   jitter / cfg.JitterGrowth,
		Reason:   fmt.Sprintf("factorization failed after %d attempts", cfg.MaxAttempts),
	}
}

// #endregion solve

// #region quad-form

// QuadForm computes vᵀ·K⁻¹·v from a retained Cholesky factor of K. Used for
// the GP posterior-variance correction term. Returns 0 when chol is nil
// (degraded solve) so the caller falls back to full prior variance.
func QuadForm(chol *mat.Cholesky, v []float64) float64 {
	if chol == nil || len(v) == 0 {
		return 0
	}
	var z mat.VecDense
	if err := chol.SolveVecTo(&z, mat.NewVecDense(len(v), v)); err != nil {
		return 0
	}
	var sum float64
	for i, vi := range v {
		sum += vi * z.AtVec(i)
	}
	if !IsFinite(sum) {
		return 0
	}
	return sum
}

// #endregion quad-form
