package linalg

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSolveSPDIdentity(t *testing.T) {
	k := mat.NewSymDense(3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	b := []float64{1, 2, 3}

	res := SolveSPD(k, b, DefaultSolveConfig())
	if res.Degraded {
		t.Fatalf("identity solve degraded: %s", res.Reason)
	}
	if res.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", res.Attempts)
	}
	for i := range b {
		if math.Abs(res.X[i]-b[i]) > 1e-5 {
			t.Fatalf("x[%d] = %f, expected %f", i, res.X[i], b[i])
		}
	}
	if res.Chol == nil {
		t.Fatal("expected retained Cholesky factor")
	}
}

func TestSolveSPDDeterministic(t *testing.T) {
	k := mat.NewSymDense(2, []float64{
		2, 0.5,
		0.5, 1,
	})
	b := []float64{1, -1}

	r1 := SolveSPD(k, b, DefaultSolveConfig())
	r2 := SolveSPD(k, b, DefaultSolveConfig())
	for i := range r1.X {
		if r1.X[i] != r2.X[i] {
			t.Fatalf("non-deterministic at index %d: %v vs %v", i, r1.X[i], r2.X[i])
		}
	}
}

func TestSolveSPDJitterRetry(t *testing.T) {
	// Slightly indefinite: smallest eigenvalue is about -5e-6, so the base
	// jitter of 1e-6 is not enough but the second rung (1e-5) is.
	k := mat.NewSymDense(2, []float64{
		1, 1,
		1, 1 - 1e-5,
	})
	b := []float64{1, 1}

	res := SolveSPD(k, b, DefaultSolveConfig())
	if res.Degraded {
		t.Fatalf("expected recovery via jitter ladder, got degraded: %s", res.Reason)
	}
	if res.Attempts < 2 {
		t.Fatalf("expected retry, solved on attempt %d", res.Attempts)
	}
	if !AllFinite(res.X) {
		t.Fatal("recovered solution not finite")
	}
}

func TestSolveSPDDegradesToZero(t *testing.T) {
	// Strongly indefinite: eigenvalues 3 and -1, no small jitter can fix it.
	k := mat.NewSymDense(2, []float64{
		1, 2,
		2, 1,
	})
	b := []float64{1, 1}

	res := SolveSPD(k, b, DefaultSolveConfig())
	if !res.Degraded {
		t.Fatal("expected degraded result for indefinite matrix")
	}
	if res.Reason == "" {
		t.Fatal("degraded result must carry a reason")
	}
	for i, x := range res.X {
		if x != 0 {
			t.Fatalf("degraded solution must be all-zero, x[%d] = %f", i, x)
		}
	}
	if res.Chol != nil {
		t.Fatal("degraded result must not retain a factor")
	}
}

func TestSolveSPDEmpty(t *testing.T) {
	res := SolveSPD(mat.NewSymDense(1, []float64{1}), nil, DefaultSolveConfig())
	if res.Degraded || len(res.X) != 0 {
		t.Fatalf("empty solve should be a trivial success, got %+v", res)
	}
}

func TestQuadForm(t *testing.T) {
	k := mat.NewSymDense(2, []float64{
		2, 0,
		0, 4,
	})
	res := SolveSPD(k, []float64{1, 1}, DefaultSolveConfig())
	if res.Degraded {
		t.Fatalf("setup solve degraded: %s", res.Reason)
	}

	// vᵀK⁻¹v for v = (2, 2): 4/2 + 4/4 = 3.
	qf := QuadForm(res.Chol, []float64{2, 2})
	if math.Abs(qf-3) > 1e-4 {
		t.Fatalf("expected 3, got %f", qf)
	}

	if qf := QuadForm(nil, []float64{1}); qf != 0 {
		t.Fatalf("nil factor should yield 0, got %f", qf)
	}
}
