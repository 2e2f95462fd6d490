package linalg

import (
	"math"
	"testing"
)

func TestDist(t *testing.T) {
	if d := Dist(0, 0, 3, 4); d != 5 {
		t.Fatalf("expected 5, got %f", d)
	}
	if d := Dist(0.5, 0.5, 0.5, 0.5); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestMatern32AtZero(t *testing.T) {
	if k := Matern32(0, 0.18, 1.0); k != 1.0 {
		t.Fatalf("k(0) should equal variance, got %f", k)
	}
	if k := Matern32(0, 0.18, 0.5); k != 0.5 {
		t.Fatalf("k(0) should equal variance, got %f", k)
	}
}

func TestMatern32MonotoneDecreasing(t *testing.T) {
	prev := Matern32(0, 0.18, 1.0)
	for d := 0.01; d <= 2.0; d += 0.01 {
		k := Matern32(d, 0.18, 1.0)
		if k >= prev {
			t.Fatalf("kernel not strictly decreasing at d=%f: %f >= %f", d, k, prev)
		}
		if k < 0 || !IsFinite(k) {
			t.Fatalf("kernel out of bounds at d=%f: %f", d, k)
		}
		prev = k
	}
}

func TestMatern32LengthScaleReach(t *testing.T) {
	// A longer length scale means more covariance at the same distance.
	near := Matern32(0.3, 0.18, 1.0)
	far := Matern32(0.3, 0.5, 1.0)
	if far <= near {
		t.Fatalf("expected longer length scale to reach further: %f <= %f", far, near)
	}
}

func TestMatern32DegenerateLengthScale(t *testing.T) {
	if k := Matern32(0, 0, 1.0); k != 1.0 {
		t.Fatalf("expected variance at d=0, got %f", k)
	}
	if k := Matern32(0.1, 0, 1.0); k != 0 {
		t.Fatalf("expected 0 beyond d=0, got %f", k)
	}
}

func TestAllFinite(t *testing.T) {
	if !AllFinite([]float64{0, 1, -2.5}) {
		t.Fatal("finite slice reported non-finite")
	}
	if AllFinite([]float64{0, math.NaN()}) {
		t.Fatal("NaN slice reported finite")
	}
	if AllFinite([]float64{math.Inf(1)}) {
		t.Fatal("Inf slice reported finite")
	}
}
