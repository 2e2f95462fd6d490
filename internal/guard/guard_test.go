package guard

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/estimator"
)

func flatGrid(n int, value, uncertainty float64) []estimator.CellEstimate {
	out := make([]estimator.CellEstimate, n*n)
	for i := range out {
		out[i] = estimator.CellEstimate{
			GX: i % n, GY: i / n,
			Value:       value,
			Uncertainty: uncertainty,
		}
	}
	return out
}

func TestCheckStablePosterior(t *testing.T) {
	g := NewGuard(DefaultGuardConfig())
	before := flatGrid(10, 0.5, 1.0)
	after := flatGrid(10, 0.52, 0.95)

	d := g.Check(before, after)
	if d.Action != "ok" {
		t.Fatalf("expected ok, got %s: %s", d.Action, d.Reason)
	}
	if len(d.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", d.Warnings)
	}
}

func TestCheckCoverageJump(t *testing.T) {
	g := NewGuard(DefaultGuardConfig())
	before := flatGrid(10, 0.5, 1.0)  // coverage 0
	after := flatGrid(10, 0.5, 0.1)   // coverage 1

	d := g.Check(before, after)
	if d.Action != "warn" {
		t.Fatalf("expected warn, got %s", d.Action)
	}
	found := false
	for _, w := range d.Warnings {
		if w.Type == WarnCoverageJump {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected coverage_jump warning, got %+v", d.Warnings)
	}
}

func TestCheckMeanShift(t *testing.T) {
	g := NewGuard(DefaultGuardConfig())
	before := flatGrid(10, 0.18, 0.3)
	after := flatGrid(10, 0.95, 0.3)

	d := g.Check(before, after)
	if d.Action != "warn" {
		t.Fatalf("expected warn, got %s", d.Action)
	}
	found := false
	for _, w := range d.Warnings {
		if w.Type == WarnMeanShift {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected mean_shift warning, got %+v", d.Warnings)
	}
}

func TestCheckBoundsBreach(t *testing.T) {
	g := NewGuard(DefaultGuardConfig())
	after := flatGrid(10, 0.5, 0.5)
	after[42].Value = math.NaN()

	d := g.Check(nil, after)
	if d.Action != "warn" {
		t.Fatalf("expected warn for NaN cell, got %s", d.Action)
	}
	if d.Warnings[0].Type != WarnBoundsBreach {
		t.Fatalf("expected bounds_breach, got %s", d.Warnings[0].Type)
	}
}

func TestCheckNilBeforeGrid(t *testing.T) {
	// First observation of a session has no predecessor posterior: only the
	// bounds check applies.
	g := NewGuard(DefaultGuardConfig())
	after := flatGrid(10, 0.9, 0.1)

	d := g.Check(nil, after)
	if d.Action != "ok" {
		t.Fatalf("expected ok with no before grid, got %s: %s", d.Action, d.Reason)
	}
}
