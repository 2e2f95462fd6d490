package recommend

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/estimator"
)

// grid builds an n×n unit-region grid from a per-cell function.
func grid(n int, fn func(x, y float64) (value, uncertainty float64)) []estimator.CellEstimate {
	out := make([]estimator.CellEstimate, 0, n*n)
	for gy := 0; gy < n; gy++ {
		for gx := 0; gx < n; gx++ {
			x := (float64(gx) + 0.5) / float64(n)
			y := (float64(gy) + 0.5) / float64(n)
			v, u := fn(x, y)
			out = append(out, estimator.CellEstimate{GX: gx, GY: gy, X: x, Y: y, Value: v, Uncertainty: u})
		}
	}
	return out
}

func TestTLPPrefersUnknownDeficits(t *testing.T) {
	// Left half: low knowledge, high uncertainty. Right half: mastered.
	cells := grid(10, func(x, _ float64) (float64, float64) {
		if x < 0.5 {
			return 0.2, 0.9
		}
		return 0.9, 0.1
	})

	weak := Video{VideoID: "weak", Windows: []estimator.Region{{X0: 0, Y0: 0, X1: 0.5, Y1: 1}}}
	strong := Video{VideoID: "strong", Windows: []estimator.Region{{X0: 0.5, Y0: 0, X1: 1, Y1: 1}}}

	if TLP(weak, cells) <= TLP(strong, cells) {
		t.Fatalf("deficit region must score higher: %f vs %f", TLP(weak, cells), TLP(strong, cells))
	}
}

func TestTLPEmptyWindow(t *testing.T) {
	cells := grid(10, func(_, _ float64) (float64, float64) { return 0.5, 0.5 })
	outside := Video{VideoID: "v", Windows: []estimator.Region{{X0: 2, Y0: 2, X1: 3, Y1: 3}}}
	if got := TLP(outside, cells); got != 0 {
		t.Fatalf("window covering no cells must score 0, got %f", got)
	}
}

func TestDiffMapEMA(t *testing.T) {
	m := NewDiffMap(DefaultConfig())
	video := Video{VideoID: "v", Windows: []estimator.Region{{X0: 0, Y0: 0, X1: 1, Y1: 1}}}

	before := grid(4, func(_, _ float64) (float64, float64) { return 0.4, 0.5 })
	after := grid(4, func(_, _ float64) (float64, float64) { return 0.6, 0.5 })

	// First watch seeds the EMA directly.
	m.Update(video, before, after)
	if math.Abs(m.Gain("v")-0.2) > 1e-9 {
		t.Fatalf("expected seeded gain 0.2, got %f", m.Gain("v"))
	}

	// Second watch with zero delta decays toward zero: 0.7·0.2 + 0.3·0 = 0.14.
	m.Update(video, after, after)
	if math.Abs(m.Gain("v")-0.14) > 1e-9 {
		t.Fatalf("expected decayed gain 0.14, got %f", m.Gain("v"))
	}

	if m.Gain("never-watched") != 0 {
		t.Fatal("unwatched video must have zero gain")
	}
}

func TestRankOrdersAndBlends(t *testing.T) {
	cells := grid(10, func(x, _ float64) (float64, float64) {
		if x < 0.5 {
			return 0.2, 0.9
		}
		return 0.9, 0.1
	})
	weak := Video{VideoID: "weak", Windows: []estimator.Region{{X0: 0, Y0: 0, X1: 0.5, Y1: 1}}}
	strong := Video{VideoID: "strong", Windows: []estimator.Region{{X0: 0.5, Y0: 0, X1: 1, Y1: 1}}}

	ranked := Rank([]Video{strong, weak}, cells, nil, DefaultConfig())
	if ranked[0].VideoID != "weak" {
		t.Fatalf("expected weak region first, got %s", ranked[0].VideoID)
	}
	for _, r := range ranked {
		if r.Score < 0 {
			t.Fatalf("negative score for %s", r.VideoID)
		}
	}

	// A strong observed gain can lift a video in the ranking.
	diffs := NewDiffMap(DefaultConfig())
	before := grid(10, func(x, y float64) (float64, float64) {
		if x >= 0.5 {
			return 0.3, 0.1
		}
		return 0.2, 0.9
	})
	diffs.Update(strong, before, cells)
	blended := Rank([]Video{strong, weak}, cells, diffs, DefaultConfig())
	if blended[0].Gain == 0 && blended[1].Gain == 0 {
		t.Fatal("expected gain to enter the blend")
	}
}
