package guard

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/estimator"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/linalg"
)

// #region guard

// Guard checks consecutive posteriors for catastrophic collapse: a single
// observation swinging aggregate coverage or the mean estimate far beyond
// what one data point can justify. That failure mode manifests to the user
// as a sudden "18% → 95%" style jump of the whole map.
type Guard struct {
	config GuardConfig
}

// NewGuard creates a guard with the given configuration.
func NewGuard(config GuardConfig) *Guard {
	return &Guard{config: config}
}

// Check compares the posterior before and after one observation. Both grids
// must come from the same estimator configuration; a nil or empty before
// grid checks only the after grid's bounds.
func (g *Guard) Check(before, after []estimator.CellEstimate) Decision {
	var warnings []Warning

	// 1. Bounds: every probability-like quantity finite and in [0,1].
	for _, c := range after {
		if !linalg.IsFinite(c.Value) || c.Value < 0 || c.Value > 1 ||
			!linalg.IsFinite(c.Uncertainty) || c.Uncertainty < 0 || c.Uncertainty > 1 {
			warnings = append(warnings, Warning{
				Type:   WarnBoundsBreach,
				Reason: fmt.Sprintf("cell (%d,%d) out of bounds: value %v, uncertainty %v", c.GX, c.GY, c.Value, c.Uncertainty),
			})
			break
		}
	}

	if len(before) == len(after) && len(before) > 0 {
		// 2. Coverage jump.
		coverageDelta := math.Abs(estimator.Coverage(after) - estimator.Coverage(before))
		if coverageDelta > g.config.MaxCoverageDelta {
			warnings = append(warnings, Warning{
				Type:   WarnCoverageJump,
				Reason: fmt.Sprintf("coverage moved %.4f, cap %.4f", coverageDelta, g.config.MaxCoverageDelta),
			})
		}

		// 3. Grid-mean shift.
		meanDelta := math.Abs(gridMean(after) - gridMean(before))
		if meanDelta > g.config.MaxMeanDelta {
			warnings = append(warnings, Warning{
				Type:   WarnMeanShift,
				Reason: fmt.Sprintf("grid mean moved %.4f, cap %.4f", meanDelta, g.config.MaxMeanDelta),
			})
		}
	}

	if len(warnings) > 0 {
		return Decision{
			Action:   "warn",
			Reason:   warnings[0].Reason,
			Warnings: warnings,
		}
	}
	return Decision{Action: "ok", Reason: "posterior stable"}
}

// #endregion guard

// #region helpers

func gridMean(cells []estimator.CellEstimate) float64 {
	if len(cells) == 0 {
		return 0
	}
	var sum float64
	for _, c := range cells {
		sum += c.Value
	}
	return sum / float64(len(cells))
}

// #endregion helpers
