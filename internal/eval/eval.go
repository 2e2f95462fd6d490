package eval

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/estimator"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/linalg"
)

// #region eval-harness
// EvalHarness runs lightweight validation on a predicted posterior grid.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run validates one posterior grid against the core invariants: every
// probability-like quantity finite and within bounds, unknown cells reporting
// the prior mean, and (once enough observations exist) a posterior that
// forms a gradient rather than a uniform blob. Returns pass/fail with
// per-check metrics.
func (h *EvalHarness) Run(estimates []estimator.CellEstimate, obsCount int) EvalResult {
	var metrics []EvalMetric
	passed := true
	var failReasons []string

	// 1. Bounds and finiteness across the grid.
	boundsViolations := 0
	for _, c := range estimates {
		if !linalg.IsFinite(c.Value) || c.Value < 0 || c.Value > 1 ||
			!linalg.IsFinite(c.Uncertainty) || c.Uncertainty < 0 || c.Uncertainty > 1 {
			boundsViolations++
		}
		if c.DifficultyLevel < 0 || c.DifficultyLevel > 4 {
			boundsViolations++
		}
	}
	boundsPass := boundsViolations == 0
	metrics = append(metrics, EvalMetric{Name: "bounds_violations", Value: float64(boundsViolations), Pass: boundsPass})
	if !boundsPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("%d cells out of bounds", boundsViolations))
	}

	// 2. Unknown cells report the prior mean.
	unknownViolations := 0
	for _, c := range estimates {
		if c.State == estimator.StateUnknown && c.Value != h.config.PriorMean {
			unknownViolations++
		}
	}
	unknownPass := unknownViolations == 0
	metrics = append(metrics, EvalMetric{Name: "unknown_prior_violations", Value: float64(unknownViolations), Pass: unknownPass})
	if !unknownPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("%d unknown cells off prior mean", unknownViolations))
	}

	// 3. Gradient floor: enforced only once the domain is well observed.
	stddev := valueStddev(estimates)
	gradientPass := true
	if obsCount >= h.config.GradientMinObs {
		gradientPass = stddev > h.config.GradientFloor
	}
	metrics = append(metrics, EvalMetric{Name: "value_stddev", Value: stddev, Pass: gradientPass})
	if !gradientPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("value stddev %.4f under floor %.4f at %d observations", stddev, h.config.GradientFloor, obsCount))
	}

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{Passed: passed, Metrics: metrics, Reason: reason}
}

// #endregion eval-harness

// #region helpers
// valueStddev computes the standard deviation of cell values.
func valueStddev(estimates []estimator.CellEstimate) float64 {
	if len(estimates) == 0 {
		return 0
	}
	var sum float64
	for _, c := range estimates {
		sum += c.Value
	}
	mean := sum / float64(len(estimates))
	var sq float64
	for _, c := range estimates {
		d := c.Value - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(estimates)))
}

// #endregion helpers
