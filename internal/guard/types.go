package guard

// #region warning-type

// WarningType enumerates posterior-stability warning categories.
type WarningType string

const (
	WarnCoverageJump  WarningType = "coverage_jump"
	WarnMeanShift     WarningType = "mean_shift"
	WarnBoundsBreach  WarningType = "bounds_breach"
)

// #endregion warning-type

// #region warning

// Warning represents one detected stability violation.
type Warning struct {
	Type   WarningType
	Reason string
}

// #endregion warning

// #region guard-config

// GuardConfig holds thresholds for posterior-delta checks.
type GuardConfig struct {
	MaxCoverageDelta float64 // max coverage change one observation may cause
	MaxMeanDelta     float64 // max shift of the grid-mean posterior value
}

// DefaultGuardConfig returns the calibrated thresholds.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		MaxCoverageDelta: 0.30,
		MaxMeanDelta:     0.25,
	}
}

// #endregion guard-config

// #region decision

// Decision is the output of a guard check. The guard never blocks: a warn
// decision is surfaced for diagnostics while the posterior stands as
// computed.
type Decision struct {
	Action   string // "ok" | "warn"
	Reason   string
	Warnings []Warning // non-empty when Action is "warn"
}

// #endregion decision
