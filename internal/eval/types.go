package eval

// #region eval-config
// EvalConfig holds thresholds for posterior validation.
type EvalConfig struct {
	PriorMean        float64 // value every unknown cell must report
	GradientFloor    float64 // min stddev of cell values once well observed
	GradientMinObs   int     // observation count from which the floor applies
}

// DefaultEvalConfig returns the calibrated defaults.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		PriorMean:      0.5,
		GradientFloor:  0.05,
		GradientMinObs: 100,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of posterior validation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
