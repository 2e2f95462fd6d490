package estimator

import "github.com/danielpatrickdp/mastery-map/go-core/internal/linalg"

// #region region

// Region is the rectangular extent of the knowledge embedding.
type Region struct {
	X0, Y0 float64
	X1, Y1 float64
}

// DefaultRegion returns the unit square.
func DefaultRegion() Region {
	return Region{X0: 0, Y0: 0, X1: 1, Y1: 1}
}

// Contains reports whether (x, y) falls inside the region (inclusive).
func (r Region) Contains(x, y float64) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// Width returns the horizontal extent.
func (r Region) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent.
func (r Region) Height() float64 { return r.Y1 - r.Y0 }

// #endregion region

// #region observation

// Observation is one evidentiary data point. Immutable once created: the
// estimator appends on observe, rebuilds wholesale on restore, and never
// mutates in place.
type Observation struct {
	X           float64
	Y           float64
	Value       float64 // 0.0 incorrect, 0.05 skipped, 1.0 correct
	LengthScale float64
	Weight      float64 // derived from difficulty and outcome, never caller-supplied
	Difficulty  int
}

// #endregion observation

// #region cell-state

// CellState is the coarse evidence bucket for one grid cell.
type CellState string

const (
	StateUnknown   CellState = "unknown"
	StateUncertain CellState = "uncertain"
	StateEstimated CellState = "estimated"
)

// #endregion cell-state

// #region cell-estimate

// CellEstimate is the posterior for one grid cell. Regenerated in full by
// every Predict call and owned by the caller.
type CellEstimate struct {
	GX, GY          int
	X, Y            float64 // cell center
	Value           float64 // posterior mean knowledge, [0,1]
	Uncertainty     float64 // posterior spread, [0,1]; 1.0 = pure prior
	EvidenceCount   int
	State           CellState
	DifficultyLevel int // IRT rescaling of Value, 0-4
}

// #endregion cell-estimate

// #region config

// Config holds the estimator's grid, kernel, and bucketing parameters.
type Config struct {
	GridSize    int
	Region      Region
	LengthScale float64 // default kernel footprint for observations
	PriorMean   float64
	Variance    float64 // kernel variance σ², the prior variance per cell

	Solve linalg.SolveConfig

	UnknownUncertainty   float64 // state bucket: unknown at or above this with zero evidence
	UncertainUncertainty float64 // state bucket: uncertain at or above this
	EvidenceRadius       float64 // evidence counting radius, in length scales
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		GridSize:             50,
		Region:               DefaultRegion(),
		LengthScale:          0.18,
		PriorMean:            0.5,
		Variance:             1.0,
		Solve:                linalg.DefaultSolveConfig(),
		UnknownUncertainty:   0.85,
		UncertainUncertainty: 0.5,
		EvidenceRadius:       1.5,
	}
}

// #endregion config

// #region constants

// Observation values per outcome class. Skip sits slightly above wrong so
// diagnostics can tell a proactive "I don't know" from a confident miss.
const (
	valueCorrect   = 1.0
	valueIncorrect = 0.0
	valueSkipped   = 0.05
)

// defaultDifficulty is substituted for out-of-range difficulty levels when
// reconstructing from stale persisted data.
const defaultDifficulty = 3

// irtThresholds are the four fixed cut points that rescale a posterior value
// into a discrete difficulty level 0-4. Load-bearing for selection ranking.
var irtThresholds = [4]float64{0.125, 0.375, 0.625, 0.875}

// correctWeights maps difficulty 1-4 to evidence weight for correct answers:
// harder correct answers count more.
var correctWeights = [5]float64{0, 0.25, 0.50, 0.75, 1.00}

// incorrectWeights is the inverse table, shared by wrong answers and skips:
// an expert question missed is expected, an easy one missed is damning.
var incorrectWeights = [5]float64{0, 1.00, 0.75, 0.50, 0.25}

// #endregion constants
