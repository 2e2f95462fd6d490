package sampler

import "github.com/danielpatrickdp/mastery-map/go-core/internal/estimator"

// #region item

// Item is one candidate question supplied externally per call. The sampler
// never caches or owns the pool.
type Item struct {
	QuestionID string
	X          float64
	Y          float64
	Difficulty int // 1-4
}

// #endregion item

// #region phase

// Phase is the adaptive selection policy stage. It is derived on every call
// from (answered count, coverage), never persisted, so a restored session
// reconstructs its phase automatically.
type Phase string

const (
	PhaseCalibrate Phase = "calibrate" // establish baseline ability first
	PhaseMap       Phase = "map"       // maximize spatial information gain
	PhaseLearn     Phase = "learn"     // target the zone of proximal development
)

// #endregion phase

// #region mode

// Mode selects the item-selection policy. The manual modes are one-shot
// overrides: the caller reverts to ModeAuto after a single use.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeEasiest Mode = "easiest"  // easiest item the learner can answer
	ModeHardest Mode = "hardest"  // hardest item still considered solvable
	ModeWeakest Mode = "weakest"  // item where posterior knowledge is lowest
)

// Valid reports whether m names a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeAuto, ModeEasiest, ModeHardest, ModeWeakest:
		return true
	}
	return false
}

// #endregion mode

// #region score

// Score is one item's expected-information-gain score. Never negative.
type Score struct {
	QuestionID string
	Score      float64
}

// Selection is the sampler's decision for one call.
type Selection struct {
	QuestionID string
	Score      float64
	Phase      Phase  // phase active at selection time (empty for manual modes)
	Reason     string
}

// #endregion score

// #region config

// Config holds the IRT and policy constants. The slope and level thresholds
// are empirically calibrated and load-bearing for the acquisition ranking;
// do not retune them casually.
type Config struct {
	GridSize int
	Region   estimator.Region

	Slope           float64    // 2PL discrimination a
	AbilityLo       float64    // posterior value 0 maps here
	AbilityHi       float64    // posterior value 1 maps here
	LevelThresholds [4]float64 // per-difficulty ability thresholds b₁..b₄

	ZPDTarget     float64 // learn phase: preferred success probability
	SolvableFloor float64 // hardest mode: minimum P to count as solvable

	CalibrateCount int     // answered count below which we calibrate
	MapCount       int     // answered count below which we map
	CoverageFloor  float64 // coverage below which mapping resumes

	CalibrateBandBoost float64 // calibrate: multiplier for difficulty 2-3
	CalibrateOffBand   float64 // calibrate: multiplier outside the band
}

// DefaultConfig returns the calibrated policy constants.
func DefaultConfig() Config {
	return Config{
		GridSize:           50,
		Region:             estimator.DefaultRegion(),
		Slope:              1.5,
		AbilityLo:          -2,
		AbilityHi:          2,
		LevelThresholds:    [4]float64{-1.5, -0.5, 0.5, 1.5},
		ZPDTarget:          0.6,
		SolvableFloor:      0.5,
		CalibrateCount:     10,
		MapCount:           30,
		CoverageFloor:      0.15,
		CalibrateBandBoost: 1.0,
		CalibrateOffBand:   0.2,
	}
}

// #endregion config
