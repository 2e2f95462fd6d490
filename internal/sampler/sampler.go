package sampler

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/estimator"
)

// #region sampler

// Sampler scores candidate items against the estimator's posterior grid and
// picks the next item to present. Stateless between calls apart from its
// configuration; the grid mirrors the estimator's for viewport-restricted
// scoring.
type Sampler struct {
	cfg Config
}

// New creates a sampler. Zero grid or region fall back to the defaults so
// the sampler always mirrors a valid estimator grid.
func New(cfg Config) *Sampler {
	def := DefaultConfig()
	if cfg.GridSize <= 0 {
		cfg.GridSize = def.GridSize
	}
	if cfg.Region.Width() <= 0 || cfg.Region.Height() <= 0 {
		cfg.Region = def.Region
	}
	if cfg.Slope == 0 {
		cfg.Slope = def.Slope
	}
	if cfg.AbilityLo == 0 && cfg.AbilityHi == 0 {
		cfg.AbilityLo, cfg.AbilityHi = def.AbilityLo, def.AbilityHi
	}
	if cfg.LevelThresholds == [4]float64{} {
		cfg.LevelThresholds = def.LevelThresholds
	}
	if cfg.ZPDTarget == 0 {
		cfg.ZPDTarget = def.ZPDTarget
	}
	if cfg.SolvableFloor == 0 {
		cfg.SolvableFloor = def.SolvableFloor
	}
	if cfg.CalibrateCount == 0 {
		cfg.CalibrateCount = def.CalibrateCount
	}
	if cfg.MapCount == 0 {
		cfg.MapCount = def.MapCount
	}
	if cfg.CoverageFloor == 0 {
		cfg.CoverageFloor = def.CoverageFloor
	}
	if cfg.CalibrateBandBoost == 0 {
		cfg.CalibrateBandBoost = def.CalibrateBandBoost
	}
	if cfg.CalibrateOffBand == 0 {
		cfg.CalibrateOffBand = def.CalibrateOffBand
	}
	return &Sampler{cfg: cfg}
}

// Config returns the active configuration.
func (s *Sampler) Config() Config {
	return s.cfg
}

// #endregion sampler

// #region irt

// PSuccess is the 2-parameter logistic IRT model: the probability that a
// learner whose local posterior value maps to ability θ answers an item of
// the given difficulty correctly.
func (s *Sampler) PSuccess(value float64, difficulty int) float64 {
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > 4 {
		difficulty = 4
	}
	theta := s.cfg.AbilityLo + value*(s.cfg.AbilityHi-s.cfg.AbilityLo)
	b := s.cfg.LevelThresholds[difficulty-1]
	return sigmoid(s.cfg.Slope * (theta - b))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// #endregion irt

// #region score-all

// ScoreAll computes the BALD-style expected information gain for every
// eligible item:
//
//	EIG = a² · P(1−P) · σ²
//
// combining outcome uncertainty (maximized at the difficulty boundary) with
// spatial posterior uncertainty. Two items with identical spatial uncertainty
// but different difficulty receive different scores. Items in excluded, or
// outside the viewport when one is given, are omitted. Scores are never
// negative.
func (s *Sampler) ScoreAll(items []Item, estimates []estimator.CellEstimate, viewport *estimator.Region, excluded map[string]bool) []Score {
	out := make([]Score, 0, len(items))
	for _, item := range items {
		if excluded[item.QuestionID] {
			continue
		}
		if viewport != nil && !viewport.Contains(item.X, item.Y) {
			continue
		}
		cell, ok := s.cellFor(estimates, item.X, item.Y)
		if !ok {
			continue
		}
		out = append(out, Score{QuestionID: item.QuestionID, Score: s.eig(cell, item.Difficulty)})
	}
	return out
}

func (s *Sampler) eig(cell estimator.CellEstimate, difficulty int) float64 {
	p := s.PSuccess(cell.Value, difficulty)
	score := s.cfg.Slope * s.cfg.Slope * p * (1 - p) * cell.Uncertainty
	if score < 0 || math.IsNaN(score) {
		return 0
	}
	return score
}

// cellFor maps an item location onto the mirrored grid.
func (s *Sampler) cellFor(estimates []estimator.CellEstimate, x, y float64) (estimator.CellEstimate, bool) {
	n := s.cfg.GridSize
	if len(estimates) != n*n {
		return estimator.CellEstimate{}, false
	}
	r := s.cfg.Region
	gx := clampInt(int((x-r.X0)/r.Width()*float64(n)), 0, n-1)
	gy := clampInt(int((y-r.Y0)/r.Height()*float64(n)), 0, n-1)
	return estimates[gy*n+gx], true
}

// #endregion score-all

// #region phase

// GetPhase derives the selection phase from answered count and coverage. A
// pure function: the learn→map fallback is re-evaluated on every call with no
// hysteresis, so a coverage drop (say after jumping to an unexplored region)
// reverts to mapping automatically.
func (s *Sampler) GetPhase(answered int, coverage float64) Phase {
	switch {
	case answered < s.cfg.CalibrateCount:
		return PhaseCalibrate
	case answered < s.cfg.MapCount || coverage < s.cfg.CoverageFloor:
		return PhaseMap
	default:
		return PhaseLearn
	}
}

// #endregion phase

// #region select-next

// SelectNext scores all eligible items, re-weights by the active phase, and
// returns the highest-scoring item. Returns nil when no item is eligible,
// a normal terminal condition, not an error.
func (s *Sampler) SelectNext(items []Item, estimates []estimator.CellEstimate, viewport *estimator.Region, excluded map[string]bool, phase Phase) *Selection {
	var best *Selection
	for _, item := range items {
		if excluded[item.QuestionID] {
			continue
		}
		if viewport != nil && !viewport.Contains(item.X, item.Y) {
			continue
		}
		cell, ok := s.cellFor(estimates, item.X, item.Y)
		if !ok {
			continue
		}

		eig := s.eig(cell, item.Difficulty)
		var score float64
		switch phase {
		case PhaseCalibrate:
			// Establish a baseline ability estimate before spatial mapping
			// matters: mid-band difficulties dominate regardless of location.
			boost := s.cfg.CalibrateOffBand
			if item.Difficulty == 2 || item.Difficulty == 3 {
				boost = s.cfg.CalibrateBandBoost
			}
			score = eig * boost
		case PhaseLearn:
			// Zone of proximal development: prefer items whose success
			// probability sits near the target, with EIG as a soft tie-break.
			p := s.PSuccess(cell.Value, item.Difficulty)
			closeness := 1 - math.Abs(p-s.cfg.ZPDTarget)
			if closeness < 0 {
				closeness = 0
			}
			score = closeness * (0.1 + eig)
		default:
			score = eig
		}

		if best == nil || score > best.Score {
			best = &Selection{
				QuestionID: item.QuestionID,
				Score:      score,
				Phase:      phase,
				Reason:     fmt.Sprintf("%s: eig %.4f", phase, eig),
			}
		}
	}
	return best
}

// #endregion select-next

// #region select-by-mode

// SelectByMode applies a non-adaptive manual override, bypassing phase logic
// entirely. ModeAuto is not handled here; callers route it through
// SelectNext. Returns nil on an empty eligible pool.
func (s *Sampler) SelectByMode(mode Mode, items []Item, estimates []estimator.CellEstimate, viewport *estimator.Region, excluded map[string]bool) *Selection {
	var best *Selection
	var bestKey float64
	bestDifficulty := 0

	// Fallback for ModeHardest when no item clears the solvable floor: the
	// most approachable item among the hardest difficulty present.
	var fallback *Selection
	var fallbackKey float64
	fallbackDifficulty := 0

	for _, item := range items {
		if excluded[item.QuestionID] {
			continue
		}
		if viewport != nil && !viewport.Contains(item.X, item.Y) {
			continue
		}
		cell, ok := s.cellFor(estimates, item.X, item.Y)
		if !ok {
			continue
		}
		p := s.PSuccess(cell.Value, item.Difficulty)

		switch mode {
		case ModeEasiest:
			if best == nil || p > bestKey {
				best = &Selection{QuestionID: item.QuestionID, Score: p, Reason: fmt.Sprintf("easiest: p %.3f", p)}
				bestKey = p
			}
		case ModeHardest:
			if p < s.cfg.SolvableFloor {
				if fallback == nil || item.Difficulty > fallbackDifficulty || (item.Difficulty == fallbackDifficulty && p > fallbackKey) {
					fallback = &Selection{QuestionID: item.QuestionID, Score: p, Reason: fmt.Sprintf("hardest below floor: difficulty %d, p %.3f", item.Difficulty, p)}
					fallbackKey = p
					fallbackDifficulty = item.Difficulty
				}
				continue
			}
			if best == nil || item.Difficulty > bestDifficulty || (item.Difficulty == bestDifficulty && p > bestKey) {
				best = &Selection{QuestionID: item.QuestionID, Score: p, Reason: fmt.Sprintf("hardest solvable: difficulty %d, p %.3f", item.Difficulty, p)}
				bestKey = p
				bestDifficulty = item.Difficulty
			}
		case ModeWeakest:
			if best == nil || cell.Value < bestKey {
				best = &Selection{QuestionID: item.QuestionID, Score: 1 - cell.Value, Reason: fmt.Sprintf("weakest knowledge: value %.3f", cell.Value)}
				bestKey = cell.Value
			}
		default:
			return nil
		}
	}
	if best == nil {
		return fallback
	}
	return best
}

// #endregion select-by-mode

// #region helpers

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion helpers
