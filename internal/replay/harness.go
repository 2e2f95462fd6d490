package replay

import (
	"math"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/estimator"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/eval"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/guard"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/logging"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/pool"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/sampler"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/store"
)

// #region types

// TurnResult captures the outcome of replaying one response.
type TurnResult struct {
	QuestionID string
	Outcome    string
	Guard      guard.Decision
	Coverage   float64
	Phase      sampler.Phase
}

// ReplayResult is the aggregate of a full replay run, replaying the
// responses one by one and cross-checking against a wholesale restore.
type ReplayResult struct {
	Turns []TurnResult

	// MaxRoundTripDelta is the largest per-cell posterior difference between
	// the incremental replay and a single Restore of the whole batch. The
	// two paths must agree.
	MaxRoundTripDelta float64

	FinalEval     eval.EvalResult
	FinalCoverage float64
	FinalPhase    sampler.Phase
	GuardWarnings int
	SolverEvents  int
}

// #endregion types

// #region replay

// Replay runs a fixture's responses through the estimation pipeline per turn
// (observe → predict → guard), then verifies that a wholesale Restore of the
// same batch lands on the same posterior. Operates entirely in-memory.
func Replay(f *Fixture) ReplayResult {
	cfg := estimator.DefaultConfig()
	cfg.GridSize = f.Config.GridSize
	cfg.Region = f.Config.Region()
	cfg.LengthScale = f.Config.LengthScale

	sink := logging.NewCounters()
	sink.Quiet = true
	est := estimator.New(cfg, sink)

	smpCfg := sampler.DefaultConfig()
	smpCfg.GridSize = cfg.GridSize
	smpCfg.Region = cfg.Region
	smp := sampler.New(smpCfg)

	grd := guard.NewGuard(guard.DefaultGuardConfig())

	index := make(pool.Index, len(f.Items))
	for _, it := range f.Items {
		index[it.QuestionID] = pool.Item{QuestionID: it.QuestionID, X: it.X, Y: it.Y, Difficulty: it.Difficulty}
	}
	// Responses may predate the item list; fold their recorded difficulty
	// into the index so the incremental and restore paths resolve alike.
	for _, r := range f.Responses {
		if _, ok := index[r.QuestionID]; !ok && r.Difficulty != 0 {
			index[r.QuestionID] = pool.Item{QuestionID: r.QuestionID, X: r.X, Y: r.Y, Difficulty: r.Difficulty}
		}
	}

	result := ReplayResult{}
	var before []estimator.CellEstimate
	answered := 0

	for _, r := range f.Responses {
		difficulty := 3
		if item, ok := index[r.QuestionID]; ok {
			difficulty = item.Difficulty
		}
		switch store.Outcome(r.Outcome) {
		case store.OutcomeCorrect:
			est.Observe(r.X, r.Y, true, 0, difficulty)
		case store.OutcomeSkipped:
			est.ObserveSkip(r.X, r.Y, 0, difficulty)
		default:
			est.Observe(r.X, r.Y, false, 0, difficulty)
		}
		answered++

		after := est.Predict()
		decision := grd.Check(before, after)
		if decision.Action == "warn" {
			result.GuardWarnings += len(decision.Warnings)
		}
		coverage := estimator.Coverage(after)

		result.Turns = append(result.Turns, TurnResult{
			QuestionID: r.QuestionID,
			Outcome:    r.Outcome,
			Guard:      decision,
			Coverage:   coverage,
			Phase:      smp.GetPhase(answered, coverage),
		})
		before = after
	}

	final := est.Predict()

	// Round-trip check: a wholesale restore of the same responses must land
	// on the same posterior as the incremental replay.
	restored := estimator.New(cfg, nil)
	restored.Restore(toResponses(f.Responses), 0, index)
	restoredGrid := restored.Predict()
	for i := range final {
		d := math.Abs(final[i].Value - restoredGrid[i].Value)
		if d > result.MaxRoundTripDelta {
			result.MaxRoundTripDelta = d
		}
		d = math.Abs(final[i].Uncertainty - restoredGrid[i].Uncertainty)
		if d > result.MaxRoundTripDelta {
			result.MaxRoundTripDelta = d
		}
	}

	harness := eval.NewEvalHarness(eval.DefaultEvalConfig())
	result.FinalEval = harness.Run(final, est.ObservationCount())
	result.FinalCoverage = estimator.Coverage(final)
	result.FinalPhase = smp.GetPhase(answered, result.FinalCoverage)
	result.SolverEvents = sink.Count(logging.EventSolverDegraded)
	return result
}

// toResponses converts fixture responses into the store's raw shape. The
// difficulty travels separately through the item index, mirroring a cold
// start from persistence.
func toResponses(rs []FixtureResponse) []store.Response {
	out := make([]store.Response, 0, len(rs))
	for _, r := range rs {
		out = append(out, store.Response{
			QuestionID: r.QuestionID,
			X:          r.X,
			Y:          r.Y,
			Outcome:    store.Outcome(r.Outcome),
		})
	}
	return out
}

// #endregion replay

// #region verify

// Verify checks a replay result against a fixture's expectations. Returns a
// list of human-readable failures, empty on success.
func Verify(f *Fixture, res ReplayResult) []string {
	var failures []string
	if res.MaxRoundTripDelta > 1e-9 {
		failures = append(failures, "restore/replay round-trip diverged")
	}
	if !res.FinalEval.Passed {
		failures = append(failures, "final posterior failed eval: "+res.FinalEval.Reason)
	}
	if f.Expected == nil {
		return failures
	}
	if f.Expected.MinCoverage != nil && res.FinalCoverage < *f.Expected.MinCoverage {
		failures = append(failures, "final coverage under expectation")
	}
	if f.Expected.FinalPhase != "" && string(res.FinalPhase) != f.Expected.FinalPhase {
		failures = append(failures, "final phase mismatch: "+string(res.FinalPhase))
	}
	if f.Expected.MaxGuardWarns != nil && res.GuardWarnings > *f.Expected.MaxGuardWarns {
		failures = append(failures, "too many guard warnings")
	}
	return failures
}

// #endregion verify
