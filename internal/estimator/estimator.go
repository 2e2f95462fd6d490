package estimator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/linalg"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/logging"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/pool"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/store"
)

// #region estimator

// Estimator owns the observation set and a fixed-resolution grid over a
// rectangular region, and exposes the GP posterior per grid cell.
//
// NOT safe for concurrent use; the caller must serialize. Every operation is
// synchronous and bounded: one Cholesky factorization plus one grid sweep per
// posterior.
type Estimator struct {
	cfg    Config
	sink   logging.Sink
	obs    []Observation
	cached []CellEstimate // posterior cache, invalidated by any mutation
}

// New creates an estimator with an empty observation set. sink may be nil;
// degradation events are then counted nowhere but never panic.
func New(cfg Config, sink logging.Sink) *Estimator {
	if cfg.GridSize <= 0 {
		cfg.GridSize = DefaultConfig().GridSize
	}
	if cfg.LengthScale <= 0 {
		cfg.LengthScale = DefaultConfig().LengthScale
	}
	if cfg.Variance <= 0 {
		cfg.Variance = DefaultConfig().Variance
	}
	if cfg.Region.Width() <= 0 || cfg.Region.Height() <= 0 {
		cfg.Region = DefaultRegion()
	}
	if cfg.Solve.MaxAttempts <= 0 {
		cfg.Solve = linalg.DefaultSolveConfig()
	}
	if cfg.UnknownUncertainty <= 0 {
		cfg.UnknownUncertainty = DefaultConfig().UnknownUncertainty
	}
	if cfg.UncertainUncertainty <= 0 {
		cfg.UncertainUncertainty = DefaultConfig().UncertainUncertainty
	}
	if cfg.EvidenceRadius <= 0 {
		cfg.EvidenceRadius = DefaultConfig().EvidenceRadius
	}
	return &Estimator{cfg: cfg, sink: sink}
}

// Config returns the active configuration.
func (e *Estimator) Config() Config {
	return e.cfg
}

// Reset clears the observation set and any cached posterior.
func (e *Estimator) Reset() {
	e.obs = nil
	e.cached = nil
}

// ObservationCount returns the number of recorded observations.
func (e *Estimator) ObservationCount() int {
	return len(e.obs)
}

// Observations returns a copy of the observation list. The live list is
// never exposed for external mutation.
func (e *Estimator) Observations() []Observation {
	out := make([]Observation, len(e.obs))
	copy(out, e.obs)
	return out
}

func (e *Estimator) event(t logging.EventType, reason string) {
	if e.sink != nil {
		e.sink.Event(t, reason)
	}
}

// #endregion estimator

// #region observe

// Observe records one graded answer. The evidence weight is resolved from the
// outcome class and difficulty level; pass lengthScale <= 0 for the configured
// default. Invalidates the cached posterior.
func (e *Estimator) Observe(x, y float64, correct bool, lengthScale float64, difficulty int) {
	value := valueIncorrect
	if correct {
		value = valueCorrect
	}
	e.append(x, y, value, correct, lengthScale, difficulty)
}

// ObserveSkip records a proactive "I don't know". It uses the incorrect
// weight table and the same length scale as a wrong answer, with no reduction,
// so a skip carries at least as much spatial reach as a guess.
func (e *Estimator) ObserveSkip(x, y, lengthScale float64, difficulty int) {
	e.append(x, y, valueSkipped, false, lengthScale, difficulty)
}

func (e *Estimator) append(x, y, value float64, correct bool, lengthScale float64, difficulty int) {
	x, y = e.clampCoords(x, y)
	difficulty = e.clampDifficulty(difficulty)
	if lengthScale <= 0 || !linalg.IsFinite(lengthScale) {
		lengthScale = e.cfg.LengthScale
	}

	e.obs = append(e.obs, Observation{
		X:           x,
		Y:           y,
		Value:       value,
		LengthScale: lengthScale,
		Weight:      weightFor(correct, difficulty),
		Difficulty:  difficulty,
	})
	e.cached = nil
}

// weightFor resolves evidence strength from outcome class and difficulty.
// The two tables are deliberate inverses of each other.
func weightFor(correct bool, difficulty int) float64 {
	if correct {
		return correctWeights[difficulty]
	}
	return incorrectWeights[difficulty]
}

func (e *Estimator) clampDifficulty(d int) int {
	if d < 1 || d > 4 {
		e.event(logging.EventInputClamped, fmt.Sprintf("difficulty %d -> %d", d, defaultDifficulty))
		return defaultDifficulty
	}
	return d
}

func (e *Estimator) clampCoords(x, y float64) (float64, float64) {
	r := e.cfg.Region
	cx, cy := x, y
	if !linalg.IsFinite(cx) {
		cx = r.X0 + r.Width()/2
	}
	if !linalg.IsFinite(cy) {
		cy = r.Y0 + r.Height()/2
	}
	cx = math.Min(math.Max(cx, r.X0), r.X1)
	cy = math.Min(math.Max(cy, r.Y0), r.Y1)
	if cx != x || cy != y {
		e.event(logging.EventInputClamped, fmt.Sprintf("coords (%v, %v) -> (%v, %v)", x, y, cx, cy))
	}
	return cx, cy
}

// #endregion observe

// #region restore

// Restore rebuilds the observation list wholesale from persisted responses,
// resolving each response's difficulty via the item index and reapplying the
// same weight and length-scale rules as Observe/ObserveSkip. Idempotent, and
// its final posterior depends only on the multiset of responses.
func (e *Estimator) Restore(responses []store.Response, defaultLengthScale float64, index pool.Index) {
	if defaultLengthScale <= 0 {
		defaultLengthScale = e.cfg.LengthScale
	}
	e.Reset()
	for _, r := range responses {
		difficulty := defaultDifficulty
		if item, ok := index[r.QuestionID]; ok {
			difficulty = item.Difficulty
		}
		switch r.Outcome {
		case store.OutcomeCorrect:
			e.Observe(r.X, r.Y, true, defaultLengthScale, difficulty)
		case store.OutcomeSkipped:
			e.ObserveSkip(r.X, r.Y, defaultLengthScale, difficulty)
		default:
			e.Observe(r.X, r.Y, false, defaultLengthScale, difficulty)
		}
	}
}

// #endregion restore

// #region predict

// Predict computes the posterior for every grid cell. The result is a fresh
// slice owned by the caller; the estimator retains only an internal cache,
// invalidated by the next mutation.
//
// A degraded solve (near-singular Gram matrix after all jitter retries) falls
// back to the prior-mean grid and is reported through the diagnostics sink,
// never to the caller.
func (e *Estimator) Predict() []CellEstimate {
	if e.cached == nil {
		e.cached = e.computePosterior()
	}
	out := make([]CellEstimate, len(e.cached))
	copy(out, e.cached)
	return out
}

// PredictCell returns the posterior for a single cell. Out-of-range indices
// clamp to the grid edge.
func (e *Estimator) PredictCell(gx, gy int) CellEstimate {
	n := e.cfg.GridSize
	gx = clampInt(gx, 0, n-1)
	gy = clampInt(gy, 0, n-1)
	if e.cached == nil {
		e.cached = e.computePosterior()
	}
	return e.cached[gy*n+gx]
}

func (e *Estimator) computePosterior() []CellEstimate {
	n := len(e.obs)
	if n == 0 {
		return e.priorGrid()
	}

	// Weighted Gram matrix: K[i][j] = k(d_ij) · √(w_i·w_j), with the kernel
	// evaluated at the mean of the two observations' length scales.
	gram := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		oi := e.obs[i]
		for j := i; j < n; j++ {
			oj := e.obs[j]
			d := linalg.Dist(oi.X, oi.Y, oj.X, oj.Y)
			ell := (oi.LengthScale + oj.LengthScale) / 2
			k := linalg.Matern32(d, ell, e.cfg.Variance)
			gram.SetSym(i, j, k*math.Sqrt(oi.Weight*oj.Weight))
		}
	}

	// Weighted residuals against the prior mean.
	residual := make([]float64, n)
	for i, o := range e.obs {
		residual[i] = o.Weight * (o.Value - e.cfg.PriorMean)
	}

	res := linalg.SolveSPD(gram, residual, e.cfg.Solve)
	if res.Degraded {
		e.event(logging.EventSolverDegraded, fmt.Sprintf("n=%d: %s", n, res.Reason))
		return e.priorGrid()
	}

	return e.sweep(res)
}

// sweep evaluates the posterior at every cell center from the solved weights.
func (e *Estimator) sweep(res linalg.SolveResult) []CellEstimate {
	n := len(e.obs)
	gridN := e.cfg.GridSize
	out := make([]CellEstimate, 0, gridN*gridN)
	kstar := make([]float64, n)

	for gy := 0; gy < gridN; gy++ {
		for gx := 0; gx < gridN; gx++ {
			cx, cy := e.cellCenter(gx, gy)

			evidence := 0
			for i, o := range e.obs {
				d := linalg.Dist(cx, cy, o.X, o.Y)
				kstar[i] = math.Sqrt(o.Weight) * linalg.Matern32(d, o.LengthScale, e.cfg.Variance)
				if d <= e.cfg.EvidenceRadius*o.LengthScale {
					evidence++
				}
			}

			mean := e.cfg.PriorMean + floats.Dot(kstar, res.X)
			variance := e.cfg.Variance - linalg.QuadForm(res.Chol, kstar)
			variance = math.Min(math.Max(variance, 0), e.cfg.Variance)

			cell := CellEstimate{
				GX: gx, GY: gy,
				X: cx, Y: cy,
				Value:         clamp01(mean),
				Uncertainty:   clamp01(variance / e.cfg.Variance),
				EvidenceCount: evidence,
			}
			cell.State = e.cellState(cell)
			if cell.State == StateUnknown {
				// No distinguishing evidence: an unknown cell always reports
				// the prior mean.
				cell.Value = e.cfg.PriorMean
			}
			cell.DifficultyLevel = DifficultyLevel(cell.Value)
			out = append(out, cell)
		}
	}
	return out
}

// priorGrid is the no-evidence posterior: prior mean everywhere, full
// uncertainty.
func (e *Estimator) priorGrid() []CellEstimate {
	gridN := e.cfg.GridSize
	out := make([]CellEstimate, 0, gridN*gridN)
	for gy := 0; gy < gridN; gy++ {
		for gx := 0; gx < gridN; gx++ {
			cx, cy := e.cellCenter(gx, gy)
			evidence := 0
			for _, o := range e.obs {
				if linalg.Dist(cx, cy, o.X, o.Y) <= e.cfg.EvidenceRadius*o.LengthScale {
					evidence++
				}
			}
			cell := CellEstimate{
				GX: gx, GY: gy,
				X: cx, Y: cy,
				Value:         e.cfg.PriorMean,
				Uncertainty:   1,
				EvidenceCount: evidence,
			}
			cell.State = e.cellState(cell)
			cell.DifficultyLevel = DifficultyLevel(cell.Value)
			out = append(out, cell)
		}
	}
	return out
}

func (e *Estimator) cellCenter(gx, gy int) (float64, float64) {
	r := e.cfg.Region
	gridN := float64(e.cfg.GridSize)
	cx := r.X0 + (float64(gx)+0.5)*r.Width()/gridN
	cy := r.Y0 + (float64(gy)+0.5)*r.Height()/gridN
	return cx, cy
}

func (e *Estimator) cellState(c CellEstimate) CellState {
	switch {
	case c.Uncertainty >= e.cfg.UnknownUncertainty && c.EvidenceCount == 0:
		return StateUnknown
	case c.Uncertainty >= e.cfg.UncertainUncertainty:
		return StateUncertain
	default:
		return StateEstimated
	}
}

// #endregion predict

// #region derived

// DifficultyLevel rescales a posterior value into a discrete IRT level 0-4
// by counting the fixed thresholds the value meets or exceeds. A pure
// reinterpretation of the posterior, never a separate model.
func DifficultyLevel(value float64) int {
	level := 0
	for _, t := range irtThresholds {
		if value >= t {
			level++
		}
	}
	return level
}

// Coverage returns the fraction of cells whose uncertainty has dropped below
// the uncertain threshold: how much of the domain has been mapped.
func Coverage(estimates []CellEstimate) float64 {
	if len(estimates) == 0 {
		return 0
	}
	covered := 0
	for _, c := range estimates {
		if c.Uncertainty < 0.5 {
			covered++
		}
	}
	return float64(covered) / float64(len(estimates))
}

// #endregion derived

// #region helpers

func clamp01(v float64) float64 {
	if !linalg.IsFinite(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}

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
