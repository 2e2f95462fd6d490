package session

import (
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/estimator"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/guard"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/logging"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/pool"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/sampler"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/store"
)

// #region types

// TurnResult bundles everything one interaction produces: the fresh
// posterior, the guard's verdict on it, the derived phase, and the next item
// to present (nil when the pool is exhausted).
type TurnResult struct {
	Estimates []estimator.CellEstimate
	Guard     guard.Decision
	Coverage  float64
	Phase     sampler.Phase
	Selection *sampler.Selection
}

// Config bundles the per-stage configurations for one session.
type Config struct {
	Estimator estimator.Config
	Sampler   sampler.Config
	Guard     guard.GuardConfig
}

// DefaultSessionConfig returns defaults with the sampler grid mirroring the
// estimator's.
func DefaultSessionConfig() Config {
	estCfg := estimator.DefaultConfig()
	smpCfg := sampler.DefaultConfig()
	smpCfg.GridSize = estCfg.GridSize
	smpCfg.Region = estCfg.Region
	return Config{
		Estimator: estCfg,
		Sampler:   smpCfg,
		Guard:     guard.DefaultGuardConfig(),
	}
}

// #endregion types

// #region session

// Session is the per-learner coordinator: it owns one estimator and threads
// every interaction through persist → observe → predict → guard → select.
// Explicit instances, no shared globals, so independent sessions coexist.
//
// NOT safe for concurrent use; there is exactly one mutator per session.
type Session struct {
	id       string
	cfg      Config
	store    *store.Store
	items    *pool.ItemStore
	est      *estimator.Estimator
	smp      *sampler.Sampler
	grd      *guard.Guard
	sink     logging.Sink
	answered map[string]bool
	pending  sampler.Mode // one-shot manual mode, reverts to auto after use
	lastGrid []estimator.CellEstimate
}

// New creates a session bound to a persisted session row. sink may be nil.
func New(id string, cfg Config, st *store.Store, items *pool.ItemStore, sink logging.Sink) *Session {
	return &Session{
		id:       id,
		cfg:      cfg,
		store:    st,
		items:    items,
		est:      estimator.New(cfg.Estimator, sink),
		smp:      sampler.New(cfg.Sampler),
		grd:      guard.NewGuard(cfg.Guard),
		sink:     sink,
		answered: make(map[string]bool),
		pending:  sampler.ModeAuto,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// AnsweredCount returns how many responses this session has recorded.
func (s *Session) AnsweredCount() int {
	return s.est.ObservationCount()
}

// #endregion session

// #region restore

// Restore rebuilds the session from persisted responses: the estimator's
// observation set, the answered-item set, and implicitly the phase,
// which is always re-derived from (answered count, coverage) rather than
// stored. A restored session lands in the correct phase automatically.
func (s *Session) Restore() error {
	responses, err := s.store.ListResponses(s.id)
	if err != nil {
		return fmt.Errorf("restore session %s: %w", s.id, err)
	}
	index, err := s.items.BuildIndex()
	if err != nil {
		return fmt.Errorf("restore session %s: %w", s.id, err)
	}

	s.est.Restore(responses, 0, index)
	s.answered = make(map[string]bool, len(responses))
	for _, r := range responses {
		s.answered[r.QuestionID] = true
	}
	s.lastGrid = nil
	return nil
}

// #endregion restore

// #region answer

// Answer records a graded response to a question and runs the full turn
// pipeline. The response is persisted before the posterior update so a crash
// between the two replays cleanly.
func (s *Session) Answer(questionID string, correct bool) (*TurnResult, error) {
	outcome := store.OutcomeIncorrect
	if correct {
		outcome = store.OutcomeCorrect
	}
	return s.record(questionID, outcome)
}

// Skip records a proactive skip for a question and runs the turn pipeline.
func (s *Session) Skip(questionID string) (*TurnResult, error) {
	return s.record(questionID, store.OutcomeSkipped)
}

func (s *Session) record(questionID string, outcome store.Outcome) (*TurnResult, error) {
	item, err := s.items.Get(questionID)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", questionID, err)
	}

	_, err = s.store.AppendResponse(store.Response{
		SessionID:  s.id,
		QuestionID: questionID,
		X:          item.X,
		Y:          item.Y,
		Outcome:    outcome,
		Difficulty: item.Difficulty,
	})
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", questionID, err)
	}

	switch outcome {
	case store.OutcomeCorrect:
		s.est.Observe(item.X, item.Y, true, 0, item.Difficulty)
	case store.OutcomeSkipped:
		s.est.ObserveSkip(item.X, item.Y, 0, item.Difficulty)
	default:
		s.est.Observe(item.X, item.Y, false, 0, item.Difficulty)
	}
	s.answered[questionID] = true

	after := s.est.Predict()
	decision := s.grd.Check(s.lastGrid, after)
	if decision.Action == "warn" && s.sink != nil {
		for _, w := range decision.Warnings {
			s.sink.Event(logging.EventGuardWarning, string(w.Type)+": "+w.Reason)
		}
	}
	s.lastGrid = after

	coverage := estimator.Coverage(after)
	phase := s.smp.GetPhase(s.est.ObservationCount(), coverage)

	result := &TurnResult{
		Estimates: after,
		Guard:     decision,
		Coverage:  coverage,
		Phase:     phase,
	}
	result.Selection, err = s.Next(sampler.ModeAuto)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// #endregion answer

// #region next

// SetMode arms a one-shot manual selection mode. The next call to Next with
// ModeAuto consumes it and reverts to adaptive selection.
func (s *Session) SetMode(mode sampler.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown mode %q", mode)
	}
	s.pending = mode
	return nil
}

// Next selects the next item to present. A nil selection means the pool is
// exhausted, a normal terminal condition. Passing a manual mode applies it
// for this call only.
func (s *Session) Next(mode sampler.Mode) (*sampler.Selection, error) {
	if mode == sampler.ModeAuto && s.pending != sampler.ModeAuto {
		mode = s.pending
		s.pending = sampler.ModeAuto
	}

	items, err := s.items.List()
	if err != nil {
		return nil, fmt.Errorf("next: %w", err)
	}
	candidates := make([]sampler.Item, 0, len(items))
	for _, it := range items {
		candidates = append(candidates, sampler.Item{
			QuestionID: it.QuestionID, X: it.X, Y: it.Y, Difficulty: it.Difficulty,
		})
	}

	estimates := s.est.Predict()
	if mode != sampler.ModeAuto {
		return s.smp.SelectByMode(mode, candidates, estimates, nil, s.answered), nil
	}
	coverage := estimator.Coverage(estimates)
	phase := s.smp.GetPhase(s.est.ObservationCount(), coverage)
	return s.smp.SelectNext(candidates, estimates, nil, s.answered, phase), nil
}

// #endregion next

// #region snapshot

// Estimates returns the current posterior grid.
func (s *Session) Estimates() []estimator.CellEstimate {
	return s.est.Predict()
}

// Phase returns the currently derived phase.
func (s *Session) Phase() sampler.Phase {
	estimates := s.est.Predict()
	return s.smp.GetPhase(s.est.ObservationCount(), estimator.Coverage(estimates))
}

// SummaryJSON renders a compact session summary for tooling.
func (s *Session) SummaryJSON() (string, error) {
	estimates := s.est.Predict()
	out := struct {
		SessionID string  `json:"session_id"`
		Answered  int     `json:"answered"`
		Coverage  float64 `json:"coverage"`
		Phase     string  `json:"phase"`
	}{
		SessionID: s.id,
		Answered:  s.est.ObservationCount(),
		Coverage:  estimator.Coverage(estimates),
		Phase:     string(s.smp.GetPhase(s.est.ObservationCount(), estimator.Coverage(estimates))),
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("summary: %w", err)
	}
	return string(data), nil
}

// #endregion snapshot
