package session

import (
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/logging"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/pool"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/sampler"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/store"
)

func testSessionConfig() Config {
	cfg := DefaultSessionConfig()
	cfg.Estimator.GridSize = 20
	cfg.Sampler.GridSize = 20
	return cfg
}

func newTestSession(t *testing.T) (*Session, *store.Store, *pool.ItemStore) {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	items, err := pool.NewItemStore(st.DB())
	if err != nil {
		t.Fatalf("item store: %v", err)
	}
	seed := []pool.Item{
		{QuestionID: "q1", X: 0.2, Y: 0.2, Difficulty: 1},
		{QuestionID: "q2", X: 0.4, Y: 0.6, Difficulty: 2},
		{QuestionID: "q3", X: 0.6, Y: 0.4, Difficulty: 3},
		{QuestionID: "q4", X: 0.8, Y: 0.8, Difficulty: 4},
	}
	for _, it := range seed {
		if err := items.Upsert(it); err != nil {
			t.Fatalf("seed item: %v", err)
		}
	}

	row, err := st.CreateSession()
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	sink := logging.NewCounters()
	sink.Quiet = true
	return New(row.SessionID, testSessionConfig(), st, items, sink), st, items
}

func TestAnswerRunsFullTurn(t *testing.T) {
	s, st, _ := newTestSession(t)

	res, err := s.Answer("q2", true)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(res.Estimates) != 20*20 {
		t.Fatalf("expected full grid, got %d cells", len(res.Estimates))
	}
	if res.Phase != sampler.PhaseCalibrate {
		t.Fatalf("first answer should leave us calibrating, got %s", res.Phase)
	}
	if res.Selection == nil {
		t.Fatal("expected a next selection with unanswered items left")
	}
	if res.Selection.QuestionID == "q2" {
		t.Fatal("answered question must not be selected again")
	}

	// The response must be persisted.
	n, err := st.CountResponses(s.ID())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 persisted response, got %d", n)
	}
}

func TestAnswerUnknownQuestion(t *testing.T) {
	s, _, _ := newTestSession(t)
	if _, err := s.Answer("ghost", true); err == nil {
		t.Fatal("expected error for unknown question")
	}
}

func TestPoolExhaustionIsTerminal(t *testing.T) {
	s, _, _ := newTestSession(t)
	for _, q := range []string{"q1", "q2", "q3", "q4"} {
		if _, err := s.Answer(q, true); err != nil {
			t.Fatalf("answer %s: %v", q, err)
		}
	}
	sel, err := s.Next(sampler.ModeAuto)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if sel != nil {
		t.Fatalf("exhausted pool must select nil, got %+v", sel)
	}
}

func TestManualModeIsOneShot(t *testing.T) {
	s, _, _ := newTestSession(t)
	if _, err := s.Answer("q2", true); err != nil {
		t.Fatalf("answer: %v", err)
	}

	if err := s.SetMode(sampler.ModeWeakest); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	first, err := s.Next(sampler.ModeAuto)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if first == nil {
		t.Fatal("expected a manual selection")
	}
	if first.Reason == "" {
		t.Fatal("manual selection must carry its reason")
	}

	// The override is consumed: the next call is adaptive again.
	second, err := s.Next(sampler.ModeAuto)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if second == nil || second.Phase == "" {
		t.Fatalf("expected adaptive selection with a phase, got %+v", second)
	}

	if err := s.SetMode(sampler.Mode("bogus")); err == nil {
		t.Fatal("unknown mode must be rejected")
	}
}

func TestSkipPullsPosteriorDown(t *testing.T) {
	s, _, _ := newTestSession(t)
	res, err := s.Skip("q3")
	if err != nil {
		t.Fatalf("skip: %v", err)
	}

	// Locate the cell containing q3.
	cfg := testSessionConfig().Estimator
	gx := int(0.6 * float64(cfg.GridSize))
	gy := int(0.4 * float64(cfg.GridSize))
	cell := res.Estimates[gy*cfg.GridSize+gx]
	if cell.Value >= 0.5 {
		t.Fatalf("skip should pull posterior below prior, got %f", cell.Value)
	}
}

func TestRestoreReconstructsSession(t *testing.T) {
	s, st, items := newTestSession(t)
	for _, q := range []string{"q1", "q2", "q3"} {
		if _, err := s.Answer(q, q != "q2"); err != nil {
			t.Fatalf("answer %s: %v", q, err)
		}
	}
	want := s.Estimates()

	// Cold start: a fresh session over the same row replays to the same
	// posterior and the same derived phase, with nothing but the store.
	restored := New(s.ID(), testSessionConfig(), st, items, nil)
	if err := restored.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got := restored.Estimates()
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("restored posterior mismatch at cell %d", i)
		}
	}
	if restored.AnsweredCount() != 3 {
		t.Fatalf("expected 3 restored answers, got %d", restored.AnsweredCount())
	}
	if restored.Phase() != s.Phase() {
		t.Fatalf("restored phase %s != live phase %s", restored.Phase(), s.Phase())
	}

	// Answered questions stay excluded after restore.
	sel, err := restored.Next(sampler.ModeAuto)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if sel == nil || sel.QuestionID != "q4" {
		t.Fatalf("expected q4 as the only unanswered item, got %+v", sel)
	}
}

func TestSummaryJSON(t *testing.T) {
	s, _, _ := newTestSession(t)
	if _, err := s.Answer("q1", true); err != nil {
		t.Fatalf("answer: %v", err)
	}
	out, err := s.SummaryJSON()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if out == "" || out[0] != '{' {
		t.Fatalf("expected JSON object, got %q", out)
	}
}
