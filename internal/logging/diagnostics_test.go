package logging

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "diag.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := EnsureSchema(db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

func TestCounters(t *testing.T) {
	c := NewCounters()
	c.Quiet = true

	c.Event(EventSolverDegraded, "factorization failed")
	c.Event(EventSolverDegraded, "factorization failed")
	c.Event(EventGuardWarning, "coverage jump")

	if got := c.Count(EventSolverDegraded); got != 2 {
		t.Fatalf("expected 2 solver events, got %d", got)
	}
	if got := c.Count(EventInputClamped); got != 0 {
		t.Fatalf("expected 0 clamp events, got %d", got)
	}

	counts := c.Counts()
	counts[EventGuardWarning] = 99
	if c.Count(EventGuardWarning) != 1 {
		t.Fatal("Counts() must return a copy")
	}
}

func TestLogAndListEvents(t *testing.T) {
	db := openTestDB(t)

	entries := []Event{
		{SessionID: "s1", Type: EventSolverDegraded, Reason: "retries exhausted"},
		{SessionID: "s1", Type: EventGuardWarning, Reason: "mean shifted 0.4"},
		{SessionID: "s2", Type: EventInputClamped, Reason: "difficulty 7 -> 3"},
	}
	for _, e := range entries {
		if err := LogEvent(db, e); err != nil {
			t.Fatalf("log event: %v", err)
		}
	}

	got, err := ListEvents(db, "s1")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events for s1, got %d", len(got))
	}
	if got[0].Type != EventSolverDegraded || got[1].Type != EventGuardWarning {
		t.Fatalf("wrong order or types: %+v", got)
	}
	if got[0].CreatedAt.IsZero() {
		t.Fatal("created_at not backfilled")
	}
}

func TestStoreSink(t *testing.T) {
	db := openTestDB(t)

	counters := NewCounters()
	counters.Quiet = true
	sink := NewStoreSink(db, "s9", counters)

	sink.Event(EventSolverDegraded, "singular gram matrix")

	if counters.Count(EventSolverDegraded) != 1 {
		t.Fatal("sink did not count")
	}
	got, err := ListEvents(db, "s9")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(got) != 1 || got[0].Reason != "singular gram matrix" {
		t.Fatalf("sink did not persist: %+v", got)
	}
}
