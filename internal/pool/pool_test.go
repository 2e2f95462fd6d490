package pool

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestItemStore(t *testing.T) *ItemStore {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "items.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s, err := NewItemStore(db)
	if err != nil {
		t.Fatalf("new item store: %v", err)
	}
	return s
}

func TestUpsertAndGet(t *testing.T) {
	s := newTestItemStore(t)

	if err := s.Upsert(Item{QuestionID: "q1", X: 0.2, Y: 0.7, Difficulty: 3}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.Get("q1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.X != 0.2 || got.Y != 0.7 || got.Difficulty != 3 {
		t.Fatalf("unexpected item: %+v", got)
	}

	// Upsert again with new coordinates: replaces, no duplicate.
	if err := s.Upsert(Item{QuestionID: "q1", X: 0.9, Y: 0.1, Difficulty: 1}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, err = s.Get("q1")
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if got.X != 0.9 || got.Difficulty != 1 {
		t.Fatalf("upsert did not replace: %+v", got)
	}

	items, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestItemStore(t)
	_, err := s.Get("absent")
	if err == nil {
		t.Fatal("expected error for missing item")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestBuildIndex(t *testing.T) {
	s := newTestItemStore(t)
	for _, item := range []Item{
		{QuestionID: "a", X: 0.1, Y: 0.1, Difficulty: 1},
		{QuestionID: "b", X: 0.5, Y: 0.5, Difficulty: 2},
		{QuestionID: "c", X: 0.9, Y: 0.9, Difficulty: 4},
	} {
		if err := s.Upsert(item); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	idx, err := s.BuildIndex()
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	if len(idx) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(idx))
	}
	if idx["b"].Difficulty != 2 {
		t.Fatalf("wrong difficulty for b: %d", idx["b"].Difficulty)
	}
}
