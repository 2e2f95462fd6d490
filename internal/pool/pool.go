package pool

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS items (
    question_id  TEXT PRIMARY KEY,
    x            REAL NOT NULL,
    y            REAL NOT NULL,
    difficulty   INTEGER NOT NULL,
    created_at   TEXT NOT NULL
);
`

// #endregion schema

// #region types

// Item is one candidate question: a location in the knowledge embedding plus
// a difficulty level 1-4. Read-only from the sampler's point of view.
type Item struct {
	QuestionID string
	X          float64
	Y          float64
	Difficulty int
	CreatedAt  time.Time
}

// Index maps question ID to item, used to resolve difficulty when rebuilding
// an estimator from persisted responses.
type Index map[string]Item

// ItemStore manages the items table.
type ItemStore struct {
	db *sql.DB
}

// #endregion types

// #region constructor

// NewItemStore creates the items table if needed and returns a store.
func NewItemStore(db *sql.DB) (*ItemStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate items: %w", err)
	}
	return &ItemStore{db: db}, nil
}

// #endregion constructor

// #region upsert

// Upsert inserts or replaces an item by question ID.
func (s *ItemStore) Upsert(item Item) error {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO items (question_id, x, y, difficulty, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(question_id) DO UPDATE SET
		   x = excluded.x, y = excluded.y, difficulty = excluded.difficulty`,
		item.QuestionID, item.X, item.Y, item.Difficulty,
		item.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", item.QuestionID, err)
	}
	return nil
}

// #endregion upsert

// #region get

// Get fetches a single item. Returns sql.ErrNoRows when absent.
func (s *ItemStore) Get(questionID string) (Item, error) {
	var item Item
	var createdStr string
	err := s.db.QueryRow(
		`SELECT question_id, x, y, difficulty, created_at FROM items WHERE question_id = ?`,
		questionID,
	).Scan(&item.QuestionID, &item.X, &item.Y, &item.Difficulty, &createdStr)
	if err != nil {
		return Item{}, fmt.Errorf("get item %s: %w", questionID, err)
	}
	item.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return item, nil
}

// #endregion get

// #region list

// List returns all items ordered by question ID.
func (s *ItemStore) List() ([]Item, error) {
	rows, err := s.db.Query(
		`SELECT question_id, x, y, difficulty, created_at FROM items ORDER BY question_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var item Item
		var createdStr string
		if err := rows.Scan(&item.QuestionID, &item.X, &item.Y, &item.Difficulty, &createdStr); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, item)
	}
	return out, rows.Err()
}

// BuildIndex loads every item keyed by question ID.
func (s *ItemStore) BuildIndex() (Index, error) {
	items, err := s.List()
	if err != nil {
		return nil, err
	}
	idx := make(Index, len(items))
	for _, item := range items {
		idx[item.QuestionID] = item
	}
	return idx, nil
}

// #endregion list
