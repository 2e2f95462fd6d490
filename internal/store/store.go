package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS responses (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	question_id  TEXT NOT NULL,
	x            REAL NOT NULL,
	y            REAL NOT NULL,
	outcome      TEXT NOT NULL,
	difficulty   INTEGER NOT NULL,
	created_at   TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
CREATE INDEX IF NOT EXISTS idx_responses_session ON responses(session_id);
`
// #endregion schema

// #region store-struct
// Store manages sessions and responses in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region create-session
// CreateSession inserts a new session row and returns it.
func (s *Store) CreateSession() (Session, error) {
	sess := Session{
		SessionID: uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, created_at) VALUES (?, ?)`,
		sess.SessionID, sess.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}
// #endregion create-session

// #region list-sessions
// ListSessions returns all sessions, oldest first.
func (s *Store) ListSessions() ([]Session, error) {
	rows, err := s.db.Query(`SELECT session_id, created_at FROM sessions ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var createdStr string
		if err := rows.Scan(&sess.SessionID, &createdStr); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, sess)
	}
	return out, rows.Err()
}
// #endregion list-sessions

// #region append-response
// AppendResponse persists one answer event. The outcome must be one of the
// three Outcome values; difficulty is stored as given, normalization is the
// estimator's job on the way back in, not the store's.
func (s *Store) AppendResponse(r Response) (int64, error) {
	if !r.Outcome.Valid() {
		return 0, fmt.Errorf("invalid outcome %q", r.Outcome)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO responses (session_id, question_id, x, y, outcome, difficulty, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.QuestionID, r.X, r.Y, string(r.Outcome), r.Difficulty,
		r.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert response: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("response id: %w", err)
	}
	return id, nil
}
// #endregion append-response

// #region list-responses
// ListResponses returns a session's responses in insertion order.
func (s *Store) ListResponses(sessionID string) ([]Response, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, question_id, x, y, outcome, difficulty, created_at
		 FROM responses WHERE session_id = ? ORDER BY id ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		var r Response
		var outcome, createdStr string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.QuestionID, &r.X, &r.Y, &outcome, &r.Difficulty, &createdStr); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		r.Outcome = Outcome(outcome)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, r)
	}
	return out, rows.Err()
}
// #endregion list-responses

// #region count-responses
// CountResponses returns the number of responses recorded for a session.
func (s *Store) CountResponses(sessionID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM responses WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}
// #endregion count-responses
