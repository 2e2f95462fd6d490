package logging

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS diagnostics_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT,
	event_type  TEXT NOT NULL,
	reason      TEXT,
	detail_json TEXT,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_diag_session ON diagnostics_log(session_id);
`

// #endregion schema

// #region log-event

// EnsureSchema creates the diagnostics_log table if needed.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate diagnostics_log: %w", err)
	}
	return nil
}

// LogEvent writes a diagnostic event to the diagnostics_log table.
func LogEvent(db *sql.DB, entry Event) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := db.Exec(
		`INSERT INTO diagnostics_log (session_id, event_type, reason, detail_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		nullIfEmpty(entry.SessionID),
		string(entry.Type),
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.DetailJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// ListEvents returns diagnostics rows for a session, oldest first.
func ListEvents(db *sql.DB, sessionID string) ([]Event, error) {
	rows, err := db.Query(
		`SELECT session_id, event_type, reason, detail_json, created_at
		 FROM diagnostics_log WHERE session_id = ? ORDER BY id ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var sid, reason, detail sql.NullString
		var createdStr string
		if err := rows.Scan(&sid, &e.Type, &reason, &detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.SessionID = sid.String
		e.Reason = reason.String
		e.DetailJSON = detail.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion log-event

// #region counters

// Counters is an in-memory Sink that tallies events per type and echoes them
// to the standard logger. It is the default sink when no database is wired.
type Counters struct {
	counts map[EventType]int
	Quiet  bool // suppress log.Printf echo (tests)
}

// NewCounters creates an empty counter sink.
func NewCounters() *Counters {
	return &Counters{counts: make(map[EventType]int)}
}

// Event records one occurrence of the given event type.
func (c *Counters) Event(t EventType, reason string) {
	c.counts[t]++
	if !c.Quiet {
		log.Printf("diagnostics: %s: %s", t, reason)
	}
}

// Count returns the tally for one event type.
func (c *Counters) Count(t EventType) int {
	return c.counts[t]
}

// Counts returns a copy of all tallies.
func (c *Counters) Counts() map[EventType]int {
	out := make(map[EventType]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// #endregion counters

// #region store-sink

// StoreSink is a Sink that both counts and persists events for one session.
type StoreSink struct {
	db        *sql.DB
	sessionID string
	counters  *Counters
}

// NewStoreSink creates a persistent sink. The counters may be shared with
// other sinks; pass nil to allocate a private set.
func NewStoreSink(db *sql.DB, sessionID string, counters *Counters) *StoreSink {
	if counters == nil {
		counters = NewCounters()
	}
	return &StoreSink{db: db, sessionID: sessionID, counters: counters}
}

// Event counts the occurrence and writes it through to diagnostics_log.
// A failed insert is echoed and dropped, never surfaced to the caller.
func (s *StoreSink) Event(t EventType, reason string) {
	s.counters.Event(t, reason)
	if err := LogEvent(s.db, Event{SessionID: s.sessionID, Type: t, Reason: reason}); err != nil {
		log.Printf("diagnostics: persist failed: %v", err)
	}
}

// Counters exposes the tally set backing this sink.
func (s *StoreSink) Counters() *Counters {
	return s.counters
}

// #endregion store-sink

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
