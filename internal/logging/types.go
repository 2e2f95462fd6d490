package logging

import "time"

// #region event-type

// EventType enumerates diagnosable degradation events. None of these
// interrupt the caller; silent numerical degradation is the failure mode
// this log exists to expose.
type EventType string

const (
	EventSolverDegraded EventType = "solver_degraded"
	EventGuardWarning   EventType = "guard_warning"
	EventInputClamped   EventType = "input_clamped"
)

// #endregion event-type

// #region event

// Event is a single row in the diagnostics_log table.
type Event struct {
	SessionID  string
	Type       EventType
	Reason     string
	DetailJSON string
	CreatedAt  time.Time
}

// #endregion event

// #region sink

// Sink receives diagnostic events from the numerical core. Implementations
// must never fail the caller: a sink that cannot record an event drops it.
type Sink interface {
	Event(t EventType, reason string)
}

// #endregion sink
