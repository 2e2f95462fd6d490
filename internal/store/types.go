package store

import "time"

// #region outcome

// Outcome classifies a persisted response.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeSkipped   Outcome = "skipped"
)

// Valid reports whether o is one of the three persisted outcome values.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeCorrect, OutcomeIncorrect, OutcomeSkipped:
		return true
	}
	return false
}

// #endregion outcome

// #region response

// Response is one persisted answer event. This is the raw shape handed to
// the estimator's Restore: the estimator alone decides how weight and length
// scale derive from it.
type Response struct {
	ID         int64
	SessionID  string
	QuestionID string
	X          float64
	Y          float64
	Outcome    Outcome
	Difficulty int
	CreatedAt  time.Time
}

// #endregion response

// #region session

// Session is one learner session row.
type Session struct {
	SessionID string
	CreatedAt time.Time
}

// #endregion session
