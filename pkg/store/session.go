package store

import (
	"time"

	"graph-qa-be/pkg/traversal"
)

// Session is the in-memory snapshot of one chat session's retrieval
// progress. It lets a follow-up question reuse the previous walk's
// annotations instead of starting cold.
type Session struct {
	ID     string `json:"id"` // ChatSessionID
	UserID string `json:"user_id"`

	// The last completed traversal, terminal state included.
	LastState *traversal.State `json:"-"`

	// Accumulated analysis carried into the next question's planning.
	PreviousAnalysis string `json:"previous_analysis"`

	LastQuery string    `json:"last_query"`
	UpdatedAt time.Time `json:"updated_at"`
}
