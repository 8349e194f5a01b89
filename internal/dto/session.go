package dto

// ── session requests ──

// StartSessionRequest begin a descent
type StartSessionRequest struct {
	DescentTypeID string `json:"descent_type_id"`
	Notes         string `json:"notes"`
}

// UpdateNotesRequest replace the free-text notes of a session
type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

// Continue actions
const (
	ActionSave            = "save"
	ActionSaveAndContinue = "save_and_continue"
	ActionComplete        = "complete"
)

// ContinueSessionRequest add an entry and then apply Action.
// An empty Action means ActionSave.
type ContinueSessionRequest struct {
	EntryInput
	Action string `json:"action"`
}

// Next hints returned by Continue
const (
	NextSession  = "session"  // show the session detail
	NextContinue = "continue" // stay on the journaling form
	NextHistory  = "history"  // back to the history list
)

// ── session responses ──

// DescentTypeBrief embedded descent type summary
type DescentTypeBrief struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// SessionResponse session view with derived duration
type SessionResponse struct {
	ID              string            `json:"id"`
	DescentType     *DescentTypeBrief `json:"descent_type,omitempty"`
	Status          string            `json:"status"`
	StartedAt       string            `json:"started_at"`
	CompletedAt     *string           `json:"completed_at,omitempty"`
	AbandonedAt     *string           `json:"abandoned_at,omitempty"`
	Notes           string            `json:"notes"`
	DurationSeconds int64             `json:"duration_seconds"`
	EntryCount      *int              `json:"entry_count,omitempty"`
	Entries         []EntryResponse   `json:"entries,omitempty"`
}

// SessionResult lifecycle operation outcome; Warnings is set when the
// operation was accepted as a no-op.
type SessionResult struct {
	Session  *SessionResponse `json:"session"`
	Warnings []string         `json:"-"`
}

// ContinueResponse Continue outcome
type ContinueResponse struct {
	Session  *SessionResponse `json:"session"`
	Entry    *EntryResponse   `json:"entry"`
	Next     string           `json:"next"`
	Warnings []string         `json:"-"`
}
