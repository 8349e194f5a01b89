package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAlreadyTerminal the session is COMPLETED or ABANDONED; the requested
	// transition was not applied.
	ErrAlreadyTerminal = errors.New("session already finished")
	// ErrInconsistentLifecycle stored status and timestamps disagree
	ErrInconsistentLifecycle = errors.New("session status and timestamps are inconsistent")
	// ErrInvalidStatus value is not a SessionStatus
	ErrInvalidStatus = errors.New("invalid session status")
)

// ── SessionStatus ──

// SessionStatus closed set of descent session states
type SessionStatus string

const (
	StatusStarted    SessionStatus = "STARTED"
	StatusInProgress SessionStatus = "IN_PROGRESS"
	StatusCompleted  SessionStatus = "COMPLETED"
	StatusAbandoned  SessionStatus = "ABANDONED"
)

// Valid reports whether s is one of the four states
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusStarted, StatusInProgress, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// IsTerminal COMPLETED and ABANDONED accept no further transitions
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// ParseSessionStatus rejects anything outside the enumeration
func ParseSessionStatus(s string) (SessionStatus, error) {
	st := SessionStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Scan implements sql.Scanner; unknown strings are an error, never a silent state
func (s *SessionStatus) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("SessionStatus.Scan: unsupported type %T", src)
	}
	st, err := ParseSessionStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Value implements driver.Valuer
func (s SessionStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
	}
	return string(s), nil
}

// ── Lifecycle ──

// Lifecycle is the status of a session together with exactly the timestamps
// that status implies. It is one of Active, Completed or Abandoned.
type Lifecycle interface {
	Status() SessionStatus
	StartedAt() time.Time
	sealed()
}

// Active a session still accepting work. InProgress distinguishes
// IN_PROGRESS from STARTED.
type Active struct {
	Started    time.Time
	InProgress bool
}

// Completed a session finished by its owner
type Completed struct {
	Started   time.Time
	Completed time.Time
}

// Abandoned a session given up by its owner
type Abandoned struct {
	Started   time.Time
	Abandoned time.Time
}

func (a Active) Status() SessionStatus {
	if a.InProgress {
		return StatusInProgress
	}
	return StatusStarted
}
func (a Active) StartedAt() time.Time { return a.Started }
func (Active) sealed()                {}

func (c Completed) Status() SessionStatus { return StatusCompleted }
func (c Completed) StartedAt() time.Time  { return c.Started }
func (Completed) sealed()                 {}

func (a Abandoned) Status() SessionStatus { return StatusAbandoned }
func (a Abandoned) StartedAt() time.Time  { return a.Started }
func (Abandoned) sealed()                 {}

// Event a requested lifecycle change
type Event int

const (
	EventBeginWork Event = iota + 1
	EventComplete
	EventAbandon
)

func (e Event) String() string {
	switch e {
	case EventBeginWork:
		return "begin_work"
	case EventComplete:
		return "complete"
	case EventAbandon:
		return "abandon"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Transition applies ev to l at time at.
//
//	STARTED     --begin_work--> IN_PROGRESS
//	STARTED     --complete----> COMPLETED
//	STARTED     --abandon-----> ABANDONED
//	IN_PROGRESS --begin_work--> IN_PROGRESS (no-op)
//	IN_PROGRESS --complete----> COMPLETED
//	IN_PROGRESS --abandon-----> ABANDONED
//	terminal    --begin_work--> unchanged (no-op)
//	terminal    --complete/abandon--> unchanged, ErrAlreadyTerminal
func Transition(l Lifecycle, ev Event, at time.Time) (Lifecycle, error) {
	switch cur := l.(type) {
	case Active:
		switch ev {
		case EventBeginWork:
			return Active{Started: cur.Started, InProgress: true}, nil
		case EventComplete:
			return Completed{Started: cur.Started, Completed: at}, nil
		case EventAbandon:
			return Abandoned{Started: cur.Started, Abandoned: at}, nil
		}
	case Completed, Abandoned:
		switch ev {
		case EventBeginWork:
			return l, nil
		case EventComplete, EventAbandon:
			return l, ErrAlreadyTerminal
		}
	default:
		return l, fmt.Errorf("unknown lifecycle %T", l)
	}
	return l, fmt.Errorf("unknown lifecycle event %s", ev)
}

// Duration of a lifecycle observed at now. Finished sessions measure start to
// finish; active sessions measure elapsed time so far. Never negative.
func Duration(l Lifecycle, now time.Time) time.Duration {
	var d time.Duration
	switch cur := l.(type) {
	case Completed:
		d = cur.Completed.Sub(cur.Started)
	case Abandoned:
		d = cur.Abandoned.Sub(cur.Started)
	case Active:
		d = now.Sub(cur.Started)
	}
	if d < 0 {
		return 0
	}
	return d
}
