package model

import (
	"errors"
	"time"
)

// ErrStartedAtImmutable a lifecycle with a different start time was applied
var ErrStartedAtImmutable = errors.New("session started_at cannot change")

// DescentSession one user's journaling descent (descent_sessions)
//
// Status, StartedAt, CompletedAt and AbandonedAt are written only through
// SetLifecycle so the columns cannot drift apart.
type DescentSession struct {
	SessionID     string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	UserID        string        `gorm:"type:uuid;not null;<-:create"                   json:"user_id"`
	DescentTypeID string        `gorm:"type:uuid;not null"                             json:"descent_type_id"`
	Status        SessionStatus `gorm:"type:varchar(20);not null;default:'STARTED'"    json:"status"`
	StartedAt     time.Time     `gorm:"not null;<-:create"                             json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	AbandonedAt   *time.Time    `json:"abandoned_at,omitempty"`
	Notes         string        `gorm:"type:text;not null;default:''"                  json:"notes"`
	Version       int           `gorm:"not null;default:1"                             json:"version"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	DescentType *DescentType `gorm:"foreignKey:DescentTypeID;references:DescentTypeID"    json:"descent_type,omitempty"`
	User        *User        `gorm:"foreignKey:UserID;references:UserID"                  json:"-"`
	Entries     []Entry      `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"     json:"entries,omitempty"`
}

// TableName table name
func (DescentSession) TableName() string { return "descent_sessions" }

// NewDescentSession a STARTED session owned by userID
func NewDescentSession(userID, descentTypeID, notes string, startedAt time.Time) *DescentSession {
	return &DescentSession{
		UserID:        userID,
		DescentTypeID: descentTypeID,
		Status:        StatusStarted,
		StartedAt:     startedAt,
		Notes:         notes,
	}
}

// OwnedBy reports whether userID owns the session
func (s *DescentSession) OwnedBy(userID string) bool {
	return userID != "" && s.UserID == userID
}

// Lifecycle reads the stored columns back as a tagged lifecycle value
func (s *DescentSession) Lifecycle() (Lifecycle, error) {
	switch s.Status {
	case StatusStarted, StatusInProgress:
		if s.CompletedAt != nil || s.AbandonedAt != nil {
			return nil, ErrInconsistentLifecycle
		}
		return Active{Started: s.StartedAt, InProgress: s.Status == StatusInProgress}, nil
	case StatusCompleted:
		if s.CompletedAt == nil || s.AbandonedAt != nil {
			return nil, ErrInconsistentLifecycle
		}
		return Completed{Started: s.StartedAt, Completed: *s.CompletedAt}, nil
	case StatusAbandoned:
		if s.AbandonedAt == nil || s.CompletedAt != nil {
			return nil, ErrInconsistentLifecycle
		}
		return Abandoned{Started: s.StartedAt, Abandoned: *s.AbandonedAt}, nil
	}
	return nil, ErrInvalidStatus
}

// SetLifecycle writes l onto the status and timestamp columns
func (s *DescentSession) SetLifecycle(l Lifecycle) error {
	if !l.StartedAt().Equal(s.StartedAt) {
		return ErrStartedAtImmutable
	}

	switch cur := l.(type) {
	case Active:
		s.CompletedAt, s.AbandonedAt = nil, nil
	case Completed:
		at := cur.Completed
		s.CompletedAt, s.AbandonedAt = &at, nil
	case Abandoned:
		at := cur.Abandoned
		s.CompletedAt, s.AbandonedAt = nil, &at
	}
	s.Status = l.Status()
	return nil
}

// Apply runs ev against the session's lifecycle and stores the result.
// changed is false when the event was a no-op.
func (s *DescentSession) Apply(ev Event, at time.Time) (changed bool, err error) {
	cur, err := s.Lifecycle()
	if err != nil {
		return false, err
	}
	next, err := Transition(cur, ev, at)
	if err != nil {
		return false, err
	}
	if next == cur {
		return false, nil
	}
	if err := s.SetLifecycle(next); err != nil {
		return false, err
	}
	return true, nil
}

// Duration see model.Duration; inconsistent rows report zero
func (s *DescentSession) Duration(now time.Time) time.Duration {
	l, err := s.Lifecycle()
	if err != nil {
		return 0
	}
	return Duration(l, now)
}

// EndedAt completion or abandonment time, nil while active
func (s *DescentSession) EndedAt() *time.Time {
	if s.CompletedAt != nil {
		return s.CompletedAt
	}
	return s.AbandonedAt
}
