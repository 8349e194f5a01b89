package model

import "time"

// EmotionRange inclusive bound on Entry.EmotionLevel
type EmotionRange struct {
	Min int
	Max int
}

// DefaultEmotionRange 1 (lowest) to 5 (highest)
var DefaultEmotionRange = EmotionRange{Min: 1, Max: 5}

// Contains reports whether level lies within the range
func (r EmotionRange) Contains(level int) bool {
	return level >= r.Min && level <= r.Max
}

// Entry journal record inside a session (entries)
type Entry struct {
	EntryID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	Seq          int64     `gorm:"->"                                             json:"-"` // insertion order, tie-break for equal CreatedAt
	SessionID    string    `gorm:"type:uuid;not null;<-:create"                   json:"session_id"`
	Content      string    `gorm:"type:text;not null"                             json:"content"`
	EmotionLevel int       `gorm:"type:smallint;not null"                         json:"emotion_level"`
	Reflection   string    `gorm:"type:text;not null;default:''"                  json:"reflection"`
	CreatedAt    time.Time `gorm:"not null;<-:create"                             json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	Session *DescentSession `gorm:"foreignKey:SessionID;references:SessionID" json:"-"`
}

// TableName table name
func (Entry) TableName() string { return "entries" }
