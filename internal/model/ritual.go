package model

import (
	"fmt"
	"strings"
)

// RitualPhase when in a descent a ritual is suggested
type RitualPhase string

const (
	PhasePre    RitualPhase = "PRE"
	PhaseDuring RitualPhase = "DURING"
	PhasePost   RitualPhase = "POST"
)

// Valid reports whether p is a known phase
func (p RitualPhase) Valid() bool {
	switch p {
	case PhasePre, PhaseDuring, PhasePost:
		return true
	}
	return false
}

// ParseRitualPhase accepts any letter case
func ParseRitualPhase(s string) (RitualPhase, error) {
	p := RitualPhase(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown ritual phase %q", s)
	}
	return p, nil
}

// Ritual suggested activity (rituals)
type Ritual struct {
	RitualID      string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"ritual_id"`
	DescentTypeID string      `gorm:"type:uuid;not null"                             json:"descent_type_id"`
	Name          string      `gorm:"type:varchar(100);not null"                     json:"name"`
	Description   string      `gorm:"type:text;not null;default:''"                  json:"description"`
	Instructions  string      `gorm:"type:text;not null;default:''"                  json:"instructions"`
	Phase         RitualPhase `gorm:"type:varchar(10);not null"                      json:"phase"`
	BaseModel

	DescentType *DescentType `gorm:"foreignKey:DescentTypeID;references:DescentTypeID" json:"descent_type,omitempty"`
}

// TableName table name
func (Ritual) TableName() string { return "rituals" }
