package model

import (
	"fmt"
	"strings"
)

// DescentCategory closed set of descent themes
type DescentCategory string

const (
	CategoryEmotional   DescentCategory = "EMOTIONAL"
	CategoryMental      DescentCategory = "MENTAL"
	CategorySpiritual   DescentCategory = "SPIRITUAL"
	CategoryPhysical    DescentCategory = "PHYSICAL"
	CategoryExistential DescentCategory = "EXISTENTIAL"
)

// Categories every category in display order
var Categories = []DescentCategory{
	CategoryEmotional,
	CategoryMental,
	CategorySpiritual,
	CategoryPhysical,
	CategoryExistential,
}

// Valid reports whether c is one of Categories
func (c DescentCategory) Valid() bool {
	switch c {
	case CategoryEmotional, CategoryMental, CategorySpiritual, CategoryPhysical, CategoryExistential:
		return true
	}
	return false
}

// ParseDescentCategory accepts any letter case ("Emotional", "emotional")
func ParseDescentCategory(s string) (DescentCategory, error) {
	c := DescentCategory(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown descent category %q", s)
	}
	return c, nil
}

// DescentType session category (descent_types)
type DescentType struct {
	DescentTypeID string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"descent_type_id"`
	Name          string          `gorm:"type:varchar(100);not null"                     json:"name"`
	Description   string          `gorm:"type:text;not null;default:''"                  json:"description"`
	Category      DescentCategory `gorm:"type:varchar(20);not null"                      json:"category"`
	IsActive      bool            `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName table name
func (DescentType) TableName() string { return "descent_types" }

// Selectable reports whether new sessions may reference this type
func (t *DescentType) Selectable() bool {
	return t != nil && t.IsActive && !t.DeletedAt.Valid
}
