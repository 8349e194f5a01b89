package model

import "time"

// User account (users)
type User struct {
	UserID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string    `gorm:"type:varchar(150);not null;uniqueIndex"         json:"username"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null"                     json:"-"`
	IsSuperuser  bool      `gorm:"not null;default:false"                         json:"is_superuser"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName table name
func (User) TableName() string { return "users" }
