package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName     string         `gorm:"size:255;not null" json:"full_name"`
	PhoneNumber  string         `gorm:"size:32;index" json:"phone_number"`
	PasswordHash string         `gorm:"size:255" json:"-"` // empty for OTP-only and Google accounts
	Role         string         `gorm:"size:32;not null;index" json:"role"`
	WardID       *uint          `gorm:"index" json:"ward_id"`
	Department   string         `gorm:"size:120" json:"department"`
	Language     string         `gorm:"size:8;default:'en'" json:"language"`
	GoogleID     *string        `gorm:"uniqueIndex;size:255" json:"-"`
	AvatarURL    string         `gorm:"size:512" json:"avatar_url"`
	FCMToken     string         `gorm:"size:512" json:"-"`
	IsActive     bool           `gorm:"not null;index" json:"is_active"`
	LastLoginAt  *time.Time     `json:"last_login_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Ward *Ward `gorm:"foreignKey:WardID" json:"ward,omitempty"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool { return u.PasswordHash != "" }
