package models

import "time"

// OTPSession stores a bcrypt hash of a one-time code; the code itself is
// never persisted.
type OTPSession struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Email       string     `gorm:"size:255;not null;index:idx_otp_lookup" json:"email"`
	Purpose     string     `gorm:"size:32;not null;index:idx_otp_lookup" json:"purpose"`
	ComplaintID *uint      `gorm:"index" json:"complaint_id"`
	UserID      *uint      `gorm:"index" json:"user_id"`
	CodeHash    string     `gorm:"size:255;not null" json:"-"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	VerifiedAt  *time.Time `json:"verified_at"`
	// Superseded is set when a newer code is issued for the same email and purpose.
	Superseded bool      `gorm:"not null;default:false" json:"-"`
	IP         string    `gorm:"size:45" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (OTPSession) TableName() string { return "otp_sessions" }

func (s *OTPSession) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }
