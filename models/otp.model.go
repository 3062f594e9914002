package models

import (
	"time"

	"gorm.io/gorm"
)

// OTP is a one-time sign-in code sent by email. Only the bcrypt hash is stored.
type OTP struct {
	gorm.Model
	Email     string    `gorm:"size:191;index;not null" json:"email"`
	CodeHash  string    `gorm:"size:72;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Attempts  int       `gorm:"default:0" json:"attempts"`
	IsUsed    bool      `gorm:"default:false" json:"is_used"`
}
