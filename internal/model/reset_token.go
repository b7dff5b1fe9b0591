package model

import (
	"time"

	"gorm.io/gorm"
)

// ResetToken is a single-use password reset credential
type ResetToken struct {
	gorm.Model
	Email     string     `gorm:"type:varchar(255);not null;index:idx_reset_tokens_email" json:"email"`
	Token     string     `gorm:"type:varchar(128);uniqueIndex:idx_reset_tokens_token;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index:idx_reset_tokens_expires_at" json:"expires_at"`
	IsUsed    bool       `gorm:"default:false" json:"is_used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

func (t *ResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Usable reports whether the token can still redeem a password reset
func (t *ResetToken) Usable(now time.Time) bool {
	return !t.IsUsed && !t.Expired(now)
}
