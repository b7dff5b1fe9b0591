package model

import (
	"time"

	"gorm.io/gorm"
)

// OTP purposes
const (
	PurposeEmailVerification = "email_verification"
	PurposePasswordReset     = "password_reset"
)

// OTP is a short-lived numeric code delivered by email.
// Only one unused code per (email, purpose) is active at a time.
type OTP struct {
	gorm.Model
	Email     string     `gorm:"type:varchar(255);not null;index:idx_otps_email_purpose" json:"email"`
	Purpose   string     `gorm:"type:varchar(30);not null;index:idx_otps_email_purpose" json:"purpose"`
	Code      string     `gorm:"type:varchar(10);not null" json:"-"`
	IsUsed    bool       `gorm:"default:false" json:"is_used"`
	Attempts  int        `gorm:"default:0" json:"attempts"`
	ExpiresAt time.Time  `gorm:"not null;index:idx_otps_expires_at" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// Expired reports whether the code is past its expiry at the given instant
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// Usable reports whether the code can still be verified
func (o *OTP) Usable(now time.Time) bool {
	return !o.IsUsed && !o.Expired(now)
}
