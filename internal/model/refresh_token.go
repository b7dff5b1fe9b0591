package model

import (
	"time"

	"gorm.io/gorm"
)

// Revocation actors recorded on terminated sessions
const (
	RevokedByUser    = "user"
	RevokedByAdmin   = "admin"
	RevokedBySystem  = "system"
	RevokedByExpired = "expired"
)

// RefreshToken is a server-side session record. The opaque token string
// is the only credential the client holds; everything else lives here.
type RefreshToken struct {
	gorm.Model
	UserID     uint       `gorm:"not null;index:idx_refresh_tokens_user_id" json:"user_id"`
	Token      string     `gorm:"type:varchar(128);uniqueIndex:idx_refresh_tokens_token;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null;index:idx_refresh_tokens_expires_at" json:"expires_at"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	UserAgent  string     `gorm:"type:varchar(512)" json:"user_agent"`
	IPAddress  string     `gorm:"type:varchar(45)" json:"ip_address"`
	DeviceType string     `gorm:"type:varchar(20)" json:"device_type"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	RevokedBy  string     `gorm:"type:varchar(20)" json:"revoked_by,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Expired reports whether the token is past its expiry at the given instant.
// Expiry is evaluated at read time; no background job flips stored state.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Valid reports whether the token can still be rotated
func (t *RefreshToken) Valid(now time.Time) bool {
	return t.IsActive && !t.Expired(now)
}
