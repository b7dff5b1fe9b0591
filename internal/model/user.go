package model

import (
	"time"

	"gorm.io/gorm"
)

// Role values, ordered by privilege
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type User struct {
	gorm.Model
	Username      string     `gorm:"type:varchar(20);uniqueIndex:idx_users_username;not null" json:"username"`
	FullName      string     `gorm:"type:varchar(100);not null" json:"fullname"`
	Email         string     `gorm:"type:varchar(255);uniqueIndex:idx_users_email;not null" json:"email"`
	Password      string     `gorm:"type:varchar(255);not null" json:"-"`
	Role          string     `gorm:"type:varchar(20);default:'user';index:idx_users_role" json:"role"`
	IsActive      bool       `gorm:"default:true;index:idx_users_is_active" json:"is_active"`
	EmailVerified bool       `gorm:"default:false" json:"email_verified"`
	LastLogin     *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`
}

// IsAdmin reports whether the user holds an administrative role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}
