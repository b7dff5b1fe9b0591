package dto

import (
	"time"

	"github.com/edwardnovrizal/api-panel/internal/model"
)

type UserResponse struct {
	ID            uint       `json:"id"`
	Username      string     `json:"username"`
	FullName      string     `json:"fullname"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToUserResponse maps a user record to its API shape
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		FullName:      u.FullName,
		Email:         u.Email,
		Role:          u.Role,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
	}
}

type UpdateProfileRequest struct {
	FullName string `json:"fullname" binding:"omitempty,min=3,max=100"`
}

type ToggleActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
