package database

import (
	"gorm.io/gorm"

	"github.com/edwardnovrizal/api-panel/internal/model"
)

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.OTP{},
		&model.RefreshToken{},
		&model.ResetToken{},
	)
}
