package database

import (
	"errors"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/edwardnovrizal/api-panel/internal/model"
)

// DefaultAdmin defines the bootstrap super admin credentials
type DefaultAdmin struct {
	Username string
	FullName string
	Email    string
	Password string
}

// GetDefaultAdmin returns the bootstrap super admin, overridable via env
func GetDefaultAdmin() DefaultAdmin {
	admin := DefaultAdmin{
		Username: "superadmin",
		FullName: "Super Admin",
		Email:    "admin@apipanel.local",
		Password: "Admin@123", // Change this in production!
	}
	if v := os.Getenv("SEED_ADMIN_EMAIL"); v != "" {
		admin.Email = v
	}
	if v := os.Getenv("SEED_ADMIN_PASSWORD"); v != "" {
		admin.Password = v
	}
	return admin
}

// Seed creates initial data for the database
func Seed(db *gorm.DB) error {
	return SeedAdmin(db)
}

// SeedAdmin creates the bootstrap super admin if no account holds that
// role yet. Seeded accounts are pre-verified so they can log in.
func SeedAdmin(db *gorm.DB) error {
	var existing model.User
	result := db.Where("role = ?", model.RoleSuperAdmin).First(&existing)
	if result.Error == nil {
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	admin := GetDefaultAdmin()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := model.User{
		Username:      admin.Username,
		FullName:      admin.FullName,
		Email:         admin.Email,
		Password:      string(hashedPassword),
		Role:          model.RoleSuperAdmin,
		IsActive:      true,
		EmailVerified: true,
	}

	return db.Create(&user).Error
}
