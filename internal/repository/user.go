package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edwardnovrizal/api-panel/internal/model"
	ctxutil "github.com/edwardnovrizal/api-panel/pkg/context"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "CreateUser")

	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("username", user.Username).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.DebugWithContext(ctx, "User created").
		Uint("user_id", user.ID).
		String("username", user.Username).
		Log()
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetUserByID")

	var user model.User
	result := r.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	result := r.db.WithContext(ctx).Where("username = ?", username).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, fullName string) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdateProfile")

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("full_name", fullName)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update profile").
			Uint("user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdatePassword")

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password", hashedPassword)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update password").
			Uint("user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

func (r *UserRepository) SetEmailVerified(ctx context.Context, id uint) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "SetEmailVerified")

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("email_verified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) SetActive(ctx context.Context, id uint, active bool) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "SetActive")

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update active flag").
			Uint("user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns a page of users with an optional search over username,
// full name and email.
func (r *UserRepository) List(ctx context.Context, limit, offset int, search string) ([]model.User, int64, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ListUsers")

	var users []model.User
	var total int64

	query := r.db.WithContext(ctx).Model(&model.User{})

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"username ILIKE ? OR full_name ILIKE ? OR email ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to list users").
			Err(result.Error).
			Log()
		return nil, 0, result.Error
	}

	return users, total, nil
}
