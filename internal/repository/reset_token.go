package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edwardnovrizal/api-panel/internal/model"
	ctxutil "github.com/edwardnovrizal/api-panel/pkg/context"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
)

type ResetTokenRepository struct {
	db *gorm.DB
}

func NewResetTokenRepository(db *gorm.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, token *model.ResetToken) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "CreateResetToken")

	result := r.db.WithContext(ctx).Create(token)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create reset token").
			String("email", token.Email).
			Err(result.Error).
			Log()
		return result.Error
	}
	return nil
}

// InvalidatePrior marks every unused token for the address as used so a
// new request supersedes older emails.
func (r *ResetTokenRepository) InvalidatePrior(ctx context.Context, email string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.ResetToken{}).
		Where("email = ? AND is_used = ?", email, false).
		Updates(map[string]interface{}{"is_used": true, "used_at": now}).Error
}

// FindValid returns the token only if it is unused and unexpired
func (r *ResetTokenRepository) FindValid(ctx context.Context, token string, now time.Time) (*model.ResetToken, error) {
	var rt model.ResetToken
	result := r.db.WithContext(ctx).
		Where("token = ? AND is_used = ? AND expires_at > ?", token, false, now).
		First(&rt)
	if result.Error != nil {
		return nil, result.Error
	}
	return &rt, nil
}

// MarkUsed consumes the token exactly once via a conditional update
func (r *ResetTokenRepository) MarkUsed(ctx context.Context, id uint) (bool, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&model.ResetToken{}).
		Where("id = ? AND is_used = ?", id, false).
		Updates(map[string]interface{}{"is_used": true, "used_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteExpiredOrUsed hard-deletes tokens no longer redeemable
func (r *ResetTokenRepository) DeleteExpiredOrUsed(ctx context.Context, now time.Time) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteExpiredResetTokens")

	result := r.db.WithContext(ctx).
		Unscoped().
		Where("expires_at < ? OR is_used = ?", now, true).
		Delete(&model.ResetToken{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to purge reset tokens").
			Err(result.Error).
			Log()
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
