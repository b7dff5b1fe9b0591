package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edwardnovrizal/api-panel/internal/model"
	ctxutil "github.com/edwardnovrizal/api-panel/pkg/context"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "CreateRefreshToken")

	result := r.db.WithContext(ctx).Create(token)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create refresh token").
			Uint("user_id", token.UserID).
			Err(result.Error).
			Log()
		return result.Error
	}
	return nil
}

// FindByToken looks a token up regardless of its state. Callers decide
// what revoked or expired means for them.
func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	result := r.db.WithContext(ctx).Where("token = ?", token).First(&rt)
	if result.Error != nil {
		return nil, result.Error
	}
	return &rt, nil
}

// FindActiveByUser returns all sessions that are still active and not
// expired at the given instant, newest first.
func (r *RefreshTokenRepository) FindActiveByUser(ctx context.Context, userID uint, now time.Time) ([]model.RefreshToken, error) {
	var tokens []model.RefreshToken
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, now).
		Order("created_at DESC").
		Find(&tokens)
	if result.Error != nil {
		return nil, result.Error
	}
	return tokens, nil
}

// Revoke deactivates a token and records who revoked it. Revoking an
// already revoked token is a no-op, not an error.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id uint, revokedBy string) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RevokeRefreshToken")

	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"revoked_at": now,
			"revoked_by": revokedBy,
		})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke refresh token").
			Uint("token_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	return nil
}

// RevokeAllForUser deactivates every active session of a user and
// returns how many were revoked.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uint, revokedBy string) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RevokeAllForUser")

	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"revoked_at": now,
			"revoked_by": revokedBy,
		})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke user sessions").
			Uint("user_id", userID).
			Err(result.Error).
			Log()
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *RefreshTokenRepository) UpdateLastUsed(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

// DeleteExpired hard-deletes tokens that expired before now, plus
// revoked tokens older than the retention window.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time, revokedRetention time.Duration) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteExpiredRefreshTokens")

	cutoff := now.Add(-revokedRetention)
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("expires_at < ? OR (is_active = ? AND revoked_at < ?)", now, false, cutoff).
		Delete(&model.RefreshToken{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to purge refresh tokens").
			Err(result.Error).
			Log()
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
