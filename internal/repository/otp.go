package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edwardnovrizal/api-panel/internal/model"
	ctxutil "github.com/edwardnovrizal/api-panel/pkg/context"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
)

type OTPRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) Create(ctx context.Context, otp *model.OTP) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "CreateOTP")

	result := r.db.WithContext(ctx).Create(otp)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create OTP").
			String("email", otp.Email).
			String("purpose", otp.Purpose).
			Err(result.Error).
			Log()
		return result.Error
	}
	return nil
}

// InvalidateUnused marks all unused codes for an address and purpose as
// used, so only the most recently issued code is ever redeemable.
func (r *OTPRepository) InvalidateUnused(ctx context.Context, email, purpose string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.OTP{}).
		Where("email = ? AND purpose = ? AND is_used = ?", email, purpose, false).
		Updates(map[string]interface{}{"is_used": true, "used_at": now}).Error
}

// FindActive returns the single unused, unexpired code for the address
// and purpose, or gorm.ErrRecordNotFound.
func (r *OTPRepository) FindActive(ctx context.Context, email, purpose string, now time.Time) (*model.OTP, error) {
	var otp model.OTP
	result := r.db.WithContext(ctx).
		Where("email = ? AND purpose = ? AND is_used = ? AND expires_at > ?",
			email, purpose, false, now).
		Order("created_at DESC").
		First(&otp)
	if result.Error != nil {
		return nil, result.Error
	}
	return &otp, nil
}

func (r *OTPRepository) IncrementAttempts(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.OTP{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

// MarkUsed consumes the code. The conditional update makes consumption
// exactly-once: the second concurrent caller sees zero rows affected.
func (r *OTPRepository) MarkUsed(ctx context.Context, id uint) (bool, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&model.OTP{}).
		Where("id = ? AND is_used = ?", id, false).
		Updates(map[string]interface{}{"is_used": true, "used_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteExpired hard-deletes codes whose expiry is older than the grace
// window. Advisory housekeeping; correctness never depends on it.
func (r *OTPRepository) DeleteExpired(ctx context.Context, now time.Time, grace time.Duration) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteExpiredOTPs")

	cutoff := now.Add(-grace)
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("expires_at < ?", cutoff).
		Delete(&model.OTP{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to purge expired OTPs").
			Err(result.Error).
			Log()
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
