package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/edwardnovrizal/api-panel/config"
	apperrors "github.com/edwardnovrizal/api-panel/internal/errors"
	"github.com/edwardnovrizal/api-panel/internal/model"
	ctxutil "github.com/edwardnovrizal/api-panel/pkg/context"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
)

// OTPStore is the persistence surface the OTP service needs
type OTPStore interface {
	Create(ctx context.Context, otp *model.OTP) error
	InvalidateUnused(ctx context.Context, email, purpose string) error
	FindActive(ctx context.Context, email, purpose string, now time.Time) (*model.OTP, error)
	IncrementAttempts(ctx context.Context, id uint) error
	MarkUsed(ctx context.Context, id uint) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time, grace time.Duration) (int64, error)
}

type OTPService struct {
	store OTPStore
	cfg   config.OTPConfig
	now   func() time.Time
}

func NewOTPService(store OTPStore, cfg config.OTPConfig) *OTPService {
	return &OTPService{
		store: store,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Issue invalidates any prior unused code for the address and purpose,
// then creates and returns a fresh one.
func (s *OTPService) Issue(ctx context.Context, email, purpose string) (*model.OTP, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "IssueOTP")

	if err := s.store.InvalidateUnused(ctx, email, purpose); err != nil {
		logger.ErrorWithContext(ctx, "Failed to invalidate prior OTPs").
			String("email", email).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	code, err := generateNumericCode(s.cfg.Length)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	otp := &model.OTP{
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: s.now().Add(s.cfg.Expiry),
	}

	if err := s.store.Create(ctx, otp); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "OTP issued").
		String("email", email).
		String("purpose", purpose).
		Log()

	return otp, nil
}

// Verify consumes the active code for the address and purpose.
//
// The attempt counter is checked before the code is compared, so a code
// that has already absorbed the maximum number of wrong guesses is dead
// even when the caller finally presents the right digits.
func (s *OTPService) Verify(ctx context.Context, email, purpose, code string) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "VerifyOTP")

	now := s.now()

	otp, err := s.store.FindActive(ctx, email, purpose, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "OTP verification without active code").
				String("email", email).
				Log()
			return apperrors.ErrInvalidOTP
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if otp.Attempts >= s.cfg.MaxAttempts {
		// Exhausted codes are consumed so they cannot be retried
		if _, err := s.store.MarkUsed(ctx, otp.ID); err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
		logger.WarnWithContext(ctx, "OTP attempts exhausted").
			String("email", email).
			Int("attempts", otp.Attempts).
			Log()
		return apperrors.ErrMaxAttemptsExceeded
	}

	if strings.TrimSpace(code) != otp.Code {
		if err := s.store.IncrementAttempts(ctx, otp.ID); err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
		return apperrors.ErrInvalidOTP
	}

	consumed, err := s.store.MarkUsed(ctx, otp.ID)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !consumed {
		// Lost the race against a concurrent verification
		return apperrors.ErrInvalidOTP
	}

	logger.InfoWithContext(ctx, "OTP verified").
		String("email", email).
		String("purpose", purpose).
		Log()

	return nil
}

// HasValid reports whether an unused, unexpired code is outstanding for
// the address and purpose. Read-only; never a substitute for Verify.
func (s *OTPService) HasValid(ctx context.Context, email, purpose string) (bool, error) {
	_, err := s.store.FindActive(ctx, email, purpose, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return true, nil
}

// CleanupExpired purges codes past expiry plus a grace period
func (s *OTPService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now(), 24*time.Hour)
}

// generateNumericCode returns a zero-padded random decimal code
func generateNumericCode(length int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
