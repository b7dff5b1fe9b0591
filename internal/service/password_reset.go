package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/edwardnovrizal/api-panel/config"
	"github.com/edwardnovrizal/api-panel/internal/dto"
	apperrors "github.com/edwardnovrizal/api-panel/internal/errors"
	"github.com/edwardnovrizal/api-panel/internal/model"
	ctxutil "github.com/edwardnovrizal/api-panel/pkg/context"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
)

// resetTokenBytes of entropy; the wire form is its hex encoding
const resetTokenBytes = 32

// ResetTokenStore is the persistence surface password reset needs
type ResetTokenStore interface {
	Create(ctx context.Context, token *model.ResetToken) error
	InvalidatePrior(ctx context.Context, email string) error
	FindValid(ctx context.Context, token string, now time.Time) (*model.ResetToken, error)
	MarkUsed(ctx context.Context, id uint) (bool, error)
	DeleteExpiredOrUsed(ctx context.Context, now time.Time) (int64, error)
}

// passwordUserStore is the slice of the user store reset flows need
type passwordUserStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id uint, hashedPassword string) error
}

type PasswordResetService struct {
	users      passwordUserStore
	store      ResetTokenStore
	sessions   *RefreshTokenService
	mailer     Mailer
	expiry     time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewPasswordResetService(users passwordUserStore, store ResetTokenStore, sessions *RefreshTokenService, mailer Mailer, cfg *config.Config) *PasswordResetService {
	return &PasswordResetService{
		users:      users,
		store:      store,
		sessions:   sessions,
		mailer:     mailer,
		expiry:     cfg.Reset.Expiry,
		bcryptCost: cfg.App.BcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Request starts a password reset. The outcome is identical whether or
// not the address has an account, so the endpoint cannot be used to
// enumerate users. A token is only minted for existing active accounts.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RequestPasswordReset")

	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.InfoWithContext(ctx, "Password reset for unknown address").Log()
			return nil
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !user.IsActive {
		logger.InfoWithContext(ctx, "Password reset for inactive account").
			Uint("user_id", user.ID).
			Log()
		return nil
	}

	if err := s.store.InvalidatePrior(ctx, email); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	raw, err := generateResetToken()
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	token := &model.ResetToken{
		Email:     email,
		Token:     raw,
		ExpiresAt: s.now().Add(s.expiry),
	}

	if err := s.store.Create(ctx, token); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.mailer.SendPasswordResetEmail(email, raw); err != nil {
		logger.WarnWithContext(ctx, "Reset email delivery failed").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	}

	logger.InfoWithContext(ctx, "Password reset requested").
		Uint("user_id", user.ID).
		Log()

	return nil
}

// VerifyToken checks a token without consuming it, so clients can
// validate before showing the new-password form.
func (s *PasswordResetService) VerifyToken(ctx context.Context, rawToken string) error {
	_, err := s.store.FindValid(ctx, rawToken, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidResetToken
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return nil
}

// Reset redeems a token and sets the new password. The token is
// consumed before the password changes, so a raced second redemption
// fails even if the first one later errors.
func (s *PasswordResetService) Reset(ctx context.Context, req *dto.ResetPasswordRequest) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ResetPassword")

	now := s.now()

	token, err := s.store.FindValid(ctx, req.Token, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidResetToken
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user, err := s.users.GetByEmail(ctx, token.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidResetToken
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	consumed, err := s.store.MarkUsed(ctx, token.ID)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !consumed {
		return apperrors.ErrInvalidResetToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	// A reset invalidates every open session
	revoked, err := s.sessions.RevokeAll(ctx, user.ID, model.RevokedBySystem)
	if err != nil {
		return err
	}

	go func(email, name string) {
		if err := s.mailer.SendPasswordResetConfirmation(email, name); err != nil {
			logger.GetLogger().Warn("Reset confirmation delivery failed")
		}
	}(user.Email, user.FullName)

	logger.InfoWithContext(ctx, "Password reset completed").
		Uint("user_id", user.ID).
		Int64("sessions_revoked", revoked).
		Log()

	return nil
}

// ChangePassword updates the password of an authenticated user after
// verifying the current one. Reusing the current password is rejected.
func (s *PasswordResetService) ChangePassword(ctx context.Context, userID uint, req *dto.ChangePasswordRequest) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ChangePassword")

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return apperrors.ErrIncorrectPassword
	}

	if req.NewPassword == req.CurrentPassword {
		return apperrors.ErrPasswordReused
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Password changed").
		Uint("user_id", user.ID).
		Log()

	return nil
}

// CleanupExpired purges tokens no longer redeemable
func (s *PasswordResetService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredOrUsed(ctx, s.now())
}

func generateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
