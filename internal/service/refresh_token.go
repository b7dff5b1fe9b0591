package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/edwardnovrizal/api-panel/config"
	"github.com/edwardnovrizal/api-panel/internal/dto"
	apperrors "github.com/edwardnovrizal/api-panel/internal/errors"
	"github.com/edwardnovrizal/api-panel/internal/model"
	ctxutil "github.com/edwardnovrizal/api-panel/pkg/context"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
)

// refreshTokenBytes of entropy; the wire form is its hex encoding
const refreshTokenBytes = 40

// RefreshTokenStore is the persistence surface the session service needs
type RefreshTokenStore interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	FindActiveByUser(ctx context.Context, userID uint, now time.Time) ([]model.RefreshToken, error)
	Revoke(ctx context.Context, id uint, revokedBy string) error
	RevokeAllForUser(ctx context.Context, userID uint, revokedBy string) (int64, error)
	UpdateLastUsed(ctx context.Context, id uint, at time.Time) error
	DeleteExpired(ctx context.Context, now time.Time, revokedRetention time.Duration) (int64, error)
}

// userGetter is the slice of the user store rotation needs
type userGetter interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

type RefreshTokenService struct {
	store RefreshTokenStore
	users userGetter
	jwt   *JWTService
	cfg   config.RefreshConfig
	now   func() time.Time
}

func NewRefreshTokenService(store RefreshTokenStore, users userGetter, jwt *JWTService, cfg config.RefreshConfig) *RefreshTokenService {
	return &RefreshTokenService{
		store: store,
		users: users,
		jwt:   jwt,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a new session for the user and returns the opaque token.
// With single-session mode enabled, all prior sessions are revoked first.
func (s *RefreshTokenService) Create(ctx context.Context, user *model.User, device DeviceInfo) (*model.RefreshToken, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "CreateSession")

	if s.cfg.SingleSession {
		if _, err := s.store.RevokeAllForUser(ctx, user.ID, model.RevokedBySystem); err != nil {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}

	raw, err := generateOpaqueToken()
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	token := &model.RefreshToken{
		UserID:     user.ID,
		Token:      raw,
		ExpiresAt:  s.now().Add(s.cfg.Expiry),
		IsActive:   true,
		UserAgent:  device.UserAgent,
		IPAddress:  device.IPAddress,
		DeviceType: device.DeviceType,
	}

	if err := s.store.Create(ctx, token); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Session created").
		Uint("user_id", user.ID).
		String("device_type", device.DeviceType).
		Log()

	return token, nil
}

// Rotate exchanges a refresh token for a fresh access token. The checks
// run in a fixed order so each failure mode has a distinct code:
// format, existence, revocation, expiry, then user state.
// The refresh token string itself is not rotated; the session record is
// touched and the same opaque token keeps working until revoked or
// expired.
func (s *RefreshTokenService) Rotate(ctx context.Context, rawToken string) (*model.User, *dto.RefreshResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RotateSession")

	if !validTokenFormat(rawToken) {
		return nil, nil, apperrors.ErrInvalidFormat
	}

	token, err := s.store.FindByToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Unknown refresh token presented").Log()
			return nil, nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !token.IsActive {
		logger.WarnWithContext(ctx, "Revoked refresh token presented").
			Uint("user_id", token.UserID).
			String("revoked_by", token.RevokedBy).
			Log()
		return nil, nil, apperrors.ErrTokenRevoked
	}

	now := s.now()
	if token.Expired(now) {
		return nil, nil, apperrors.ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrUserNotFound
		}
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !user.IsActive {
		// Deactivated accounts lose their sessions on first contact
		if err := s.store.Revoke(ctx, token.ID, model.RevokedBySystem); err != nil {
			return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
		logger.WarnWithContext(ctx, "Session revoked for inactive user").
			Uint("user_id", user.ID).
			Log()
		return nil, nil, apperrors.ErrUserInactive
	}

	if !user.EmailVerified {
		return nil, nil, apperrors.ErrEmailNotVerified
	}

	if err := s.store.UpdateLastUsed(ctx, token.ID, now); err != nil {
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	accessToken, err := s.jwt.Issue(user)
	if err != nil {
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return user, &dto.RefreshResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwt.Expiry().Seconds()),
	}, nil
}

// Revoke terminates the session behind a raw token. Unknown and already
// revoked tokens are silently ignored so logout always succeeds.
func (s *RefreshTokenService) Revoke(ctx context.Context, rawToken, revokedBy string) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RevokeSession")

	if !validTokenFormat(rawToken) {
		return nil
	}

	token, err := s.store.FindByToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.store.Revoke(ctx, token.ID, revokedBy); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return nil
}

// RevokeAll terminates every active session of a user
func (s *RefreshTokenService) RevokeAll(ctx context.Context, userID uint, revokedBy string) (int64, error) {
	count, err := s.store.RevokeAllForUser(ctx, userID, revokedBy)
	if err != nil {
		return 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return count, nil
}

// Sessions lists the user's active sessions, marking the one matching
// the presented refresh token as current.
func (s *RefreshTokenService) Sessions(ctx context.Context, userID uint, currentToken string) ([]dto.SessionResponse, error) {
	tokens, err := s.store.FindActiveByUser(ctx, userID, s.now())
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	sessions := make([]dto.SessionResponse, 0, len(tokens))
	for i := range tokens {
		t := &tokens[i]
		sessions = append(sessions, dto.SessionResponse{
			ID:         t.ID,
			UserAgent:  t.UserAgent,
			IPAddress:  t.IPAddress,
			DeviceType: t.DeviceType,
			CreatedAt:  t.CreatedAt,
			LastUsedAt: t.LastUsedAt,
			ExpiresAt:  t.ExpiresAt,
			Current:    currentToken != "" && t.Token == currentToken,
		})
	}
	return sessions, nil
}

// RevokeSession terminates one session by ID, enforcing ownership
func (s *RefreshTokenService) RevokeSession(ctx context.Context, userID, sessionID uint) error {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RevokeSessionByID")

	tokens, err := s.store.FindActiveByUser(ctx, userID, s.now())
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	for i := range tokens {
		if tokens[i].ID == sessionID {
			if err := s.store.Revoke(ctx, sessionID, model.RevokedByUser); err != nil {
				return apperrors.WrapError(apperrors.ErrInternal, err)
			}
			return nil
		}
	}

	return apperrors.ErrInvalidRefreshToken
}

// CleanupExpired purges expired tokens and long-revoked ones
func (s *RefreshTokenService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now(), 7*24*time.Hour)
}

func generateOpaqueToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// validTokenFormat rejects anything that is not the hex encoding of
// exactly refreshTokenBytes random bytes.
func validTokenFormat(token string) bool {
	if len(token) != refreshTokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
