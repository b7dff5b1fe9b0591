package service

import (
	"context"
	"errors"
	"strings"
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

// UserStore is the persistence surface the auth flows need
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	SetEmailVerified(ctx context.Context, id uint) error
}

type AuthService struct {
	users      UserStore
	otp        *OTPService
	sessions   *RefreshTokenService
	jwt        *JWTService
	mailer     Mailer
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(users UserStore, otp *OTPService, sessions *RefreshTokenService, jwt *JWTService, mailer Mailer, cfg *config.Config) *AuthService {
	return &AuthService{
		users:      users,
		otp:        otp,
		sessions:   sessions,
		jwt:        jwt,
		mailer:     mailer,
		bcryptCost: cfg.App.BcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// normalizeEmail lowers and trims an address so lookups, the unique
// index and token ownership all agree on one canonical form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and emails a verification
// code. Delivery failure does not fail registration; the response
// carries an email_sent flag instead.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Register")

	logger.InfoWithContext(ctx, "Registration attempt").
		String("username", req.Username).
		Log()

	email := normalizeEmail(req.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperrors.ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Username: req.Username,
		FullName: req.FullName,
		Email:    email,
		Password: string(hashed),
		Role:     model.RoleUser,
		IsActive: true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can slip past the pre-checks; the
		// unique indexes are the source of truth.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.classifyDuplicate(ctx, email, req.Username)
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	otp, err := s.otp.Issue(ctx, user.Email, model.PurposeEmailVerification)
	if err != nil {
		return nil, err
	}

	emailSent := true
	if err := s.mailer.SendOTPEmail(user.Email, user.FullName, otp.Code); err != nil {
		emailSent = false
		logger.WarnWithContext(ctx, "Verification email delivery failed").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	}

	logger.InfoWithContext(ctx, "User registered").
		Uint("user_id", user.ID).
		String("username", user.Username).
		Bool("email_sent", emailSent).
		Log()

	return &dto.RegisterResponse{
		User:      dto.ToUserResponse(user),
		EmailSent: emailSent,
	}, nil
}

// classifyDuplicate decides which unique constraint fired
func (s *AuthService) classifyDuplicate(ctx context.Context, email, username string) error {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return apperrors.ErrEmailExists
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return apperrors.ErrUsernameExists
	}
	return apperrors.ErrInternal
}

// VerifyEmail redeems a verification code and marks the account verified
func (s *AuthService) VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) (*dto.UserResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "VerifyEmail")

	email := normalizeEmail(req.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if user.EmailVerified {
		return nil, apperrors.ErrAlreadyVerified
	}

	if err := s.otp.Verify(ctx, email, model.PurposeEmailVerification, req.Code); err != nil {
		return nil, err
	}

	if err := s.users.SetEmailVerified(ctx, user.ID); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	user.EmailVerified = true

	// Welcome email is fire-and-forget
	go func(email, name string) {
		if err := s.mailer.SendWelcomeEmail(email, name); err != nil {
			logger.GetLogger().Warn("Welcome email delivery failed")
		}
	}(user.Email, user.FullName)

	logger.InfoWithContext(ctx, "Email verified").
		Uint("user_id", user.ID).
		Log()

	resp := dto.ToUserResponse(user)
	return &resp, nil
}

// ResendOTP issues a fresh verification code, invalidating prior ones
func (s *AuthService) ResendOTP(ctx context.Context, email string) (bool, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ResendOTP")

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.ErrUserNotFound
		}
		return false, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if user.EmailVerified {
		return false, apperrors.ErrAlreadyVerified
	}

	if outstanding, err := s.otp.HasValid(ctx, user.Email, model.PurposeEmailVerification); err == nil && outstanding {
		logger.InfoWithContext(ctx, "Superseding outstanding verification code").
			Uint("user_id", user.ID).
			Log()
	}

	otp, err := s.otp.Issue(ctx, user.Email, model.PurposeEmailVerification)
	if err != nil {
		return false, err
	}

	if err := s.mailer.SendOTPEmail(user.Email, user.FullName, otp.Code); err != nil {
		logger.WarnWithContext(ctx, "Verification email delivery failed").
			Uint("user_id", user.ID).
			Err(err).
			Log()
		return false, nil
	}

	return true, nil
}

// Login checks credentials and opens a session. Unknown usernames and
// wrong passwords produce the identical error so callers cannot probe
// which accounts exist.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, device DeviceInfo) (*dto.LoginResponse, *model.RefreshToken, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Login")

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Login failed").
				String("username", req.Username).
				String("reason", "unknown_username").
				Log()
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.WarnWithContext(ctx, "Login failed").
			String("username", req.Username).
			String("reason", "wrong_password").
			Log()
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, nil, apperrors.ErrEmailNotVerified
	}

	if !user.IsActive {
		return nil, nil, apperrors.ErrAccountInactive
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.WarnWithContext(ctx, "Failed to record last login").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	}
	user.LastLogin = &now

	accessToken, err := s.jwt.Issue(user)
	if err != nil {
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	session, err := s.sessions.Create(ctx, user, device)
	if err != nil {
		return nil, nil, err
	}

	logger.InfoWithContext(ctx, "Login succeeded").
		Uint("user_id", user.ID).
		String("username", user.Username).
		Log()

	return &dto.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwt.Expiry().Seconds()),
		User:        dto.ToUserResponse(user),
	}, session, nil
}

// Logout terminates the session behind the token. Missing, malformed
// and already revoked tokens all succeed; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, rawToken, model.RevokedByUser)
}

// LogoutAll terminates every session of the user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) (int64, error) {
	return s.sessions.RevokeAll(ctx, userID, model.RevokedByUser)
}
