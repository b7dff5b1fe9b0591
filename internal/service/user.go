package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/edwardnovrizal/api-panel/internal/dto"
	apperrors "github.com/edwardnovrizal/api-panel/internal/errors"
	"github.com/edwardnovrizal/api-panel/internal/model"
	ctxutil "github.com/edwardnovrizal/api-panel/pkg/context"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
)

// profileStore is the slice of the user store profile flows need
type profileStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	UpdateProfile(ctx context.Context, id uint, fullName string) error
	SetActive(ctx context.Context, id uint, active bool) error
	List(ctx context.Context, limit, offset int, search string) ([]model.User, int64, error)
}

type UserService struct {
	users    profileStore
	sessions *RefreshTokenService
}

func NewUserService(users profileStore, sessions *RefreshTokenService) *UserService {
	return &UserService{users: users, sessions: sessions}
}

func (s *UserService) Profile(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	resp := dto.ToUserResponse(user)
	return &resp, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdateProfile")

	if req.FullName != "" {
		if err := s.users.UpdateProfile(ctx, userID, req.FullName); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrUserNotFound
			}
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}

	return s.Profile(ctx, userID)
}

// List returns a page of users for administrative views
func (s *UserService) List(ctx context.Context, limit, offset int, search string) ([]dto.UserResponse, int64, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ListUsers")

	users, total, err := s.users.List(ctx, limit, offset, search)
	if err != nil {
		return nil, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, dto.ToUserResponse(&users[i]))
	}
	return responses, total, nil
}

// ToggleActive flips an account's active flag. Deactivation revokes
// every open session so the account is locked out immediately.
func (s *UserService) ToggleActive(ctx context.Context, userID uint, active bool) (*dto.UserResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ToggleActive")

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	user.IsActive = active

	if !active {
		revoked, err := s.sessions.RevokeAll(ctx, userID, model.RevokedByAdmin)
		if err != nil {
			return nil, err
		}
		logger.InfoWithContext(ctx, "Account deactivated").
			Uint("user_id", userID).
			Int64("sessions_revoked", revoked).
			Log()
	} else {
		logger.InfoWithContext(ctx, "Account activated").
			Uint("user_id", userID).
			Log()
	}

	resp := dto.ToUserResponse(user)
	return &resp, nil
}
