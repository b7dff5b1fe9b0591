package service

import (
	"context"
	"time"

	"github.com/edwardnovrizal/api-panel/pkg/logger"
)

// CleanupService periodically purges expired OTPs, reset tokens and
// refresh tokens. The sweep is advisory housekeeping; every read path
// checks expiry itself, so a delayed or missed sweep never changes
// observable behavior.
type CleanupService struct {
	otp      *OTPService
	sessions *RefreshTokenService
	resets   *PasswordResetService
	period   time.Duration
}

func NewCleanupService(otp *OTPService, sessions *RefreshTokenService, resets *PasswordResetService, period time.Duration) *CleanupService {
	return &CleanupService{
		otp:      otp,
		sessions: sessions,
		resets:   resets,
		period:   period,
	}
}

// Start runs the sweep loop until the context is cancelled
func (s *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	logger.GetLogger().Info("Token cleanup sweeper started")

	for {
		select {
		case <-ctx.Done():
			logger.GetLogger().Info("Token cleanup sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *CleanupService) sweep(ctx context.Context) {
	otps, err := s.otp.CleanupExpired(ctx)
	if err != nil {
		logger.ErrorWithContext(ctx, "OTP sweep failed").Err(err).Log()
	}

	resets, err := s.resets.CleanupExpired(ctx)
	if err != nil {
		logger.ErrorWithContext(ctx, "Reset token sweep failed").Err(err).Log()
	}

	sessions, err := s.sessions.CleanupExpired(ctx)
	if err != nil {
		logger.ErrorWithContext(ctx, "Refresh token sweep failed").Err(err).Log()
	}

	if otps+resets+sessions > 0 {
		logger.InfoWithContext(ctx, "Token sweep completed").
			Int64("otps_purged", otps).
			Int64("reset_tokens_purged", resets).
			Int64("refresh_tokens_purged", sessions).
			Log()
	}
}
