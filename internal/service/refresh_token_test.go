package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/edwardnovrizal/api-panel/config"
	apperrors "github.com/edwardnovrizal/api-panel/internal/errors"
	"github.com/edwardnovrizal/api-panel/internal/model"
)

func newTestSessionService(store *fakeRefreshStore, users *fakeUserStore, singleSession bool) *RefreshTokenService {
	return NewRefreshTokenService(store, users, NewJWTService("test-secret", time.Hour), config.RefreshConfig{
		Expiry:        30 * 24 * time.Hour,
		SingleSession: singleSession,
	})
}

func seedVerifiedUser(users *fakeUserStore) *model.User {
	u := testUser()
	users.setUser(u)
	return u
}

func TestSessionCreateAndRotate(t *testing.T) {
	users := newFakeUserStore()
	store := newFakeRefreshStore()
	svc := newTestSessionService(store, users, false)
	ctx := context.Background()

	user := seedVerifiedUser(users)

	session, err := svc.Create(ctx, user, DeviceInfo{UserAgent: "test", IPAddress: "1.2.3.4", DeviceType: DeviceDesktop})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if len(session.Token) != refreshTokenBytes*2 {
		t.Errorf("Expected %d-char token, got %d", refreshTokenBytes*2, len(session.Token))
	}

	rotatedUser, resp, err := svc.Rotate(ctx, session.Token)
	if err != nil {
		t.Fatalf("Rotate returned error: %v", err)
	}
	if rotatedUser.ID != user.ID {
		t.Errorf("Expected user %d, got %d", user.ID, rotatedUser.ID)
	}
	if resp.AccessToken == "" {
		t.Error("Expected a fresh access token")
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("Expected token type Bearer, got %s", resp.TokenType)
	}

	if store.get(session.ID).LastUsedAt == nil {
		t.Error("Expected rotation to record last use")
	}

	// Rotation advances last use only; the expiry set at creation stands
	if !store.get(session.ID).ExpiresAt.Equal(session.ExpiresAt) {
		t.Errorf("Expected expiry %v to stand after rotate, got %v", session.ExpiresAt, store.get(session.ID).ExpiresAt)
	}
}

func TestSessionRotateChecksFormatFirst(t *testing.T) {
	users := newFakeUserStore()
	store := newFakeRefreshStore()
	svc := newTestSessionService(store, users, false)
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"too short", "abcdef"},
		{"not hex", strings.Repeat("z", refreshTokenBytes*2)},
		{"too long", strings.Repeat("ab", refreshTokenBytes+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Rotate(ctx, tt.token)
			if !errors.Is(err, apperrors.ErrInvalidFormat) {
				t.Errorf("Expected ErrInvalidFormat, got %v", err)
			}
		})
	}
}

func TestSessionRotateUnknownToken(t *testing.T) {
	users := newFakeUserStore()
	store := newFakeRefreshStore()
	svc := newTestSessionService(store, users, false)
	ctx := context.Background()

	// Well-formed but never issued
	_, _, err := svc.Rotate(ctx, strings.Repeat("ab", refreshTokenBytes))
	if !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		t.Errorf("Expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestSessionRotateRevokedToken(t *testing.T) {
	users := newFakeUserStore()
	store := newFakeRefreshStore()
	svc := newTestSessionService(store, users, false)
	ctx := context.Background()

	user := seedVerifiedUser(users)
	session, err := svc.Create(ctx, user, DeviceInfo{})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Revoke(ctx, session.Token, model.RevokedByUser); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	// A revoked token never rotates again
	for i := 0; i < 2; i++ {
		_, _, err := svc.Rotate(ctx, session.Token)
		if !errors.Is(err, apperrors.ErrTokenRevoked) {
			t.Fatalf("rotation %d: expected ErrTokenRevoked, got %v", i+1, err)
		}
	}

	if got := store.get(session.ID).RevokedBy; got != model.RevokedByUser {
		t.Errorf("Expected revoked_by %q, got %q", model.RevokedByUser, got)
	}
}

func TestSessionRotateExpiredToken(t *testing.T) {
	users := newFakeUserStore()
	store := newFakeRefreshStore()
	svc := newTestSessionService(store, users, false)
	ctx := context.Background()

	user := seedVerifiedUser(users)
	session, err := svc.Create(ctx, user, DeviceInfo{})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	store.setExpiry(session.ID, time.Now().UTC().Add(-time.Hour))

	_, _, err = svc.Rotate(ctx, session.Token)
	if !errors.Is(err, apperrors.ErrTokenExpired) {
		t.Errorf("Expected ErrTokenExpired, got %v", err)
	}

	// Expiry and revocation stay distinct states
	if stored := store.get(session.ID); !stored.IsActive {
		t.Error("Expected expired token to remain unrevoked")
	}
}

func TestSessionRotateInactiveUserRevokesToken(t *testing.T) {
	users := newFakeUserStore()
	store := newFakeRefreshStore()
	svc := newTestSessionService(store, users, false)
	ctx := context.Background()

	user := seedVerifiedUser(users)
	session, err := svc.Create(ctx, user, DeviceInfo{})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := users.SetActive(ctx, user.ID, false); err != nil {
		t.Fatalf("SetActive returned error: %v", err)
	}

	_, _, err = svc.Rotate(ctx, session.Token)
	if !errors.Is(err, apperrors.ErrUserInactive) {
		t.Fatalf("Expected ErrUserInactive, got %v", err)
	}

	stored := store.get(session.ID)
	if stored.IsActive {
		t.Error("Expected the token to be revoked on contact")
	}
	if stored.RevokedBy != model.RevokedBySystem {
		t.Errorf("Expected revoked_by %q, got %q", model.RevokedBySystem, stored.RevokedBy)
	}
}

func TestSessionRotateUnverifiedUserKeepsToken(t *testing.T) {
	users := newFakeUserStore()
	store := newFakeRefreshStore()
	svc := newTestSessionService(store, users, false)
	ctx := context.Background()

	user := seedVerifiedUser(users)
	session, err := svc.Create(ctx, user, DeviceInfo{})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Verification can be withdrawn administratively
	u, _ := users.GetByID(ctx, user.ID)
	u.EmailVerified = false
	users.setUser(u)

	_, _, err = svc.Rotate(ctx, session.Token)
	if !errors.Is(err, apperrors.ErrEmailNotVerified) {
		t.Fatalf("Expected ErrEmailNotVerified, got %v", err)
	}

	if !store.get(session.ID).IsActive {
		t.Error("Expected the token to remain active")
	}
}

func TestSessionSingleSessionModeRevokesPrior(t *testing.T) {
	users := newFakeUserStore()
	store := newFakeRefreshStore()
	svc := newTestSessionService(store, users, true)
	ctx := context.Background()

	user := seedVerifiedUser(users)

	first, err := svc.Create(ctx, user, DeviceInfo{})
	if err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	second, err := svc.Create(ctx, user, DeviceInfo{})
	if err != nil {
		t.Fatalf("second Create returned error: %v", err)
	}

	if store.get(first.ID).IsActive {
		t.Error("Expected the first session to be revoked")
	}
	if !store.get(second.ID).IsActive {
		t.Error("Expected the second session to stay active")
	}
}

func TestSessionRevokeIsIdempotent(t *testing.T) {
	users := newFakeUserStore()
	store := newFakeRefreshStore()
	svc := newTestSessionService(store, users, false)
	ctx := context.Background()

	user := seedVerifiedUser(users)
	session, err := svc.Create(ctx, user, DeviceInfo{})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := svc.Revoke(ctx, session.Token, model.RevokedByUser); err != nil {
			t.Fatalf("revocation %d returned error: %v", i+1, err)
		}
	}

	// Unknown and malformed tokens revoke silently too
	if err := svc.Revoke(ctx, strings.Repeat("cd", refreshTokenBytes), model.RevokedByUser); err != nil {
		t.Errorf("Expected unknown token revocation to succeed, got %v", err)
	}
	if err := svc.Revoke(ctx, "garbage", model.RevokedByUser); err != nil {
		t.Errorf("Expected malformed token revocation to succeed, got %v", err)
	}
}

func TestSessionListMarksCurrent(t *testing.T) {
	users := newFakeUserStore()
	store := newFakeRefreshStore()
	svc := newTestSessionService(store, users, false)
	ctx := context.Background()

	user := seedVerifiedUser(users)

	first, _ := svc.Create(ctx, user, DeviceInfo{DeviceType: DeviceDesktop})
	second, _ := svc.Create(ctx, user, DeviceInfo{DeviceType: DeviceMobile})

	sessions, err := svc.Sessions(ctx, user.ID, second.Token)
	if err != nil {
		t.Fatalf("Sessions returned error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(sessions))
	}

	for _, s := range sessions {
		switch s.ID {
		case first.ID:
			if s.Current {
				t.Error("Expected first session not to be current")
			}
		case second.ID:
			if !s.Current {
				t.Error("Expected second session to be current")
			}
		}
	}
}

func TestSessionRevokeSessionEnforcesOwnership(t *testing.T) {
	users := newFakeUserStore()
	store := newFakeRefreshStore()
	svc := newTestSessionService(store, users, false)
	ctx := context.Background()

	owner := seedVerifiedUser(users)
	other := testUser()
	other.Username = "other"
	other.Email = "other@example.com"
	users.setUser(other)

	session, err := svc.Create(ctx, owner, DeviceInfo{})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.RevokeSession(ctx, other.ID, session.ID); !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		t.Errorf("Expected foreign revocation to fail, got %v", err)
	}
	if !store.get(session.ID).IsActive {
		t.Fatal("Expected session to survive foreign revocation")
	}

	if err := svc.RevokeSession(ctx, owner.ID, session.ID); err != nil {
		t.Fatalf("Owner revocation returned error: %v", err)
	}
	if store.get(session.ID).IsActive {
		t.Error("Expected session to be revoked by its owner")
	}
}
