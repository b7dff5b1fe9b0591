package service

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/edwardnovrizal/api-panel/internal/errors"
	"github.com/edwardnovrizal/api-panel/internal/model"
)

func testUser() *model.User {
	return &model.User{
		Username:      "jdoe",
		FullName:      "John Doe",
		Email:         "jdoe@example.com",
		Role:          model.RoleUser,
		IsActive:      true,
		EmailVerified: true,
	}
}

func TestJWTIssueAndVerify(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	user := testUser()
	user.ID = 42

	token, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("Expected user ID 42, got %d", claims.UserID)
	}
	if claims.Username != "jdoe" {
		t.Errorf("Expected username jdoe, got %s", claims.Username)
	}
	if claims.Role != model.RoleUser {
		t.Errorf("Expected role %s, got %s", model.RoleUser, claims.Role)
	}
}

func TestJWTVerifyExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)

	user := testUser()
	user.ID = 1

	token, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	_, err = svc.Verify(token)
	if !errors.Is(err, apperrors.ErrTokenExpired) {
		t.Errorf("Expected ErrTokenExpired, got %v", err)
	}
}

func TestJWTVerifyRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a jwt", "not-a-token"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			if !errors.Is(err, apperrors.ErrInvalidToken) {
				t.Errorf("Expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestJWTVerifyWrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a", time.Hour)
	verifier := NewJWTService("secret-b", time.Hour)

	user := testUser()
	user.ID = 7

	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for wrong secret, got %v", err)
	}
}
