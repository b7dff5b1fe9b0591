package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, http.StatusOK},
		{"validation", ErrValidationFailed, http.StatusBadRequest},
		{"invalid otp", ErrInvalidOTP, http.StatusBadRequest},
		{"max attempts", ErrMaxAttemptsExceeded, http.StatusBadRequest},
		{"already verified", ErrAlreadyVerified, http.StatusBadRequest},
		{"invalid reset token", ErrInvalidResetToken, http.StatusBadRequest},
		{"incorrect password", ErrIncorrectPassword, http.StatusBadRequest},
		{"password reused", ErrPasswordReused, http.StatusBadRequest},
		{"invalid credentials", ErrInvalidCredentials, http.StatusUnauthorized},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"invalid format", ErrInvalidFormat, http.StatusUnauthorized},
		{"invalid refresh token", ErrInvalidRefreshToken, http.StatusUnauthorized},
		{"token revoked", ErrTokenRevoked, http.StatusUnauthorized},
		{"token expired", ErrTokenExpired, http.StatusUnauthorized},
		{"email not verified", ErrEmailNotVerified, http.StatusForbidden},
		{"account inactive", ErrAccountInactive, http.StatusForbidden},
		{"user inactive", ErrUserInactive, http.StatusForbidden},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"user not found", ErrUserNotFound, http.StatusNotFound},
		{"email exists", ErrEmailExists, http.StatusConflict},
		{"username exists", ErrUsernameExists, http.StatusConflict},
		{"service unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable},
		{"internal", ErrInternal, http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToHTTPStatus(tt.err); got != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWrapErrorPreservesIdentity(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := WrapError(ErrInternal, cause)

	if !errors.Is(wrapped, ErrInternal) {
		t.Error("Expected wrapped error to match its sentinel")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Expected wrapped error to expose its cause")
	}
	if ToHTTPStatus(wrapped) != http.StatusInternalServerError {
		t.Errorf("Expected wrapped error to keep its status, got %d", ToHTTPStatus(wrapped))
	}
}

func TestWrapErrorSurvivesFmtWrapping(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", ErrInvalidCredentials)

	if !errors.Is(wrapped, ErrInvalidCredentials) {
		t.Error("Expected fmt-wrapped error to match its sentinel")
	}
	if ToHTTPStatus(wrapped) != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", ToHTTPStatus(wrapped))
	}
}

func TestGetErrorMessage(t *testing.T) {
	if msg := GetErrorMessage(ErrEmailExists); msg != "email already registered" {
		t.Errorf("Unexpected message: %q", msg)
	}
	if msg := GetErrorMessage(errors.New("raw")); msg != "raw" {
		t.Errorf("Unexpected message: %q", msg)
	}
	if msg := GetErrorMessage(nil); msg != "" {
		t.Errorf("Expected empty message for nil, got %q", msg)
	}
}

func TestDistinctSessionFailureCodes(t *testing.T) {
	// Rotation failures must stay distinguishable by code
	codes := map[string]bool{}
	for _, err := range []*DomainError{ErrInvalidFormat, ErrInvalidRefreshToken, ErrTokenRevoked, ErrTokenExpired, ErrUserInactive} {
		if codes[err.Code] {
			t.Errorf("Duplicate code %s", err.Code)
		}
		codes[err.Code] = true
	}
}
