package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches two domain errors by code, so wrapped copies still compare
// equal to the predeclared sentinels under errors.Is.
func (e *DomainError) Is(target error) bool {
	var domainErr *DomainError
	if errors.As(target, &domainErr) {
		return e.Code == domainErr.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Predefined domain errors
var (
	// Registration / account errors
	ErrEmailExists     = NewDomainError("EMAIL_EXISTS", "email already registered")
	ErrUsernameExists  = NewDomainError("USERNAME_EXISTS", "username already taken")
	ErrUserNotFound    = NewDomainError("USER_NOT_FOUND", "user not found")
	ErrAlreadyVerified = NewDomainError("EMAIL_ALREADY_VERIFIED", "email already verified")

	// Authentication errors. InvalidCredentials deliberately covers both an
	// unknown username and a wrong password.
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "invalid credentials")
	ErrEmailNotVerified   = NewDomainError("EMAIL_NOT_VERIFIED", "please verify your email address first")
	ErrAccountInactive    = NewDomainError("ACCOUNT_INACTIVE", "account is inactive, please contact administrator")
	ErrUnauthorized       = NewDomainError("UNAUTHORIZED", "unauthorized")
	ErrForbidden          = NewDomainError("FORBIDDEN", "insufficient permissions")

	// One-time code errors. InvalidOTP covers wrong, expired and already
	// used codes so callers cannot probe which one it was.
	ErrInvalidOTP          = NewDomainError("INVALID_OTP", "invalid or expired OTP")
	ErrMaxAttemptsExceeded = NewDomainError("MAX_ATTEMPTS_EXCEEDED", "maximum verification attempts exceeded")

	// Refresh token errors, distinguished per rotation state machine
	ErrInvalidFormat       = NewDomainError("INVALID_FORMAT", "invalid session format")
	ErrInvalidRefreshToken = NewDomainError("INVALID_REFRESH_TOKEN", "invalid refresh token")
	ErrTokenRevoked        = NewDomainError("TOKEN_REVOKED", "session has been terminated")
	ErrTokenExpired        = NewDomainError("TOKEN_EXPIRED", "session has expired")
	ErrUserInactive        = NewDomainError("USER_INACTIVE", "user account is inactive")

	// Access token errors
	ErrInvalidToken = NewDomainError("INVALID_TOKEN", "invalid token")

	// Password errors
	ErrInvalidResetToken = NewDomainError("INVALID_RESET_TOKEN", "invalid or expired reset token")
	ErrIncorrectPassword = NewDomainError("INCORRECT_PASSWORD", "current password is incorrect")
	ErrPasswordReused    = NewDomainError("PASSWORD_REUSED", "new password must be different from the current password")

	// Validation and system errors
	ErrValidationFailed   = NewDomainError("VALIDATION_FAILED", "validation failed")
	ErrInternal           = NewDomainError("INTERNAL_ERROR", "internal server error")
	ErrServiceUnavailable = NewDomainError("SERVICE_UNAVAILABLE", "service unavailable")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes.
// This should only be used in the handler/presentation layer.
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case "VALIDATION_FAILED", "INVALID_OTP", "MAX_ATTEMPTS_EXCEEDED",
		"EMAIL_ALREADY_VERIFIED", "INVALID_RESET_TOKEN",
		"INCORRECT_PASSWORD", "PASSWORD_REUSED":
		return http.StatusBadRequest

	// 401 Unauthorized
	case "UNAUTHORIZED", "INVALID_CREDENTIALS", "INVALID_TOKEN",
		"INVALID_FORMAT", "INVALID_REFRESH_TOKEN", "TOKEN_REVOKED",
		"TOKEN_EXPIRED":
		return http.StatusUnauthorized

	// 403 Forbidden
	case "FORBIDDEN", "EMAIL_NOT_VERIFIED", "ACCOUNT_INACTIVE", "USER_INACTIVE":
		return http.StatusForbidden

	// 404 Not Found
	case "USER_NOT_FOUND":
		return http.StatusNotFound

	// 409 Conflict
	case "EMAIL_EXISTS", "USERNAME_EXISTS":
		return http.StatusConflict

	// 503 Service Unavailable
	case "SERVICE_UNAVAILABLE":
		return http.StatusServiceUnavailable

	// 500 Internal Server Error (default)
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}
