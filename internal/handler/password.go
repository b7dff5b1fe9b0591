package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edwardnovrizal/api-panel/internal/constants"
	"github.com/edwardnovrizal/api-panel/internal/dto"
	apperrors "github.com/edwardnovrizal/api-panel/internal/errors"
	"github.com/edwardnovrizal/api-panel/internal/middleware"
	"github.com/edwardnovrizal/api-panel/internal/service"
)

type PasswordHandler struct {
	resetService *service.PasswordResetService
}

func NewPasswordHandler(resetService *service.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{resetService: resetService}
}

// Forgot handles POST /auth/forgot-password. The response is the same
// whether or not the address has an account.
func (h *PasswordHandler) Forgot(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.resetService.Request(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(
		"If the address is registered, a reset email has been sent"))
}

// VerifyToken handles GET /auth/reset-password/:token
func (h *PasswordHandler) VerifyToken(c *gin.Context) {
	token := c.Param("token")

	if err := h.resetService.VerifyToken(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Reset token is valid"))
}

// Reset handles POST /auth/reset-password
func (h *PasswordHandler) Reset(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.resetService.Reset(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(
		"Password reset successfully, please sign in again"))
}

// Change handles PUT /users/me/password (authenticated)
func (h *PasswordHandler) Change(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.resetService.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Password changed successfully"))
}
