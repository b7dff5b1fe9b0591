package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edwardnovrizal/api-panel/config"
	"github.com/edwardnovrizal/api-panel/internal/constants"
	"github.com/edwardnovrizal/api-panel/internal/dto"
	apperrors "github.com/edwardnovrizal/api-panel/internal/errors"
	"github.com/edwardnovrizal/api-panel/internal/middleware"
	"github.com/edwardnovrizal/api-panel/internal/service"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
)

type AuthHandler struct {
	authService *service.AuthService
	sessions    *service.RefreshTokenService
	cookieAge   int
	secure      bool
}

func NewAuthHandler(authService *service.AuthService, sessions *service.RefreshTokenService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		cookieAge:   int(cfg.Refresh.CookieMaxAge.Seconds()),
		secure:      cfg.App.Environment == constants.EnvProduction,
	}
}

// setRefreshCookie attaches the opaque session token to the response.
// httpOnly and SameSite=Strict keep it away from scripts and
// cross-site requests; path scoping keeps it off unrelated endpoints.
func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(constants.RefreshCookieName, token, h.cookieAge,
		constants.RefreshCookiePath, "", h.secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(constants.RefreshCookieName, "", -1,
		constants.RefreshCookiePath, "", h.secure, true)
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, constants.BuildDataResponse(
		"Registration successful, please check your email for the verification code", resp))
}

// VerifyEmail handles POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := h.authService.VerifyEmail(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Email verified successfully", user))
}

// ResendOTP handles POST /auth/resend-otp
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req dto.ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	sent, err := h.authService.ResendOTP(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Verification code issued", gin.H{
		"email_sent": sent,
	}))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	device := service.ParseDeviceInfo(c.Request.UserAgent(), c.ClientIP())

	resp, session, err := h.authService.Login(c.Request.Context(), &req, device)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, session.Token)
	c.JSON(http.StatusOK, constants.BuildDataResponse("Login successful", resp))
}

// Refresh handles POST /auth/refresh. The refresh token travels only in
// the cookie; any rotation failure clears it so a dead session does not
// keep bouncing off the endpoint.
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, err := c.Cookie(constants.RefreshCookieName)
	if err != nil || raw == "" {
		h.clearRefreshCookie(c)
		respondError(c, apperrors.ErrInvalidRefreshToken)
		return
	}

	_, resp, err := h.sessions.Rotate(c.Request.Context(), raw)
	if err != nil {
		h.clearRefreshCookie(c)
		respondError(c, err)
		return
	}

	// Sliding cookie: re-set so the browser keeps it for another window
	h.setRefreshCookie(c, raw)
	c.JSON(http.StatusOK, constants.BuildDataResponse("Token refreshed", resp))
}

// Logout handles POST /auth/logout. Always succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	raw, _ := c.Cookie(constants.RefreshCookieName)

	if err := h.authService.Logout(c.Request.Context(), raw); err != nil {
		// Logout still succeeds from the client's point of view
		logger.WarnWithContext(c.Request.Context(), "Logout revocation failed").
			Err(err).
			Log()
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Logged out"))
}

// LogoutAll handles POST /auth/logout-all (authenticated)
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	revoked, err := h.authService.LogoutAll(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, constants.BuildDataResponse("All sessions terminated", gin.H{
		"sessions_revoked": revoked,
	}))
}

// Sessions handles GET /auth/sessions (authenticated)
func (h *AuthHandler) Sessions(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	current, _ := c.Cookie(constants.RefreshCookieName)

	sessions, err := h.sessions.Sessions(c.Request.Context(), userID, current)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Active sessions", sessions))
}

// RevokeSession handles DELETE /auth/sessions/:id (authenticated)
func (h *AuthHandler) RevokeSession(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	sessionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid session ID", nil))
		return
	}

	if err := h.sessions.RevokeSession(c.Request.Context(), userID, uint(sessionID)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Session terminated"))
}
