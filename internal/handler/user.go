package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edwardnovrizal/api-panel/internal/constants"
	"github.com/edwardnovrizal/api-panel/internal/dto"
	apperrors "github.com/edwardnovrizal/api-panel/internal/errors"
	"github.com/edwardnovrizal/api-panel/internal/middleware"
	"github.com/edwardnovrizal/api-panel/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Profile handles GET /users/me
func (h *UserHandler) Profile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.userService.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Profile", user))
}

// UpdateProfile handles PUT /users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Profile updated", user))
}

// List handles GET /users (admin)
func (h *UserHandler) List(c *gin.Context) {
	pagination := constants.ParsePaginationParams(c)

	users, total, err := h.userService.List(c.Request.Context(),
		pagination.Limit, pagination.Offset, pagination.Search)
	if err != nil {
		respondError(c, err)
		return
	}

	pageTotal := int((total + int64(pagination.Limit) - 1) / int64(pagination.Limit))
	c.JSON(http.StatusOK, constants.BuildListResponse(total, pagination.Page, pageTotal, users))
}

// ToggleActive handles PUT /users/:id/active (admin)
func (h *UserHandler) ToggleActive(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid user ID", nil))
		return
	}

	var req dto.ToggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := h.userService.ToggleActive(c.Request.Context(), uint(targetID), *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Account status updated", user))
}
