package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edwardnovrizal/api-panel/internal/constants"
	apperrors "github.com/edwardnovrizal/api-panel/internal/errors"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
)

// respondError writes a domain error as JSON. The error code travels in
// the details so clients can branch without parsing messages.
func respondError(c *gin.Context, err error) {
	status := apperrors.ToHTTPStatus(err)

	var details any
	if de := apperrors.GetDomainError(err); de != nil {
		details = gin.H{"code": de.Code}
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorWithContext(c.Request.Context(), "Request failed").
			StatusCode(status).
			Err(err).
			Log()
	}

	c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), details))
}

// respondValidationError maps binding failures to a 400 with the raw
// validator message as details.
func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest,
		constants.BuildErrorResponse(apperrors.ErrValidationFailed.Message, err.Error()))
}
