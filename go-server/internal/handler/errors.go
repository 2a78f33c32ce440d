package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fonsecaaso/tinylinks/go-server/internal/middleware"
	"github.com/fonsecaaso/tinylinks/go-server/internal/repository"
	"github.com/fonsecaaso/tinylinks/go-server/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// handleError maps store failures onto responses. Anonymous callers get 403 and
// authenticated non-owners get 401.
func handleError(c *gin.Context, logger *zap.Logger, err error) {
	_ = c.Error(err)
	logger = logger.With(zap.String("request_id", middleware.RequestID(c)))

	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error: "Login required",
			Code:  "UNAUTHORIZED",
		})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "This link belongs to another user",
			Code:  "FORBIDDEN",
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Not found",
			Code:  "NOT_FOUND",
		})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid input",
			Code:    "INVALID_INPUT",
			Details: err.Error(),
		})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Email already registered",
			Code:  "EMAIL_EXISTS",
		})
	case errors.Is(err, service.ErrInvalidCredential):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error: "Invalid email or password",
			Code:  "INVALID_CREDENTIALS",
		})
	case errors.Is(err, service.ErrIDGenerationMax):
		logger.Error("ID generation max attempts reached", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Service temporarily unavailable",
			Code:  "INTERNAL_ERROR",
		})
	case errors.Is(err, repository.ErrDatabaseError):
		logger.Error("Database error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Database error",
			Code:  "INTERNAL_ERROR",
		})
	default:
		logger.Error("Unexpected error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}

func invalidPayload(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("Invalid request body", zap.Error(err))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: "Invalid request format",
		Code:  "INVALID_JSON",
	})
}
