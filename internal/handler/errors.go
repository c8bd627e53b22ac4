package handler

import (
	"errors"
	"net/http"

	"github.com/expense-tracker/backend/internal/model"
	"github.com/expense-tracker/backend/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError maps a service error onto a status code. Only messages carried
// by *service.Error reach the client; anything else is logged and reported
// as a generic server error.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var svcErr *service.Error
	message := "server error"
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrConflict):
		abortJSON(c, http.StatusBadRequest, message)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrTokenExpired):
		abortJSON(c, http.StatusUnauthorized, message)
	case errors.Is(err, service.ErrForbidden):
		abortJSON(c, http.StatusForbidden, message)
	case errors.Is(err, service.ErrNotFound):
		abortJSON(c, http.StatusNotFound, message)
	case errors.Is(err, service.ErrPartialDeletion):
		logger.Error("Account deletion incomplete", zap.Error(err))
		abortJSON(c, http.StatusInternalServerError, "account deletion incomplete, please retry")
	default:
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		abortJSON(c, http.StatusInternalServerError, "server error")
	}
}

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, model.ErrorResponse{Message: message})
}
