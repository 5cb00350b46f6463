// Package handlers provides the JSON response helpers shared by every HTTP handler.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrInternal is the message clients see for unexpected failures.
var ErrInternal = errors.New("internal server error")

// RespondJSON writes data as JSON with the given status.
func RespondJSON(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// RespondError logs err and writes {"error": "..."}. Server errors hide the
// underlying message from the client.
func RespondError(c *gin.Context, logger *zap.Logger, status int, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
	}

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("handler error", fields...)
		if status == http.StatusInternalServerError {
			msg = ErrInternal.Error()
		}
	} else {
		logger.Debug("handler error", fields...)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// RespondBindError answers 400 for a request body or query that failed binding.
func RespondBindError(c *gin.Context, logger *zap.Logger, err error) {
	RespondError(c, logger, http.StatusBadRequest, err)
}
