package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/apperr"
)

// PrincipalKey is the gin context key the auth middleware stores the caller under.
const PrincipalKey = "principal"

// respondError renders err as {"error": {code, message, details}} with the
// status its kind maps to. Internal errors are logged and not echoed.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = &apperr.Error{Code: "INTERNAL", Message: "internal error"}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	} else {
		logger.Debug("request rejected",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}

	c.AbortWithStatusJSON(status, gin.H{"error": appErr})
}

// bindJSON decodes the body and renders a validation error on failure.
func bindJSON(c *gin.Context, logger *zap.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, logger, apperr.Validation("invalid request body", map[string]string{"body": err.Error()}))
		return false
	}
	return true
}

// queryInt reads a non-negative integer query parameter.
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
