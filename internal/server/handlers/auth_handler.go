package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/service/auth"
)

// AuthHandler exposes sign-up, sign-in, sign-out and password reset.
type AuthHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

// SignUp creates an account and returns a session.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	session, err := h.svc.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// SignIn returns a session for valid credentials.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	session, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// SignOut revokes the bearer token of the request.
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.svc.SignOut(c.Request.Context(), BearerToken(c.GetHeader("Authorization"))); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestReset issues a reset token. The answer is the same whether or not
// the email is registered.
func (h *AuthHandler) RequestReset(c *gin.Context) {
	var req resetRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// ResetPassword consumes a reset token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated caller.
func (h *AuthHandler) Me(c *gin.Context) {
	v, _ := c.Get(PrincipalKey)
	principal, _ := v.(auth.Principal)
	c.JSON(http.StatusOK, gin.H{
		"uid":       principal.UserID,
		"email":     principal.Email,
		"role":      principal.Role,
		"expiresAt": principal.ExpiresAt,
	})
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
