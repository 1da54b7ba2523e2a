package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/models"
	service "github.com/mamadbah2/herd/internal/service/whatsapp"
)

// WebhookHandler exposes the WhatsApp command channel over HTTP.
type WebhookHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

// NewWebhookHandler constructs the HTTP handler adapter.
func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

type verifyQuery struct {
	Mode      string `form:"hub.mode"`
	Token     string `form:"hub.verify_token"`
	Challenge string `form:"hub.challenge"`
}

// Verify answers the subscription handshake with the echoed challenge.
// Malformed handshakes get 400 and a wrong token 403.
func (h *WebhookHandler) Verify(c *gin.Context) {
	var q verifyQuery
	_ = c.ShouldBindQuery(&q)

	challenge, err := h.svc.VerifyWebhookToken(q.Mode, q.Token, q.Challenge)
	switch {
	case err == nil:
		c.String(http.StatusOK, challenge)
	case errors.Is(err, apperr.ErrValidation):
		h.logger.Warn("malformed webhook handshake", zap.String("mode", q.Mode), zap.Error(err))
		c.String(http.StatusBadRequest, "invalid handshake")
	default:
		h.logger.Warn("webhook verification refused", zap.String("mode", q.Mode), zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
	}
}

// Receive runs the commands carried by a webhook callback. Once the payload
// decodes the callback is acknowledged even if a command failed, since a
// redelivery would record the same production twice.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if !bindJSON(c, h.logger, &payload) {
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("webhook commands failed",
			zap.Int("entries", len(payload.Entry)),
			zap.Error(err))
	}

	c.Status(http.StatusOK)
}

// SendMessage pushes an operator-written text to a WhatsApp number.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("operator message sent", zap.String("to", req.To), zap.String("by", updatedBy(c)))
	c.Status(http.StatusAccepted)
}
