package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/config"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/metrics"
	"github.com/mamadbah2/herd/internal/service/commands"
	client "github.com/mamadbah2/herd/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// helpButtons are offered with the help reply so staff can tap instead of type.
var helpButtons = []client.Button{
	{ID: "/doses", Title: "Doses"},
	{ID: "/summary", Title: "Summary"},
}

// MessagingService describes the operations the HTTP layer and jobs perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the implementation backed by the WhatsApp Cloud API.
// A nil client disables outbound messages; inbound commands are still run.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, c client.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     c,
		dispatcher: dispatcher,
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// VerifyWebhookToken validates the callback verification handshake.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", apperr.Validation("missing hub.mode or hub.verify_token", nil)
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", apperr.Validation(fmt.Sprintf("unsupported hub.mode %s", mode), nil)
	}

	if s.cfg.VerifyToken == "" || verifyToken != s.cfg.VerifyToken {
		return "", apperr.Unauthorized("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook runs every inbound message as a command and replies to its
// sender. Processing continues past failures; the first one is returned.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := strings.TrimSpace(msg.Body())
	if text == "" {
		s.logger.Debug("ignoring inbound message without text", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return nil
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	reply, dispatchErr := s.dispatcher.HandleCommand(ctx, cmd, msg.From)
	if reply == "" {
		return dispatchErr
	}

	var sendErr error
	if cmd.Type == models.CommandUnknown {
		sendErr = s.sendButtons(ctx, msg.From, reply)
	} else {
		sendErr = s.SendOutbound(ctx, models.OutboundMessageRequest{To: msg.From, Message: reply})
	}
	if errors.Is(sendErr, apperr.ErrDisabled) {
		s.logger.Warn("reply not sent, messaging disabled", zap.String("to", msg.From))
		sendErr = nil
	}

	return errors.Join(dispatchErr, sendErr)
}

func (s *MetaWhatsAppService) sendButtons(ctx context.Context, to, body string) error {
	if s.client == nil {
		return apperr.Disabled("whatsapp")
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendButtonMessage(ctxWithTimeout, client.SendButtonMessageRequest{
		To:      to,
		Body:    body,
		Buttons: helpButtons,
	})
	metrics.RecordMessage("help", err)
	return err
}

// SendOutbound pushes a text message.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if s.client == nil {
		return apperr.Disabled("whatsapp")
	}
	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Message) == "" {
		return apperr.Validation("recipient and message are required", nil)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         req.To,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
	metrics.RecordMessage("text", err)
	if err != nil {
		return apperr.Unavailable("send whatsapp message", err)
	}
	return nil
}
