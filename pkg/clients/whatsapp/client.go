// Package whatsapp is a small WhatsApp Cloud API client for outbound texts and
// quick-reply button messages.
package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/herd/internal/config"
)

// maxButtons is the Cloud API limit for reply buttons in one message.
const maxButtons = 3

// Client exposes the WhatsApp Cloud API operations the service uses.
type Client interface {
	SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendMessageResponse, error)
	SendButtonMessage(ctx context.Context, req SendButtonMessageRequest) (*SendMessageResponse, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient    *resty.Client
	phoneNumberID string
}

// NewClient builds a client from configuration. Transient failures (network
// errors and 5xx answers) are retried twice.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New().
		SetBaseURL(fmt.Sprintf("%s/%s", base, cfg.APIVersion)).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})

	return &APIClient{
		httpClient:    restyClient,
		phoneNumberID: cfg.PhoneNumberID,
	}
}

// SendTextMessageRequest is a plain text message.
type SendTextMessageRequest struct {
	To         string
	Body       string
	PreviewURL bool
}

// Button is one quick-reply button. The id comes back in the inbound
// button_reply when pressed.
type Button struct {
	ID    string
	Title string
}

// SendButtonMessageRequest is an interactive message with up to three buttons.
type SendButtonMessageRequest struct {
	To      string
	Body    string
	Buttons []Button
}

// SendMessageResponse mirrors the successful response from Meta.
type SendMessageResponse struct {
	Messages []SentMessage `json:"messages"`
}

// SentMessage is the id assigned to an accepted message.
type SentMessage struct {
	ID string `json:"id"`
}

// APIError is the error payload of the Cloud API.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	Subcode    int    `json:"error_subcode"`
	FBTraceID  string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	code := e.Code
	if code == 0 {
		code = e.StatusCode
	}
	return fmt.Sprintf("whatsapp api error: code=%d, message=%s", code, e.Message)
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type replyButton struct {
	Type  string     `json:"type"`
	Reply replyTitle `json:"reply"`
}

type replyTitle struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type interactiveBody struct {
	Type   string             `json:"type"`
	Body   textOnly           `json:"body"`
	Action interactiveActions `json:"action"`
}

type textOnly struct {
	Text string `json:"text"`
}

type interactiveActions struct {
	Buttons []replyButton `json:"buttons"`
}

type messagePayload struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *textBody        `json:"text,omitempty"`
	Interactive      *interactiveBody `json:"interactive,omitempty"`
}

// SendTextMessage sends a text message.
func (c *APIClient) SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendMessageResponse, error) {
	return c.send(ctx, messagePayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               req.To,
		Type:             "text",
		Text:             &textBody{Body: req.Body, PreviewURL: req.PreviewURL},
	})
}

// SendButtonMessage sends an interactive message with reply buttons. Extra
// buttons beyond the API limit are dropped.
func (c *APIClient) SendButtonMessage(ctx context.Context, req SendButtonMessageRequest) (*SendMessageResponse, error) {
	if len(req.Buttons) == 0 {
		return nil, fmt.Errorf("send whatsapp buttons: at least one button is required")
	}
	buttons := req.Buttons
	if len(buttons) > maxButtons {
		buttons = buttons[:maxButtons]
	}

	replies := make([]replyButton, 0, len(buttons))
	for _, b := range buttons {
		replies = append(replies, replyButton{Type: "reply", Reply: replyTitle{ID: b.ID, Title: b.Title}})
	}

	return c.send(ctx, messagePayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               req.To,
		Type:             "interactive",
		Interactive: &interactiveBody{
			Type:   "button",
			Body:   textOnly{Text: req.Body},
			Action: interactiveActions{Buttons: replies},
		},
	})
}

func (c *APIClient) send(ctx context.Context, payload messagePayload) (*SendMessageResponse, error) {
	result := new(SendMessageResponse)
	envelope := new(errorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(result).
		SetError(envelope).
		Post(fmt.Sprintf("%s/messages", c.phoneNumberID))
	if err != nil {
		return nil, fmt.Errorf("send whatsapp message: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		apiErr := envelope.Error
		apiErr.StatusCode = resp.StatusCode()
		return nil, &apiErr
	}

	return result, nil
}
