package handler

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/venue-finder/internal/telegram"
)

// SecretTokenHeader carries the secret registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateSubmitter queues updates for processing.
type UpdateSubmitter interface {
	Submit(ctx context.Context, u telegram.Update)
}

// WebhookHandler receives pushed updates.
type WebhookHandler struct {
	updates UpdateSubmitter
	secret  string
	logger  *slog.Logger
}

// NewWebhookHandler constructs a WebhookHandler. An empty secret disables the check.
func NewWebhookHandler(updates UpdateSubmitter, secret string, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{updates: updates, secret: secret, logger: logger}
}

// Receive handles POST /telegram/webhook requests.
// The update is queued and acknowledged at once; Telegram redelivers on non-2xx.
func (h *WebhookHandler) Receive(c echo.Context) error {
	if h.secret != "" {
		got := c.Request().Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			return Error(c, http.StatusUnauthorized, "invalid secret token")
		}
	}

	var update telegram.Update
	if err := c.Bind(&update); err != nil {
		h.logger.Warn("webhook payload rejected", "error", err)
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	h.updates.Submit(c.Request().Context(), update)
	return c.NoContent(http.StatusOK)
}
