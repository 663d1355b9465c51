package http

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/usecase"
)

// WebhookHandler receives Stripe Connect webhook deliveries. Signature
// verification happens here; everything after the verified event is the
// webhook service's job.
type WebhookHandler struct {
	logger         *zap.Logger
	webhookSecret  string
	webhookService *usecase.WebhookService
}

func NewWebhookHandler(logger *zap.Logger, webhookSecret string, webhookService *usecase.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		logger:         logger,
		webhookSecret:  webhookSecret,
		webhookService: webhookService,
	}
}

// HandleWebhook handles POST /webhook. A 2xx acknowledges the delivery; any
// other status makes Stripe retry with backoff, so processing failures return
// 500 while bad signatures and duplicates do not.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	sig := c.Request().Header.Get("Stripe-Signature")

	event, err := webhook.ConstructEventWithOptions(
		body,
		sig,
		h.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		h.logger.Error("Webhook signature verification failed",
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Webhook signature verification failed",
		})
	}

	h.logger.Info("Webhook event received",
		zap.String("type", string(event.Type)),
		zap.String("id", event.ID),
		zap.Time("created", time.Unix(event.Created, 0)),
	)

	handled, err := h.webhookService.ProcessEvent(c.Request().Context(), &event)
	if err != nil {
		h.logger.Error("Webhook event processing failed",
			zap.String("id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "event processing failed",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"received": true,
		"handled":  handled,
	})
}
