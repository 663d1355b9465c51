package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/domain/model"
	"github.com/linkstack-app/payment-service/internal/usecase"
)

// CheckoutHandler exposes the public checkout endpoints. These are unauthenticated:
// the buyer is not a platform user.
type CheckoutHandler struct {
	logger          *zap.Logger
	checkoutService *usecase.CheckoutService
}

func NewCheckoutHandler(logger *zap.Logger, checkoutService *usecase.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		logger:          logger,
		checkoutService: checkoutService,
	}
}

type CreateCheckoutRequest struct {
	LinkID        int64                  `json:"link_id" validate:"required,gt=0"`
	BuyerName     string                 `json:"buyer_name" validate:"max=200"`
	BuyerEmail    string                 `json:"buyer_email" validate:"omitempty,email"`
	FormResponses map[string]interface{} `json:"form_responses"`
	SuccessURL    string                 `json:"success_url" validate:"omitempty,url"`
	CancelURL     string                 `json:"cancel_url" validate:"omitempty,url"`
}

func (r *CreateCheckoutRequest) toInput() *usecase.CreateCheckoutInput {
	return &usecase.CreateCheckoutInput{
		LinkID:        r.LinkID,
		BuyerName:     r.BuyerName,
		BuyerEmail:    r.BuyerEmail,
		FormResponses: model.JSONB(r.FormResponses),
		SuccessURL:    r.SuccessURL,
		CancelURL:     r.CancelURL,
	}
}

// CreateSession handles POST /api/v1/checkout/sessions
func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	var req CreateCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	session, err := h.checkoutService.CreateSession(c.Request().Context(), req.toInput())
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, session)
}

// CreateIntent handles POST /api/v1/checkout/payment-intents
func (h *CheckoutHandler) CreateIntent(c echo.Context) error {
	var req CreateCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	intent, err := h.checkoutService.CreateIntent(c.Request().Context(), req.toInput())
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, intent)
}
