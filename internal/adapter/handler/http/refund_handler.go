package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/usecase"
)

// RefundHandler exposes refund orchestration to authenticated sellers.
type RefundHandler struct {
	logger        *zap.Logger
	refundService *usecase.RefundService
}

func NewRefundHandler(logger *zap.Logger, refundService *usecase.RefundService) *RefundHandler {
	return &RefundHandler{
		logger:        logger,
		refundService: refundService,
	}
}

type CreateRefundRequest struct {
	// AmountCents of 0 refunds the full remaining balance
	AmountCents int64  `json:"amount_cents" validate:"gte=0"`
	Reason      string `json:"reason" validate:"omitempty,oneof=duplicate fraudulent requested_by_customer"`
}

// CreateRefund handles POST /api/v1/payments/:intentID/refunds
func (h *RefundHandler) CreateRefund(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	intentID := c.Param("intentID")
	if intentID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment intent id required"})
	}

	var req CreateRefundRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	outcome, err := h.refundService.Refund(c.Request().Context(), &usecase.RefundInput{
		PaymentIntentID: intentID,
		SellerID:        userID,
		AmountCents:     req.AmountCents,
		Reason:          req.Reason,
	})
	if err != nil {
		h.logger.Warn("Refund request failed",
			zap.String("payment_intent_id", intentID),
			zap.Int64("amount_cents", req.AmountCents),
			zap.Error(err))
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, outcome)
}
