package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/usecase"
)

// CreditHandler handles credit-related HTTP requests
type CreditHandler struct {
	logger        *zap.Logger
	creditService *usecase.CreditService
}

// NewCreditHandler creates a new credit handler instance
func NewCreditHandler(logger *zap.Logger, creditService *usecase.CreditService) *CreditHandler {
	return &CreditHandler{
		logger:        logger,
		creditService: creditService,
	}
}

// GetBalance handles GET /api/v1/credits/balance
func (h *CreditHandler) GetBalance(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	balance, err := h.creditService.GetBalance(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get user credit balance",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve credit balance"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"current_balance": balance.CurrentBalance.String(),
	})
}

type UseCreditsRequest struct {
	Amount      string `json:"amount" validate:"required"`
	FeatureName string `json:"feature_name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// UseCredits handles POST /api/v1/credits/use
func (h *CreditHandler) UseCredits(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req UseCreditsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be a positive decimal string"})
	}

	transaction, err := h.creditService.UseCredits(c.Request().Context(), userID, amount, req.FeatureName, req.Description)
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"transaction_id": transaction.ID,
		"amount":         transaction.Amount.String(),
		"balance_after":  transaction.BalanceAfter.String(),
	})
}

// GetHistory handles GET /api/v1/credits/transactions
func (h *CreditHandler) GetHistory(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	limit, offset, err := pageParams(c)
	if err != nil {
		return err
	}

	transactions, err := h.creditService.GetHistory(c.Request().Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to get credit history",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve transaction history"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"transactions": transactions,
		"count":        len(transactions),
	})
}
