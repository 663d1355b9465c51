package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/usecase"
)

// ConnectHandler manages seller Connect account endpoints.
type ConnectHandler struct {
	logger         *zap.Logger
	accountService *usecase.AccountService
}

func NewConnectHandler(logger *zap.Logger, accountService *usecase.AccountService) *ConnectHandler {
	return &ConnectHandler{
		logger:         logger,
		accountService: accountService,
	}
}

// currentUserID extracts the authenticated user's universal ID set by the JWT
// middleware.
func currentUserID(c echo.Context) (uuid.UUID, bool) {
	userIDStr, ok := c.Get("user_id").(string)
	if !ok {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

type StartOnboardingRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Country string `json:"country" validate:"required,len=2"`
}

// StartOnboarding handles POST /api/v1/connect/accounts
func (h *ConnectHandler) StartOnboarding(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req StartOnboardingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	link, err := h.accountService.StartOnboarding(c.Request().Context(), userID, req.Email, req.Country)
	if err != nil {
		h.logger.Error("Failed to start onboarding",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, link)
}

// GetAccount handles GET /api/v1/connect/accounts/me
func (h *ConnectHandler) GetAccount(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	account, err := h.accountService.GetAccount(c.Request().Context(), userID)
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusOK, account)
}

// SyncAccount handles POST /api/v1/connect/accounts/sync
func (h *ConnectHandler) SyncAccount(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	account, err := h.accountService.SyncAccount(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Failed to sync Connect account",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusOK, account)
}
