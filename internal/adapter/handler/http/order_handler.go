package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/usecase"
)

// OrderHandler serves the seller dashboard's order and payment views.
type OrderHandler struct {
	logger       *zap.Logger
	orderService *usecase.OrderService
}

func NewOrderHandler(logger *zap.Logger, orderService *usecase.OrderService) *OrderHandler {
	return &OrderHandler{
		logger:       logger,
		orderService: orderService,
	}
}

// pageParams parses limit/offset query parameters with defaults.
func pageParams(c echo.Context) (limit, offset int, err error) {
	limit, offset = 20, 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid limit parameter")
		}
	}
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid offset parameter")
		}
	}
	return limit, offset, nil
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	limit, offset, err := pageParams(c)
	if err != nil {
		return err
	}

	orders, err := h.orderService.ListOrders(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder handles GET /api/v1/orders/:orderID
func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), userID, c.Param("orderID"))
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusOK, order)
}

// ListPayments handles GET /api/v1/payments
func (h *OrderHandler) ListPayments(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	limit, offset, err := pageParams(c)
	if err != nil {
		return err
	}

	payments, err := h.orderService.ListTransactions(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"payments": payments,
		"count":    len(payments),
	})
}

// GetPayment handles GET /api/v1/payments/:intentID
func (h *OrderHandler) GetPayment(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	payment, err := h.orderService.GetTransaction(c.Request().Context(), userID, c.Param("intentID"))
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusOK, payment)
}
