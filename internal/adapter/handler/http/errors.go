package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	domainErrors "github.com/linkstack-app/payment-service/internal/domain/errors"
	"github.com/linkstack-app/payment-service/internal/domain/provider"
)

// writeDomainError maps domain errors onto HTTP responses. Unrecognized
// errors become a generic 500 so internals never leak to clients.
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domainErrors.ErrLinkNotFound),
		errors.Is(err, domainErrors.ErrOrderNotFound),
		errors.Is(err, domainErrors.ErrTransactionNotFound),
		errors.Is(err, domainErrors.ErrAccountNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})

	case errors.Is(err, domainErrors.ErrMissingPrice),
		errors.Is(err, domainErrors.ErrInvalidRefundAmount),
		errors.Is(err, domainErrors.ErrChargeMissing),
		errors.Is(err, domainErrors.ErrNotRefundable):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	var notReady *domainErrors.SellerNotReadyError
	if errors.As(err, &notReady) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":           "seller account is not ready for checkout",
			"code":            "SELLER_NOT_READY",
			"charges_enabled": notReady.ChargesEnabled,
		})
	}

	var exceeds *domainErrors.RefundExceedsRemainingError
	if errors.As(err, &exceeds) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":     "refund exceeds remaining refundable amount",
			"code":      "REFUND_EXCEEDS_REMAINING",
			"requested": exceeds.Requested,
			"remaining": exceeds.Remaining,
		})
	}

	var insufficient *domainErrors.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		return c.JSON(http.StatusPaymentRequired, echo.Map{
			"error":     "insufficient credit balance",
			"code":      "INSUFFICIENT_CREDITS",
			"requested": insufficient.Requested.String(),
			"available": insufficient.Available.String(),
		})
	}

	var providerErr *provider.ProviderError
	if errors.As(err, &providerErr) {
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": providerErr.Message,
			"code":  providerErr.Code,
		})
	}

	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
