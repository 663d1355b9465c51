package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrLinkNotFound indicates the requested product link does not exist or is inactive
	ErrLinkNotFound = errors.New("custom link not found")

	// ErrMissingPrice indicates the product link has no price and cannot be sold
	ErrMissingPrice = errors.New("custom link has no price configured")

	// ErrAccountNotFound indicates no Connect account exists for the user
	ErrAccountNotFound = errors.New("connect account not found")

	// ErrTransactionNotFound indicates no payment transaction matches the identifier
	ErrTransactionNotFound = errors.New("payment transaction not found")

	// ErrOrderNotFound indicates the order does not exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrChargeMissing indicates a refund was requested before any charge settled
	ErrChargeMissing = errors.New("no charge exists for this payment")

	// ErrNotRefundable indicates the transaction status does not admit refunds
	ErrNotRefundable = errors.New("payment is not in a refundable state")

	// ErrInvalidRefundAmount indicates a zero or negative refund amount
	ErrInvalidRefundAmount = errors.New("refund amount must be positive")
)

// SellerNotReadyError is returned when checkout is attempted against a seller
// whose Connect account cannot take charges yet.
type SellerNotReadyError struct {
	StripeAccountID string
	ChargesEnabled  bool
	IsActive        bool
}

func (e *SellerNotReadyError) Error() string {
	return fmt.Sprintf("seller account %s is not ready for checkout (charges_enabled=%t, is_active=%t)",
		e.StripeAccountID, e.ChargesEnabled, e.IsActive)
}

// NewSellerNotReadyError creates a new SellerNotReadyError
func NewSellerNotReadyError(stripeAccountID string, chargesEnabled, isActive bool) *SellerNotReadyError {
	return &SellerNotReadyError{
		StripeAccountID: stripeAccountID,
		ChargesEnabled:  chargesEnabled,
		IsActive:        isActive,
	}
}

// RefundExceedsRemainingError is returned when a refund request is larger than
// the refundable balance. The request is rejected, never clamped.
type RefundExceedsRemainingError struct {
	Requested int64
	Remaining int64
}

func (e *RefundExceedsRemainingError) Error() string {
	return fmt.Sprintf("refund of %d exceeds remaining refundable amount %d", e.Requested, e.Remaining)
}

// NewRefundExceedsRemainingError creates a new RefundExceedsRemainingError
func NewRefundExceedsRemainingError(requested, remaining int64) *RefundExceedsRemainingError {
	return &RefundExceedsRemainingError{Requested: requested, Remaining: remaining}
}
