package provider

import (
	"context"
	"time"
)

// PaymentGateway defines the payment-provider operations the service layer
// depends on. The Stripe implementation lives in infrastructure/provider;
// tests substitute fakes. Constructed explicitly and injected; there is no
// package-global API key.
type PaymentGateway interface {
	// CreateCheckoutSession creates a hosted checkout session configured as a
	// destination charge against the seller's connected account.
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSessionResult, error)

	// CreatePaymentIntent creates a destination-charge PaymentIntent for the
	// embedded payment element flow.
	CreatePaymentIntent(ctx context.Context, req *PaymentIntentRequest) (*PaymentIntentResult, error)

	// CreateRefund issues a refund, reversing the connected-account transfer
	// and the proportional application fee on the provider side.
	CreateRefund(ctx context.Context, req *RefundRequest) (*RefundResult, error)

	// CreateAccount creates a new Express connected account for a seller.
	CreateAccount(ctx context.Context, req *CreateAccountRequest) (*AccountState, error)

	// CreateAccountLink creates an onboarding link for a connected account.
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)

	// GetAccount fetches the authoritative state of a connected account.
	GetAccount(ctx context.Context, accountID string) (*AccountState, error)
}

// CheckoutSessionRequest describes a destination-charge checkout session.
// Amounts are minor currency units.
type CheckoutSessionRequest struct {
	AmountCents          int64
	ApplicationFeeCents  int64
	Currency             string
	ProductName          string
	DestinationAccountID string
	SuccessURL           string
	CancelURL            string
	CustomerEmail        string
	Metadata             map[string]string
}

// CheckoutSessionResult is the provider's view of a created session.
type CheckoutSessionResult struct {
	SessionID       string
	URL             string
	PaymentIntentID string
	ExpiresAt       time.Time
}

// PaymentIntentRequest describes a destination-charge PaymentIntent.
type PaymentIntentRequest struct {
	AmountCents          int64
	ApplicationFeeCents  int64
	Currency             string
	DestinationAccountID string
	ReceiptEmail         string
	Metadata             map[string]string
}

// PaymentIntentResult carries the client secret for the embedded flow.
type PaymentIntentResult struct {
	PaymentIntentID string
	ClientSecret    string
	Status          string
}

// RefundRequest describes a refund against a payment intent.
type RefundRequest struct {
	PaymentIntentID string
	AmountCents     int64
	Reason          string
}

// RefundResult is the provider's view of a created refund.
type RefundResult struct {
	RefundID    string
	AmountCents int64
	Status      string
}

// CreateAccountRequest describes a new seller account.
type CreateAccountRequest struct {
	Email       string
	Country     string
	UniversalID string
}

// AccountState is the provider's authoritative account state used for
// pull-based reconciliation.
type AccountState struct {
	AccountID        string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
	DefaultCurrency  string
	Country          string
	Email            string
	RequirementsDue  []string
	DisabledReason   string
}

// ProviderError wraps a provider-side failure with a stable code.
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
