package stripe

import (
	"context"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/domain/provider"
)

// Gateway implements provider.PaymentGateway against the Stripe API. The
// client is constructed once with the secret key and injected into services;
// no process-wide stripe.Key mutation.
type Gateway struct {
	api     *client.API
	logger  *zap.Logger
	timeout time.Duration
}

// NewGateway creates a new Stripe gateway with its own API client.
func NewGateway(secretKey string, timeout time.Duration, logger *zap.Logger) *Gateway {
	api := &client.API{}
	api.Init(secretKey, nil)

	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Gateway{
		api:     api,
		logger:  logger,
		timeout: timeout,
	}
}

// callContext bounds every outbound Stripe call with a hard wall-clock
// timeout so a slow provider surfaces a typed failure instead of hanging
// the request.
func (g *Gateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.timeout)
}

// CreateCheckoutSession creates a hosted checkout session as a destination
// charge: the application fee stays with the platform and the remainder
// transfers to the connected account at settlement.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, req *provider.CheckoutSessionRequest) (*provider.CheckoutSessionResult, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(req.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.ProductName),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(req.ApplicationFeeCents),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(req.DestinationAccountID),
			},
			Metadata: req.Metadata,
		},
	}
	params.Context = callCtx

	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, g.wrapError("failed to create checkout session", err)
	}

	g.logger.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.String("destination", req.DestinationAccountID),
		zap.Int64("amount", req.AmountCents),
		zap.Int64("application_fee", req.ApplicationFeeCents))

	result := &provider.CheckoutSessionResult{
		SessionID: session.ID,
		URL:       session.URL,
		ExpiresAt: time.Unix(session.ExpiresAt, 0),
	}
	if session.PaymentIntent != nil {
		result.PaymentIntentID = session.PaymentIntent.ID
	}
	return result, nil
}

// CreatePaymentIntent creates a destination-charge PaymentIntent for the
// embedded payment element flow.
func (g *Gateway) CreatePaymentIntent(ctx context.Context, req *provider.PaymentIntentRequest) (*provider.PaymentIntentResult, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:               stripe.Int64(req.AmountCents),
		Currency:             stripe.String(req.Currency),
		ApplicationFeeAmount: stripe.Int64(req.ApplicationFeeCents),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(req.DestinationAccountID),
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = callCtx

	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, g.wrapError("failed to create payment intent", err)
	}

	g.logger.Info("Payment intent created",
		zap.String("payment_intent_id", intent.ID),
		zap.String("destination", req.DestinationAccountID),
		zap.Int64("amount", req.AmountCents))

	return &provider.PaymentIntentResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Status:          string(intent.Status),
	}, nil
}

// CreateRefund refunds a payment intent, reversing the connected-account
// transfer and the proportional application fee so platform and seller each
// give back their share.
func (g *Gateway) CreateRefund(ctx context.Context, req *provider.RefundRequest) (*provider.RefundResult, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent:        stripe.String(req.PaymentIntentID),
		Amount:               stripe.Int64(req.AmountCents),
		ReverseTransfer:      stripe.Bool(true),
		RefundApplicationFee: stripe.Bool(true),
	}
	params.Context = callCtx

	if req.Reason != "" {
		params.Reason = stripe.String(req.Reason)
	}

	refund, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, g.wrapError("failed to create refund", err)
	}

	g.logger.Info("Refund created",
		zap.String("refund_id", refund.ID),
		zap.String("payment_intent_id", req.PaymentIntentID),
		zap.Int64("amount", refund.Amount))

	return &provider.RefundResult{
		RefundID:    refund.ID,
		AmountCents: refund.Amount,
		Status:      string(refund.Status),
	}, nil
}

// CreateAccount creates an Express connected account for a seller.
func (g *Gateway) CreateAccount(ctx context.Context, req *provider.CreateAccountRequest) (*provider.AccountState, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(req.Email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{
				Requested: stripe.Bool(true),
			},
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
	}
	params.Context = callCtx
	params.AddMetadata("universal_id", req.UniversalID)

	if req.Country != "" {
		params.Country = stripe.String(req.Country)
	}

	account, err := g.api.Accounts.New(params)
	if err != nil {
		return nil, g.wrapError("failed to create connect account", err)
	}

	g.logger.Info("Connect account created",
		zap.String("account_id", account.ID),
		zap.String("universal_id", req.UniversalID))

	return accountState(account), nil
}

// CreateAccountLink creates an onboarding link for a connected account.
func (g *Gateway) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = callCtx

	link, err := g.api.AccountLinks.New(params)
	if err != nil {
		return "", g.wrapError("failed to create account link", err)
	}

	return link.URL, nil
}

// GetAccount fetches the authoritative state of a connected account.
func (g *Gateway) GetAccount(ctx context.Context, accountID string) (*provider.AccountState, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	params := &stripe.AccountParams{}
	params.Context = callCtx

	account, err := g.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, g.wrapError("failed to fetch connect account", err)
	}

	return accountState(account), nil
}

func accountState(account *stripe.Account) *provider.AccountState {
	state := &provider.AccountState{
		AccountID:        account.ID,
		ChargesEnabled:   account.ChargesEnabled,
		PayoutsEnabled:   account.PayoutsEnabled,
		DetailsSubmitted: account.DetailsSubmitted,
		DefaultCurrency:  string(account.DefaultCurrency),
		Country:          account.Country,
		Email:            account.Email,
	}
	if account.Requirements != nil {
		state.RequirementsDue = account.Requirements.CurrentlyDue
		state.DisabledReason = string(account.Requirements.DisabledReason)
	}
	return state
}

// wrapError converts a stripe-go error into a ProviderError carrying the
// Stripe error code when one exists.
func (g *Gateway) wrapError(message string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		g.logger.Error(message,
			zap.String("stripe_code", string(stripeErr.Code)),
			zap.String("request_id", stripeErr.RequestID),
			zap.Error(err))
		return &provider.ProviderError{
			Code:    string(stripeErr.Code),
			Message: message,
			Details: stripeErr.Msg,
		}
	}

	g.logger.Error(message, zap.Error(err))
	return &provider.ProviderError{
		Code:    "provider_error",
		Message: message,
		Details: err.Error(),
	}
}
