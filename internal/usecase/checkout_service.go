package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	customErr "github.com/linkstack-app/payment-service/internal/domain/errors"
	"github.com/linkstack-app/payment-service/internal/domain/model"
	"github.com/linkstack-app/payment-service/internal/domain/provider"
	domainRepo "github.com/linkstack-app/payment-service/internal/domain/repository"
)

// CheckoutService creates destination-charge checkouts for a buyer purchasing
// a product link. Every checkout produces a pending order plus a pending
// payment transaction; webhook handlers settle them later.
type CheckoutService struct {
	ledger  domainRepo.LedgerRepository
	gateway provider.PaymentGateway
	logger  *zap.Logger

	clientBaseURL string
}

// NewCheckoutService creates a new checkout service instance
func NewCheckoutService(
	ledger domainRepo.LedgerRepository,
	gateway provider.PaymentGateway,
	clientBaseURL string,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		ledger:        ledger,
		gateway:       gateway,
		clientBaseURL: clientBaseURL,
		logger:        logger,
	}
}

// CreateCheckoutInput carries the buyer's checkout request.
type CreateCheckoutInput struct {
	LinkID        int64
	BuyerName     string
	BuyerEmail    string
	FormResponses model.JSONB
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the result returned to the client for the hosted flow.
type CheckoutSession struct {
	OrderID     string `json:"order_id"`
	SessionID   string `json:"session_id"`
	SessionURL  string `json:"session_url"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// PaymentIntentCheckout is the result for the embedded payment element flow.
type PaymentIntentCheckout struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
}

// checkoutContext bundles the validated entities a checkout needs.
type checkoutContext struct {
	link        *model.CustomLink
	account     *model.ConnectAccount
	amountCents int64
	platformFee int64
}

// prepare validates the product and the seller before anything is created.
// A failure here leaves zero rows behind.
func (s *CheckoutService) prepare(ctx context.Context, linkID int64) (*checkoutContext, error) {
	link, err := s.ledger.LinkByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load link: %w", err)
	}
	if link == nil || !link.IsActive || !link.CheckoutEnabled {
		return nil, customErr.ErrLinkNotFound
	}

	price := link.EffectivePriceCents()
	if price == nil || *price <= 0 {
		return nil, customErr.ErrMissingPrice
	}

	account, err := s.ledger.AccountByID(ctx, link.ConnectAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seller account: %w", err)
	}
	if account == nil {
		return nil, customErr.ErrAccountNotFound
	}
	if !account.IsActive || !account.ChargesEnabled {
		return nil, customErr.NewSellerNotReadyError(account.StripeAccountID, account.ChargesEnabled, account.IsActive)
	}

	fee, _, err := SplitAmount(*price, account.PlatformFeePercentage)
	if err != nil {
		return nil, fmt.Errorf("failed to split amount: %w", err)
	}

	return &checkoutContext{
		link:        link,
		account:     account,
		amountCents: *price,
		platformFee: fee,
	}, nil
}

// CreateSession creates a hosted checkout session for the given link.
func (s *CheckoutService) CreateSession(ctx context.Context, input *CreateCheckoutInput) (*CheckoutSession, error) {
	cc, err := s.prepare(ctx, input.LinkID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	orderID := model.NewOrderID(now)

	successURL := input.SuccessURL
	if successURL == "" {
		successURL = fmt.Sprintf("%s/checkout/success?order_id=%s", s.clientBaseURL, orderID)
	}
	cancelURL := input.CancelURL
	if cancelURL == "" {
		cancelURL = fmt.Sprintf("%s/%s", s.clientBaseURL, cc.link.Slug)
	}

	result, err := s.gateway.CreateCheckoutSession(ctx, &provider.CheckoutSessionRequest{
		AmountCents:          cc.amountCents,
		ApplicationFeeCents:  cc.platformFee,
		Currency:             cc.link.Currency,
		ProductName:          cc.link.Title,
		DestinationAccountID: cc.account.StripeAccountID,
		SuccessURL:           successURL,
		CancelURL:            cancelURL,
		CustomerEmail:        input.BuyerEmail,
		Metadata: map[string]string{
			"order_id":       orderID,
			"custom_link_id": fmt.Sprintf("%d", cc.link.ID),
			"seller_uid":     cc.account.UniversalID.String(),
		},
	})
	if err != nil {
		s.logger.Error("Failed to create checkout session",
			zap.Int64("link_id", input.LinkID),
			zap.String("seller_account", cc.account.StripeAccountID),
			zap.Error(err))
		return nil, err
	}

	if err := s.recordPending(ctx, cc, input, orderID, now, &result.SessionID, paymentIntentOrNil(result.PaymentIntentID)); err != nil {
		// The provider session exists but expires on its own; the webhook
		// handler tolerates the missing transaction row.
		s.logger.Error("Failed to persist checkout rows after session creation",
			zap.String("order_id", orderID),
			zap.String("session_id", result.SessionID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Checkout session created",
		zap.String("order_id", orderID),
		zap.String("session_id", result.SessionID),
		zap.Int64("amount", cc.amountCents),
		zap.Int64("platform_fee", cc.platformFee))

	return &CheckoutSession{
		OrderID:     orderID,
		SessionID:   result.SessionID,
		SessionURL:  result.URL,
		AmountCents: cc.amountCents,
		Currency:    cc.link.Currency,
	}, nil
}

// CreateIntent creates a destination-charge PaymentIntent for the embedded flow.
func (s *CheckoutService) CreateIntent(ctx context.Context, input *CreateCheckoutInput) (*PaymentIntentCheckout, error) {
	cc, err := s.prepare(ctx, input.LinkID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	orderID := model.NewOrderID(now)

	result, err := s.gateway.CreatePaymentIntent(ctx, &provider.PaymentIntentRequest{
		AmountCents:          cc.amountCents,
		ApplicationFeeCents:  cc.platformFee,
		Currency:             cc.link.Currency,
		DestinationAccountID: cc.account.StripeAccountID,
		ReceiptEmail:         input.BuyerEmail,
		Metadata: map[string]string{
			"order_id":       orderID,
			"custom_link_id": fmt.Sprintf("%d", cc.link.ID),
			"seller_uid":     cc.account.UniversalID.String(),
		},
	})
	if err != nil {
		s.logger.Error("Failed to create payment intent",
			zap.Int64("link_id", input.LinkID),
			zap.String("seller_account", cc.account.StripeAccountID),
			zap.Error(err))
		return nil, err
	}

	if err := s.recordPending(ctx, cc, input, orderID, now, nil, &result.PaymentIntentID); err != nil {
		s.logger.Error("Failed to persist checkout rows after intent creation",
			zap.String("order_id", orderID),
			zap.String("payment_intent_id", result.PaymentIntentID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Payment intent created",
		zap.String("order_id", orderID),
		zap.String("payment_intent_id", result.PaymentIntentID),
		zap.Int64("amount", cc.amountCents),
		zap.Int64("platform_fee", cc.platformFee))

	return &PaymentIntentCheckout{
		OrderID:         orderID,
		PaymentIntentID: result.PaymentIntentID,
		ClientSecret:    result.ClientSecret,
		AmountCents:     cc.amountCents,
		Currency:        cc.link.Currency,
	}, nil
}

// recordPending writes the order and its pending transaction in one database
// transaction.
func (s *CheckoutService) recordPending(ctx context.Context, cc *checkoutContext, input *CreateCheckoutInput, orderID string, now time.Time, sessionID, intentID *string) error {
	return s.ledger.Atomically(ctx, func(ctx context.Context, ledger domainRepo.Ledger) error {
		order := &model.Order{
			OrderID:                orderID,
			CustomLinkID:           cc.link.ID,
			Status:                 model.OrderStatusPending,
			BuyerName:              input.BuyerName,
			BuyerEmail:             input.BuyerEmail,
			FormResponses:          input.FormResponses,
			EmailAutomationEnabled: true,
		}
		if order.FormResponses == nil {
			order.FormResponses = model.JSONB{}
		}
		if err := ledger.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		tx := &model.PaymentTransaction{
			OrderID:               order.ID,
			ConnectAccountID:      cc.account.ID,
			StripeSessionID:       sessionID,
			StripePaymentIntentID: intentID,
			TotalAmount:           cc.amountCents,
			PlatformFee:           cc.platformFee,
			SellerAmount:          cc.amountCents - cc.platformFee,
			Currency:              cc.link.Currency,
			Status:                model.TransactionStatusPending,
			Metadata:              model.JSONB{"order_id": orderID},
		}
		if err := ledger.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
}

func paymentIntentOrNil(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
