package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	customErr "github.com/linkstack-app/payment-service/internal/domain/errors"
	"github.com/linkstack-app/payment-service/internal/domain/model"
	"github.com/linkstack-app/payment-service/internal/domain/provider"
	domainRepo "github.com/linkstack-app/payment-service/internal/domain/repository"
)

// RefundService orchestrates seller-initiated refunds. The provider refund
// reverses the transfer and the proportional application fee; the local
// ledger is updated in the same call so the dashboard reflects the refund
// immediately instead of waiting for the charge.refunded webhook.
type RefundService struct {
	ledger  domainRepo.LedgerRepository
	gateway provider.PaymentGateway
	logger  *zap.Logger
}

// NewRefundService creates a new refund service instance
func NewRefundService(ledger domainRepo.LedgerRepository, gateway provider.PaymentGateway, logger *zap.Logger) *RefundService {
	return &RefundService{
		ledger:  ledger,
		gateway: gateway,
		logger:  logger,
	}
}

// RefundInput describes a refund request against a payment intent.
// AmountCents of 0 means a full refund of the remaining balance.
// SellerID is the authenticated caller; the transaction must belong to
// their Connect account.
type RefundInput struct {
	PaymentIntentID string
	SellerID        uuid.UUID
	AmountCents     int64
	Reason          string
}

// RefundOutcome reports the applied refund.
type RefundOutcome struct {
	RefundID          string                  `json:"refund_id"`
	AmountCents       int64                   `json:"amount_cents"`
	PlatformFeeShare  int64                   `json:"platform_fee_share"`
	TransactionStatus model.TransactionStatus `json:"transaction_status"`
	OrderCancelled    bool                    `json:"order_cancelled"`
}

// Refund validates the request, issues the provider refund, and applies it to
// the ledger.
func (s *RefundService) Refund(ctx context.Context, input *RefundInput) (*RefundOutcome, error) {
	tx, err := s.ledger.TransactionByIntentID(ctx, input.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if tx == nil {
		return nil, customErr.ErrTransactionNotFound
	}

	account, err := s.ledger.AccountByUniversalID(ctx, input.SellerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil || account.ID != tx.ConnectAccountID {
		// Another seller's transaction looks the same as a missing one, so
		// the endpoint does not leak which intent ids exist.
		return nil, customErr.ErrTransactionNotFound
	}

	if tx.StripeChargeID == nil || *tx.StripeChargeID == "" {
		return nil, customErr.ErrChargeMissing
	}
	if tx.Status != model.TransactionStatusSucceeded && tx.Status != model.TransactionStatusPartiallyRefunded {
		return nil, customErr.ErrNotRefundable
	}

	remaining := tx.RemainingRefundable()
	amount := input.AmountCents
	if amount == 0 {
		amount = remaining
	}
	if amount < 0 {
		return nil, customErr.ErrInvalidRefundAmount
	}
	if amount > remaining || remaining == 0 {
		return nil, customErr.NewRefundExceedsRemainingError(amount, remaining)
	}

	result, err := s.gateway.CreateRefund(ctx, &provider.RefundRequest{
		PaymentIntentID: input.PaymentIntentID,
		AmountCents:     amount,
		Reason:          input.Reason,
	})
	if err != nil {
		s.logger.Error("Provider refund failed",
			zap.String("payment_intent_id", input.PaymentIntentID),
			zap.Int64("amount", amount),
			zap.Error(err))
		return nil, err
	}

	feeShare := ProportionalFee(amount, tx.TotalAmount, tx.PlatformFee)
	outcome := &RefundOutcome{
		RefundID:         result.RefundID,
		AmountCents:      amount,
		PlatformFeeShare: feeShare,
	}

	err = s.ledger.Atomically(ctx, func(ctx context.Context, ledger domainRepo.Ledger) error {
		// Re-read inside the transaction; the charge.refunded webhook may
		// have applied this refund, in whole or in part, between the
		// provider call and here.
		current, err := ledger.TransactionByIntentID(ctx, input.PaymentIntentID)
		if err != nil {
			return err
		}
		if current == nil {
			return customErr.ErrTransactionNotFound
		}

		// The cumulative target is the pre-call snapshot plus this refund.
		// Apply only the part the ledger has not seen yet; the provider
		// refund went through either way, so the outcome reports success.
		target := tx.RefundedAmount + amount
		if current.RefundedAmount >= target {
			outcome.TransactionStatus = current.Status
			return nil
		}
		delta := target - current.RefundedAmount
		deltaFee := ProportionalFee(delta, current.TotalAmount, current.PlatformFee)
		if !current.ApplyRefund(delta, deltaFee) {
			outcome.TransactionStatus = current.Status
			return nil
		}
		if err := ledger.SaveTransaction(ctx, current); err != nil {
			return err
		}
		outcome.TransactionStatus = current.Status

		if current.Status == model.TransactionStatusRefunded {
			order, err := ledger.OrderByID(ctx, current.OrderID)
			if err != nil {
				return err
			}
			if order != nil && order.MarkCancelled(time.Now().UTC()) {
				if err := ledger.SaveOrder(ctx, order); err != nil {
					return err
				}
				outcome.OrderCancelled = true
			}
		}
		return nil
	})
	if err != nil {
		// The provider refund succeeded but the ledger write failed. The
		// charge.refunded webhook will reconcile the difference.
		s.logger.Error("Refund applied at provider but ledger update failed",
			zap.String("payment_intent_id", input.PaymentIntentID),
			zap.String("refund_id", result.RefundID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Refund applied",
		zap.String("payment_intent_id", input.PaymentIntentID),
		zap.String("refund_id", result.RefundID),
		zap.Int64("amount", amount),
		zap.Int64("platform_fee_share", feeShare),
		zap.String("status", string(outcome.TransactionStatus)))

	return outcome, nil
}
