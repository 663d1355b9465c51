package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/domain/model"
	domainRepo "github.com/linkstack-app/payment-service/internal/domain/repository"
)

// Notifier enqueues post-payment follow-up work (buyer confirmation emails,
// refund notices). Enqueueing is best-effort and happens after the ledger
// transaction commits.
type Notifier interface {
	EnqueueOrderConfirmation(ctx context.Context, order *model.Order, tx *model.PaymentTransaction) error
	EnqueueRefundNotice(ctx context.Context, order *model.Order, tx *model.PaymentTransaction, amountCents int64) error
}

// WebhookService processes verified Stripe webhook events. Each handled event
// is logged and applied through RecordEventOnce, so a redelivered event ID is
// acknowledged without re-running its side effects.
type WebhookService struct {
	ledger   domainRepo.LedgerRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewWebhookService creates a new webhook service instance
func NewWebhookService(ledger domainRepo.LedgerRepository, notifier Notifier, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
	}
}

// ProcessEvent dispatches a verified event to its handler. It returns
// handled=false for event types the service does not subscribe to; those are
// acknowledged without being recorded. An error means the delivery must be
// retried by the provider.
func (s *WebhookService) ProcessEvent(ctx context.Context, event *stripe.Event) (handled bool, err error) {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return true, s.applyOnce(ctx, event, s.handleCheckoutCompleted(event))
	case stripe.EventTypePaymentIntentSucceeded:
		return true, s.applyOnce(ctx, event, s.handlePaymentSucceeded(event))
	case stripe.EventTypePaymentIntentPaymentFailed:
		return true, s.applyOnce(ctx, event, s.handlePaymentFailed(event))
	case stripe.EventTypeChargeRefunded:
		return true, s.applyOnce(ctx, event, s.handleChargeRefunded(event))
	case stripe.EventTypeAccountUpdated:
		return true, s.applyOnce(ctx, event, s.handleAccountUpdated(event))
	default:
		s.logger.Debug("Ignoring unhandled webhook event type",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)))
		return false, nil
	}
}

// eventHandler mutates the ledger inside the idempotency transaction and may
// register follow-up work to run after commit.
type eventHandler struct {
	apply      func(ctx context.Context, ledger domainRepo.Ledger) error
	afterApply func(ctx context.Context)
}

// applyOnce logs the event row and runs the handler in one transaction.
// Duplicate deliveries short-circuit after the insert conflict.
func (s *WebhookService) applyOnce(ctx context.Context, event *stripe.Event, h *eventHandler) error {
	row := buildEventRow(event)

	applied, err := s.ledger.RecordEventOnce(ctx, row, h.apply)
	if err != nil {
		s.logger.Error("Webhook event processing failed",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
		return err
	}
	if !applied {
		s.logger.Info("Duplicate webhook delivery skipped",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)))
		return nil
	}

	if h.afterApply != nil {
		h.afterApply(ctx)
	}
	return nil
}

// buildEventRow converts a Stripe event into its audit-log row.
func buildEventRow(event *stripe.Event) *model.ConnectWebhookEvent {
	var payload model.JSONB
	if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
		payload = model.JSONB{}
	}

	row := &model.ConnectWebhookEvent{
		StripeEventID: event.ID,
		EventType:     string(event.Type),
		Payload:       payload,
		Livemode:      event.Livemode,
	}
	if event.APIVersion != "" {
		v := event.APIVersion
		row.APIVersion = &v
	}
	if event.Created > 0 {
		t := time.Unix(event.Created, 0).UTC()
		row.StripeCreatedAt = &t
	}
	if meta, ok := payload["metadata"].(map[string]interface{}); ok {
		if raw, ok := meta["seller_uid"].(string); ok {
			if uid, err := uuid.Parse(raw); err == nil {
				row.UniversalID = &uid
			}
		}
	}
	return row
}

// handleCheckoutCompleted settles hosted checkout payments. The session id is
// the only provider identifier guaranteed to be on the pending row: Checkout
// creates the payment intent lazily, so the intent id may be unknown until
// this event arrives and is backfilled here.
func (s *WebhookService) handleCheckoutCompleted(event *stripe.Event) *eventHandler {
	var (
		completedOrder *model.Order
		completedTx    *model.PaymentTransaction
	)

	h := &eventHandler{}
	h.apply = func(ctx context.Context, ledger domainRepo.Ledger) error {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("failed to parse checkout_session payload: %w", err)
		}

		tx, err := ledger.TransactionBySessionID(ctx, session.ID)
		if err != nil {
			return err
		}
		if tx == nil {
			s.logger.Warn("Checkout completed for unknown session",
				zap.String("event_id", event.ID),
				zap.String("session_id", session.ID))
			return nil
		}

		backfilled := false
		if session.PaymentIntent != nil && session.PaymentIntent.ID != "" &&
			(tx.StripePaymentIntentID == nil || *tx.StripePaymentIntentID == "") {
			intentID := session.PaymentIntent.ID
			tx.StripePaymentIntentID = &intentID
			backfilled = true
		}

		if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			// Delayed payment methods complete the session before the money
			// settles; payment_intent.succeeded finishes the order later.
			if backfilled {
				return ledger.SaveTransaction(ctx, tx)
			}
			return nil
		}

		now := time.Unix(event.Created, 0).UTC()
		if !tx.MarkSucceeded("", now) {
			if backfilled {
				return ledger.SaveTransaction(ctx, tx)
			}
			s.logger.Warn("Ignoring checkout.session.completed for settled transaction",
				zap.String("session_id", session.ID),
				zap.String("current_status", string(tx.Status)))
			return nil
		}
		if err := ledger.SaveTransaction(ctx, tx); err != nil {
			return err
		}

		order, err := s.completeOrder(ctx, ledger, tx, now)
		if err != nil {
			return err
		}
		completedOrder = order
		completedTx = tx
		return nil
	}
	h.afterApply = func(ctx context.Context) {
		if completedOrder == nil || s.notifier == nil {
			return
		}
		if err := s.notifier.EnqueueOrderConfirmation(ctx, completedOrder, completedTx); err != nil {
			s.logger.Warn("Failed to enqueue order confirmation",
				zap.String("order_id", completedOrder.OrderID),
				zap.Error(err))
		}
	}
	return h
}

func (s *WebhookService) handlePaymentSucceeded(event *stripe.Event) *eventHandler {
	var (
		completedOrder *model.Order
		completedTx    *model.PaymentTransaction
	)

	h := &eventHandler{}
	h.apply = func(ctx context.Context, ledger domainRepo.Ledger) error {
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return fmt.Errorf("failed to parse payment_intent payload: %w", err)
		}

		tx, err := s.transactionForIntent(ctx, ledger, &intent)
		if err != nil {
			return err
		}
		if tx == nil {
			// No local row for this intent. Acknowledge so the provider stops
			// retrying; the event row stays in the audit log for investigation.
			s.logger.Warn("Payment succeeded for unknown transaction",
				zap.String("event_id", event.ID),
				zap.String("payment_intent_id", intent.ID))
			return nil
		}
		if tx.StripePaymentIntentID == nil || *tx.StripePaymentIntentID == "" {
			intentID := intent.ID
			tx.StripePaymentIntentID = &intentID
		}

		chargeID := ""
		transferID := ""
		if intent.LatestCharge != nil {
			chargeID = intent.LatestCharge.ID
			if intent.LatestCharge.Transfer != nil {
				transferID = intent.LatestCharge.Transfer.ID
			}
		}

		now := time.Unix(event.Created, 0).UTC()
		if !tx.MarkSucceeded(chargeID, now) {
			// checkout.session.completed can settle the row first, without a
			// charge id. Backfill it here so the refund path is not blocked.
			if tx.Status == model.TransactionStatusSucceeded && chargeID != "" &&
				(tx.StripeChargeID == nil || *tx.StripeChargeID == "") {
				tx.StripeChargeID = &chargeID
				if transferID != "" {
					tx.StripeTransferID = &transferID
				}
				mergeIntentMetadata(tx, intent.Metadata)
				return ledger.SaveTransaction(ctx, tx)
			}
			s.logger.Warn("Ignoring stale payment_intent.succeeded",
				zap.String("payment_intent_id", intent.ID),
				zap.String("current_status", string(tx.Status)))
			return nil
		}
		if transferID != "" {
			tx.StripeTransferID = &transferID
		}
		mergeIntentMetadata(tx, intent.Metadata)
		if err := ledger.SaveTransaction(ctx, tx); err != nil {
			return err
		}

		order, err := s.completeOrder(ctx, ledger, tx, now)
		if err != nil {
			return err
		}
		completedOrder = order
		completedTx = tx
		return nil
	}
	h.afterApply = func(ctx context.Context) {
		if completedOrder == nil || s.notifier == nil {
			return
		}
		if err := s.notifier.EnqueueOrderConfirmation(ctx, completedOrder, completedTx); err != nil {
			s.logger.Warn("Failed to enqueue order confirmation",
				zap.String("order_id", completedOrder.OrderID),
				zap.Error(err))
		}
	}
	return h
}

// transactionForIntent resolves the local transaction for a payment intent.
// A hosted checkout row may carry no intent id yet, so fall back to the
// order id stamped into the intent metadata at session creation.
func (s *WebhookService) transactionForIntent(ctx context.Context, ledger domainRepo.Ledger, intent *stripe.PaymentIntent) (*model.PaymentTransaction, error) {
	tx, err := ledger.TransactionByIntentID(ctx, intent.ID)
	if err != nil || tx != nil {
		return tx, err
	}

	orderID := intent.Metadata["order_id"]
	if orderID == "" {
		return nil, nil
	}
	order, err := ledger.OrderByOrderID(ctx, orderID)
	if err != nil || order == nil {
		return nil, err
	}
	return ledger.TransactionByOrderID(ctx, order.ID)
}

// completeOrder marks the transaction's order completed and bumps the link
// usage counter. Completion is idempotent; a replayed settlement saves nothing.
func (s *WebhookService) completeOrder(ctx context.Context, ledger domainRepo.Ledger, tx *model.PaymentTransaction, now time.Time) (*model.Order, error) {
	order, err := ledger.OrderByID(ctx, tx.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("transaction %d references missing order %d", tx.ID, tx.OrderID)
	}
	if order.MarkCompleted(now) {
		if err := ledger.SaveOrder(ctx, order); err != nil {
			return nil, err
		}
		if err := ledger.IncrementLinkUsage(ctx, order.CustomLinkID); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// mergeIntentMetadata folds the intent's metadata into the transaction row so
// keys added at the provider survive alongside the ones stamped at checkout.
func mergeIntentMetadata(tx *model.PaymentTransaction, meta map[string]string) {
	if len(meta) == 0 {
		return
	}
	merged := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		merged[k] = v
	}
	tx.Metadata.Merge(merged)
}

func (s *WebhookService) handlePaymentFailed(event *stripe.Event) *eventHandler {
	return &eventHandler{apply: func(ctx context.Context, ledger domainRepo.Ledger) error {
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return fmt.Errorf("failed to parse payment_intent payload: %w", err)
		}

		tx, err := s.transactionForIntent(ctx, ledger, &intent)
		if err != nil {
			return err
		}
		if tx == nil {
			s.logger.Warn("Payment failed for unknown transaction",
				zap.String("event_id", event.ID),
				zap.String("payment_intent_id", intent.ID))
			return nil
		}
		if tx.StripePaymentIntentID == nil || *tx.StripePaymentIntentID == "" {
			intentID := intent.ID
			tx.StripePaymentIntentID = &intentID
		}

		code, message := "", ""
		if intent.LastPaymentError != nil {
			code = string(intent.LastPaymentError.Code)
			message = intent.LastPaymentError.Msg
		}
		if !tx.MarkFailed(code, message) {
			s.logger.Warn("Ignoring payment_intent.payment_failed for settled transaction",
				zap.String("payment_intent_id", intent.ID),
				zap.String("current_status", string(tx.Status)))
			return nil
		}

		s.logger.Info("Payment failed",
			zap.String("payment_intent_id", intent.ID),
			zap.String("failure_code", code))
		return ledger.SaveTransaction(ctx, tx)
	}}
}

// handleChargeRefunded reconciles the local ledger with the charge's
// cumulative refunded amount. Refunds initiated through this service were
// already applied by the refund usecase; this handler only picks up the
// difference, which covers refunds issued from the Stripe dashboard and
// out-of-order redeliveries.
func (s *WebhookService) handleChargeRefunded(event *stripe.Event) *eventHandler {
	var (
		refundedOrder *model.Order
		refundedTx    *model.PaymentTransaction
		refundedDelta int64
	)

	h := &eventHandler{}
	h.apply = func(ctx context.Context, ledger domainRepo.Ledger) error {
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return fmt.Errorf("failed to parse charge payload: %w", err)
		}

		intentID := ""
		if charge.PaymentIntent != nil {
			intentID = charge.PaymentIntent.ID
		}
		if intentID == "" {
			s.logger.Warn("Refunded charge has no payment intent",
				zap.String("event_id", event.ID),
				zap.String("charge_id", charge.ID))
			return nil
		}

		tx, err := ledger.TransactionByIntentID(ctx, intentID)
		if err != nil {
			return err
		}
		if tx == nil {
			s.logger.Warn("Charge refunded for unknown transaction",
				zap.String("event_id", event.ID),
				zap.String("payment_intent_id", intentID))
			return nil
		}

		delta := charge.AmountRefunded - tx.RefundedAmount
		if delta <= 0 {
			// The local ledger is already at or ahead of this event's view.
			s.logger.Info("Refund already reflected in ledger",
				zap.String("payment_intent_id", intentID),
				zap.Int64("charge_amount_refunded", charge.AmountRefunded),
				zap.Int64("ledger_refunded", tx.RefundedAmount))
			return nil
		}

		feeShare := ProportionalFee(delta, tx.TotalAmount, tx.PlatformFee)
		if !tx.ApplyRefund(delta, feeShare) {
			s.logger.Warn("Ignoring charge.refunded for transaction that cannot be refunded",
				zap.String("payment_intent_id", intentID),
				zap.String("current_status", string(tx.Status)))
			return nil
		}
		if err := ledger.SaveTransaction(ctx, tx); err != nil {
			return err
		}

		order, err := ledger.OrderByID(ctx, tx.OrderID)
		if err != nil {
			return err
		}
		if order != nil && tx.Status == model.TransactionStatusRefunded {
			if order.MarkCancelled(time.Unix(event.Created, 0).UTC()) {
				if err := ledger.SaveOrder(ctx, order); err != nil {
					return err
				}
			}
		}

		refundedOrder = order
		refundedTx = tx
		refundedDelta = delta
		return nil
	}
	h.afterApply = func(ctx context.Context) {
		if refundedOrder == nil || s.notifier == nil {
			return
		}
		if err := s.notifier.EnqueueRefundNotice(ctx, refundedOrder, refundedTx, refundedDelta); err != nil {
			s.logger.Warn("Failed to enqueue refund notice",
				zap.String("order_id", refundedOrder.OrderID),
				zap.Error(err))
		}
	}
	return h
}

// handleAccountUpdated overwrites the cached Connect account capabilities with
// the event's state. Webhook order is not guaranteed, so flags are overwritten
// rather than transitioned; only OnboardingCompletedAt is sticky.
func (s *WebhookService) handleAccountUpdated(event *stripe.Event) *eventHandler {
	return &eventHandler{apply: func(ctx context.Context, ledger domainRepo.Ledger) error {
		var acct stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &acct); err != nil {
			return fmt.Errorf("failed to parse account payload: %w", err)
		}

		account, err := ledger.AccountByStripeID(ctx, acct.ID)
		if err != nil {
			return err
		}
		if account == nil {
			s.logger.Warn("Account update for unknown Connect account",
				zap.String("event_id", event.ID),
				zap.String("stripe_account_id", acct.ID))
			return nil
		}

		requirements := model.JSONB{}
		var disabledReason *string
		if acct.Requirements != nil {
			requirements = requirementsJSON(acct.Requirements)
			if acct.Requirements.DisabledReason != "" {
				reason := string(acct.Requirements.DisabledReason)
				disabledReason = &reason
			}
		}

		wasEnabled := account.FullyEnabled()
		account.ApplyProviderState(
			acct.ChargesEnabled,
			acct.PayoutsEnabled,
			acct.DetailsSubmitted,
			requirements,
			disabledReason,
			time.Unix(event.Created, 0).UTC(),
		)
		if err := ledger.SaveAccount(ctx, account); err != nil {
			return err
		}

		if !wasEnabled && account.FullyEnabled() {
			s.logger.Info("Connect account fully enabled",
				zap.String("stripe_account_id", account.StripeAccountID),
				zap.String("universal_id", account.UniversalID.String()))
		}
		return nil
	}}
}

// requirementsJSON flattens the provider's requirement lists for storage.
func requirementsJSON(r *stripe.AccountRequirements) model.JSONB {
	out := model.JSONB{}
	if len(r.CurrentlyDue) > 0 {
		out["currently_due"] = r.CurrentlyDue
	}
	if len(r.EventuallyDue) > 0 {
		out["eventually_due"] = r.EventuallyDue
	}
	if len(r.PastDue) > 0 {
		out["past_due"] = r.PastDue
	}
	if len(r.PendingVerification) > 0 {
		out["pending_verification"] = r.PendingVerification
	}
	return out
}
