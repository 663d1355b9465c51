package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	customErr "github.com/linkstack-app/payment-service/internal/domain/errors"
	"github.com/linkstack-app/payment-service/internal/domain/model"
	"github.com/linkstack-app/payment-service/internal/domain/provider"
	"github.com/linkstack-app/payment-service/internal/usecase"
)

func refundableTransaction() *model.PaymentTransaction {
	tx := pendingTransaction()
	chargeID := "ch_123"
	tx.Status = model.TransactionStatusSucceeded
	tx.StripeChargeID = &chargeID
	return tx
}

func TestRefundService_Refund(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	sellerID := uuid.New()
	// pendingTransaction rows belong to Connect account 3
	sellerAccount := &model.ConnectAccount{ID: 3, UniversalID: sellerID}

	t.Run("partial refund reverses proportional fee", func(t *testing.T) {
		mockLedger := new(MockLedgerRepository)
		mockGateway := new(MockPaymentGateway)
		service := usecase.NewRefundService(mockLedger, mockGateway, logger)

		tx := refundableTransaction()
		mockLedger.On("TransactionByIntentID", ctx, "pi_123").Return(tx, nil)
		mockLedger.On("AccountByUniversalID", ctx, sellerID.String()).Return(sellerAccount, nil)
		mockGateway.On("CreateRefund", ctx, &provider.RefundRequest{
			PaymentIntentID: "pi_123",
			AmountCents:     500,
			Reason:          "requested_by_customer",
		}).Return(&provider.RefundResult{RefundID: "re_1", AmountCents: 500, Status: "succeeded"}, nil)
		mockLedger.On("SaveTransaction", ctx, mock.MatchedBy(func(saved *model.PaymentTransaction) bool {
			return saved.Status == model.TransactionStatusPartiallyRefunded &&
				saved.RefundedAmount == 500 &&
				saved.PlatformFeeRefunded == 20
		})).Return(nil)

		outcome, err := service.Refund(ctx, &usecase.RefundInput{
			PaymentIntentID: "pi_123",
			SellerID:        sellerID,
			AmountCents:     500,
			Reason:          "requested_by_customer",
		})

		assert.NoError(t, err)
		assert.Equal(t, "re_1", outcome.RefundID)
		assert.Equal(t, int64(20), outcome.PlatformFeeShare)
		assert.Equal(t, model.TransactionStatusPartiallyRefunded, outcome.TransactionStatus)
		assert.False(t, outcome.OrderCancelled)
		mockLedger.AssertExpectations(t)
		mockGateway.AssertExpectations(t)
	})

	t.Run("full refund cancels the order", func(t *testing.T) {
		mockLedger := new(MockLedgerRepository)
		mockGateway := new(MockPaymentGateway)
		service := usecase.NewRefundService(mockLedger, mockGateway, logger)

		tx := refundableTransaction()
		order := &model.Order{ID: 42, OrderID: "LS-TEST-000001", Status: model.OrderStatusCompleted}

		mockLedger.On("TransactionByIntentID", ctx, "pi_123").Return(tx, nil)
		mockLedger.On("AccountByUniversalID", ctx, sellerID.String()).Return(sellerAccount, nil)
		mockGateway.On("CreateRefund", ctx, mock.MatchedBy(func(req *provider.RefundRequest) bool {
			return req.AmountCents == 1999
		})).Return(&provider.RefundResult{RefundID: "re_2", AmountCents: 1999, Status: "succeeded"}, nil)
		mockLedger.On("SaveTransaction", ctx, mock.MatchedBy(func(saved *model.PaymentTransaction) bool {
			return saved.Status == model.TransactionStatusRefunded &&
				saved.PlatformFeeRefunded == saved.PlatformFee
		})).Return(nil)
		mockLedger.On("OrderByID", ctx, int64(42)).Return(order, nil)
		mockLedger.On("SaveOrder", ctx, mock.MatchedBy(func(saved *model.Order) bool {
			return saved.Status == model.OrderStatusCancelled
		})).Return(nil)

		// Zero amount means refund the full remaining balance
		outcome, err := service.Refund(ctx, &usecase.RefundInput{PaymentIntentID: "pi_123", SellerID: sellerID})

		assert.NoError(t, err)
		assert.Equal(t, int64(1999), outcome.AmountCents)
		assert.Equal(t, int64(80), outcome.PlatformFeeShare)
		assert.True(t, outcome.OrderCancelled)
		mockLedger.AssertExpectations(t)
	})

	t.Run("refund already applied through the webhook is not applied twice", func(t *testing.T) {
		mockLedger := new(MockLedgerRepository)
		mockGateway := new(MockPaymentGateway)
		service := usecase.NewRefundService(mockLedger, mockGateway, logger)

		// First read sees no refunds; the charge.refunded webhook lands
		// between the provider call and the ledger transaction, so the
		// in-transaction re-read already carries this refund.
		snapshot := refundableTransaction()
		settled := refundableTransaction()
		settled.Status = model.TransactionStatusPartiallyRefunded
		settled.RefundedAmount = 500
		settled.PlatformFeeRefunded = 20

		mockLedger.On("TransactionByIntentID", ctx, "pi_123").Return(snapshot, nil).Once()
		mockLedger.On("AccountByUniversalID", ctx, sellerID.String()).Return(sellerAccount, nil)
		mockGateway.On("CreateRefund", ctx, mock.MatchedBy(func(req *provider.RefundRequest) bool {
			return req.AmountCents == 500
		})).Return(&provider.RefundResult{RefundID: "re_3", AmountCents: 500, Status: "succeeded"}, nil)
		mockLedger.On("TransactionByIntentID", ctx, "pi_123").Return(settled, nil).Once()

		outcome, err := service.Refund(ctx, &usecase.RefundInput{
			PaymentIntentID: "pi_123",
			SellerID:        sellerID,
			AmountCents:     500,
		})

		assert.NoError(t, err)
		assert.Equal(t, model.TransactionStatusPartiallyRefunded, outcome.TransactionStatus)
		assert.Equal(t, int64(500), settled.RefundedAmount)
		assert.Equal(t, int64(20), settled.PlatformFeeRefunded)
		mockLedger.AssertNotCalled(t, "SaveTransaction", mock.Anything, mock.Anything)
		mockLedger.AssertExpectations(t)
	})

	t.Run("concurrent refund overlap applies only the unseen part", func(t *testing.T) {
		mockLedger := new(MockLedgerRepository)
		mockGateway := new(MockPaymentGateway)
		service := usecase.NewRefundService(mockLedger, mockGateway, logger)

		snapshot := refundableTransaction()
		partial := refundableTransaction()
		partial.Status = model.TransactionStatusPartiallyRefunded
		partial.RefundedAmount = 200
		partial.PlatformFeeRefunded = 8

		mockLedger.On("TransactionByIntentID", ctx, "pi_123").Return(snapshot, nil).Once()
		mockLedger.On("AccountByUniversalID", ctx, sellerID.String()).Return(sellerAccount, nil)
		mockGateway.On("CreateRefund", ctx, mock.Anything).
			Return(&provider.RefundResult{RefundID: "re_4", AmountCents: 500, Status: "succeeded"}, nil)
		mockLedger.On("TransactionByIntentID", ctx, "pi_123").Return(partial, nil).Once()
		mockLedger.On("SaveTransaction", ctx, mock.MatchedBy(func(saved *model.PaymentTransaction) bool {
			// Cumulative target is 0+500; 200 is already on the row, so only
			// 300 more lands.
			return saved.RefundedAmount == 500 && saved.PlatformFeeRefunded == 20
		})).Return(nil)

		_, err := service.Refund(ctx, &usecase.RefundInput{
			PaymentIntentID: "pi_123",
			SellerID:        sellerID,
			AmountCents:     500,
		})

		assert.NoError(t, err)
		mockLedger.AssertExpectations(t)
	})

	t.Run("transaction owned by another seller is not refundable", func(t *testing.T) {
		mockLedger := new(MockLedgerRepository)
		mockGateway := new(MockPaymentGateway)
		service := usecase.NewRefundService(mockLedger, mockGateway, logger)

		tx := refundableTransaction() // Connect account 3
		otherSeller := uuid.New()
		mockLedger.On("TransactionByIntentID", ctx, "pi_123").Return(tx, nil)
		mockLedger.On("AccountByUniversalID", ctx, otherSeller.String()).
			Return(&model.ConnectAccount{ID: 9, UniversalID: otherSeller}, nil)

		_, err := service.Refund(ctx, &usecase.RefundInput{
			PaymentIntentID: "pi_123",
			SellerID:        otherSeller,
			AmountCents:     500,
		})

		assert.ErrorIs(t, err, customErr.ErrTransactionNotFound)
		mockGateway.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything)
	})

	t.Run("refund above remaining balance is rejected", func(t *testing.T) {
		mockLedger := new(MockLedgerRepository)
		mockGateway := new(MockPaymentGateway)
		service := usecase.NewRefundService(mockLedger, mockGateway, logger)

		tx := refundableTransaction()
		tx.Status = model.TransactionStatusPartiallyRefunded
		tx.RefundedAmount = 1500
		mockLedger.On("TransactionByIntentID", ctx, "pi_123").Return(tx, nil)
		mockLedger.On("AccountByUniversalID", ctx, sellerID.String()).Return(sellerAccount, nil)

		_, err := service.Refund(ctx, &usecase.RefundInput{PaymentIntentID: "pi_123", SellerID: sellerID, AmountCents: 600})

		var exceeds *customErr.RefundExceedsRemainingError
		assert.ErrorAs(t, err, &exceeds)
		assert.Equal(t, int64(600), exceeds.Requested)
		assert.Equal(t, int64(499), exceeds.Remaining)
		mockGateway.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything)
	})

	t.Run("refund without settled charge is rejected", func(t *testing.T) {
		mockLedger := new(MockLedgerRepository)
		mockGateway := new(MockPaymentGateway)
		service := usecase.NewRefundService(mockLedger, mockGateway, logger)

		tx := pendingTransaction() // never succeeded, no charge
		mockLedger.On("TransactionByIntentID", ctx, "pi_123").Return(tx, nil)
		mockLedger.On("AccountByUniversalID", ctx, sellerID.String()).Return(sellerAccount, nil)

		_, err := service.Refund(ctx, &usecase.RefundInput{PaymentIntentID: "pi_123", SellerID: sellerID, AmountCents: 100})

		assert.ErrorIs(t, err, customErr.ErrChargeMissing)
		mockGateway.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything)
	})

	t.Run("unknown payment intent", func(t *testing.T) {
		mockLedger := new(MockLedgerRepository)
		mockGateway := new(MockPaymentGateway)
		service := usecase.NewRefundService(mockLedger, mockGateway, logger)

		mockLedger.On("TransactionByIntentID", ctx, "pi_missing").Return(nil, nil)

		_, err := service.Refund(ctx, &usecase.RefundInput{PaymentIntentID: "pi_missing", SellerID: sellerID, AmountCents: 100})
		assert.ErrorIs(t, err, customErr.ErrTransactionNotFound)
	})

	t.Run("fully refunded transaction has nothing left", func(t *testing.T) {
		mockLedger := new(MockLedgerRepository)
		mockGateway := new(MockPaymentGateway)
		service := usecase.NewRefundService(mockLedger, mockGateway, logger)

		tx := refundableTransaction()
		tx.Status = model.TransactionStatusRefunded
		tx.RefundedAmount = 1999
		mockLedger.On("TransactionByIntentID", ctx, "pi_123").Return(tx, nil)
		mockLedger.On("AccountByUniversalID", ctx, sellerID.String()).Return(sellerAccount, nil)

		_, err := service.Refund(ctx, &usecase.RefundInput{PaymentIntentID: "pi_123", SellerID: sellerID, AmountCents: 100})

		assert.ErrorIs(t, err, customErr.ErrNotRefundable)
		mockGateway.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything)
	})
}
