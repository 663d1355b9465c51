package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	customErr "github.com/linkstack-app/payment-service/internal/domain/errors"
	"github.com/linkstack-app/payment-service/internal/domain/model"
	"github.com/linkstack-app/payment-service/internal/domain/provider"
	"github.com/linkstack-app/payment-service/internal/usecase"
)

func TestAccountService_StartOnboarding(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	defaultFee := decimal.RequireFromString("4")

	t.Run("creates account and returns onboarding link", func(t *testing.T) {
		mockLedger := new(MockLedgerRepository)
		mockGateway := new(MockPaymentGateway)
		service := usecase.NewAccountService(mockLedger, mockGateway, "https://linkstack.app", defaultFee, logger)

		uid := uuid.New()
		mockLedger.On("AccountByUniversalID", ctx, uid.String()).Return(nil, nil)
		mockGateway.On("CreateAccount", ctx, &provider.CreateAccountRequest{
			Email:       "seller@example.com",
			Country:     "US",
			UniversalID: uid.String(),
		}).Return(&provider.AccountState{AccountID: "acct_new", DefaultCurrency: "usd"}, nil)
		mockLedger.On("CreateAccount", ctx, mock.MatchedBy(func(acct *model.ConnectAccount) bool {
			return acct.StripeAccountID == "acct_new" &&
				acct.UniversalID == uid &&
				acct.PlatformFeePercentage.Equal(defaultFee) &&
				acct.IsActive
		})).Return(nil)
		mockGateway.On("CreateAccountLink", ctx, "acct_new",
			"https://linkstack.app/settings/payments?onboarding=refresh",
			"https://linkstack.app/settings/payments?onboarding=complete",
		).Return("https://connect.stripe.com/setup/s/abc", nil)

		link, err := service.StartOnboarding(ctx, uid, "seller@example.com", "US")

		assert.NoError(t, err)
		assert.Equal(t, "acct_new", link.StripeAccountID)
		assert.Equal(t, "https://connect.stripe.com/setup/s/abc", link.URL)
		mockLedger.AssertExpectations(t)
		mockGateway.AssertExpectations(t)
	})

	t.Run("existing account gets a fresh link without re-creating", func(t *testing.T) {
		mockLedger := new(MockLedgerRepository)
		mockGateway := new(MockPaymentGateway)
		service := usecase.NewAccountService(mockLedger, mockGateway, "https://linkstack.app", defaultFee, logger)

		uid := uuid.New()
		existing := &model.ConnectAccount{ID: 3, UniversalID: uid, StripeAccountID: "acct_123"}
		mockLedger.On("AccountByUniversalID", ctx, uid.String()).Return(existing, nil)
		mockGateway.On("CreateAccountLink", ctx, "acct_123", mock.Anything, mock.Anything).
			Return("https://connect.stripe.com/setup/s/def", nil)

		link, err := service.StartOnboarding(ctx, uid, "seller@example.com", "US")

		assert.NoError(t, err)
		assert.Equal(t, "acct_123", link.StripeAccountID)
		mockGateway.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
	})
}

func TestAccountService_SyncAccount(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	defaultFee := decimal.RequireFromString("4")

	t.Run("pulls provider state and stamps onboarding completion", func(t *testing.T) {
		mockLedger := new(MockLedgerRepository)
		mockGateway := new(MockPaymentGateway)
		service := usecase.NewAccountService(mockLedger, mockGateway, "https://linkstack.app", defaultFee, logger)

		uid := uuid.New()
		account := &model.ConnectAccount{ID: 3, UniversalID: uid, StripeAccountID: "acct_123", IsActive: true}
		mockLedger.On("AccountByUniversalID", ctx, uid.String()).Return(account, nil)
		mockGateway.On("GetAccount", ctx, "acct_123").Return(&provider.AccountState{
			AccountID:        "acct_123",
			ChargesEnabled:   true,
			PayoutsEnabled:   true,
			DetailsSubmitted: true,
			DefaultCurrency:  "usd",
		}, nil)
		mockLedger.On("SaveAccount", ctx, mock.AnythingOfType("*model.ConnectAccount")).Return(nil)

		synced, err := service.SyncAccount(ctx, uid)

		assert.NoError(t, err)
		assert.True(t, synced.ChargesEnabled)
		assert.True(t, synced.PayoutsEnabled)
		assert.NotNil(t, synced.OnboardingCompletedAt)
		mockLedger.AssertExpectations(t)
	})

	t.Run("missing account", func(t *testing.T) {
		mockLedger := new(MockLedgerRepository)
		mockGateway := new(MockPaymentGateway)
		service := usecase.NewAccountService(mockLedger, mockGateway, "https://linkstack.app", defaultFee, logger)

		uid := uuid.New()
		mockLedger.On("AccountByUniversalID", ctx, uid.String()).Return(nil, nil)

		_, err := service.SyncAccount(ctx, uid)
		assert.ErrorIs(t, err, customErr.ErrAccountNotFound)
	})
}
