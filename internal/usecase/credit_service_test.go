package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	domainErrors "github.com/linkstack-app/payment-service/internal/domain/errors"
	"github.com/linkstack-app/payment-service/internal/domain/model"
	"github.com/linkstack-app/payment-service/internal/usecase"
)

// MockCreditRepository is a mock implementation of CreditRepository
type MockCreditRepository struct {
	mock.Mock
}

func (m *MockCreditRepository) GetBalance(ctx context.Context, universalID uuid.UUID) (*model.UserCreditBalance, error) {
	args := m.Called(ctx, universalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserCreditBalance), args.Error(1)
}

func (m *MockCreditRepository) AllocateCredits(ctx context.Context, universalID uuid.UUID, amount decimal.Decimal, description string, referenceID string) (*model.UserCreditBalance, *model.CreditTransaction, error) {
	args := m.Called(ctx, universalID, amount, description, referenceID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.UserCreditBalance), args.Get(1).(*model.CreditTransaction), args.Error(2)
}

func (m *MockCreditRepository) UseCredits(ctx context.Context, universalID uuid.UUID, amount decimal.Decimal, description string, featureName string) (*model.UserCreditBalance, *model.CreditTransaction, error) {
	args := m.Called(ctx, universalID, amount, description, featureName)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.UserCreditBalance), args.Get(1).(*model.CreditTransaction), args.Error(2)
}

func (m *MockCreditRepository) GetTransactionByReference(ctx context.Context, referenceID string) (*model.CreditTransaction, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreditTransaction), args.Error(1)
}

func (m *MockCreditRepository) GetTransactionHistory(ctx context.Context, universalID uuid.UUID, limit, offset int) ([]*model.CreditTransaction, error) {
	args := m.Called(ctx, universalID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CreditTransaction), args.Error(1)
}

func TestCreditService_GetBalance(t *testing.T) {
	ctx := context.Background()
	universalID := uuid.New()

	mockRepo := new(MockCreditRepository)
	service := usecase.NewCreditService(mockRepo, zap.NewNop())

	mockRepo.On("GetBalance", ctx, universalID).Return(&model.UserCreditBalance{
		UniversalID:    universalID,
		CurrentBalance: decimal.NewFromInt(42),
	}, nil)

	balance, err := service.GetBalance(ctx, universalID)

	assert.NoError(t, err)
	assert.True(t, balance.CurrentBalance.Equal(decimal.NewFromInt(42)))
	mockRepo.AssertExpectations(t)
}

func TestCreditService_UseCredits(t *testing.T) {
	ctx := context.Background()
	universalID := uuid.New()

	t.Run("deducts credits for a feature", func(t *testing.T) {
		mockRepo := new(MockCreditRepository)
		service := usecase.NewCreditService(mockRepo, zap.NewNop())

		amount := decimal.NewFromInt(5)
		mockRepo.On("UseCredits", ctx, universalID, amount, "Credit usage for ai_page_generation", "ai_page_generation").
			Return(
				&model.UserCreditBalance{UniversalID: universalID, CurrentBalance: decimal.NewFromInt(95)},
				&model.CreditTransaction{
					ID:              10,
					UniversalID:     universalID,
					TransactionType: model.TransactionTypeCreditUsage,
					Amount:          amount.Neg(),
					BalanceAfter:    decimal.NewFromInt(95),
				}, nil)

		transaction, err := service.UseCredits(ctx, universalID, amount, "ai_page_generation", "")

		assert.NoError(t, err)
		assert.Equal(t, model.TransactionTypeCreditUsage, transaction.TransactionType)
		assert.True(t, transaction.BalanceAfter.Equal(decimal.NewFromInt(95)))
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects non-positive amounts without touching the repository", func(t *testing.T) {
		mockRepo := new(MockCreditRepository)
		service := usecase.NewCreditService(mockRepo, zap.NewNop())

		_, err := service.UseCredits(ctx, universalID, decimal.Zero, "ai_page_generation", "")

		assert.Error(t, err)
		mockRepo.AssertNotCalled(t, "UseCredits")
	})

	t.Run("propagates insufficient balance", func(t *testing.T) {
		mockRepo := new(MockCreditRepository)
		service := usecase.NewCreditService(mockRepo, zap.NewNop())

		amount := decimal.NewFromInt(500)
		insufficientErr := domainErrors.NewInsufficientBalanceError(amount, decimal.NewFromInt(3))
		mockRepo.On("UseCredits", ctx, universalID, amount, "custom text", "custom_domain").
			Return(nil, nil, insufficientErr)

		_, err := service.UseCredits(ctx, universalID, amount, "custom_domain", "custom text")

		var target *domainErrors.InsufficientBalanceError
		assert.ErrorAs(t, err, &target)
		mockRepo.AssertExpectations(t)
	})
}

func TestCreditService_AllocateCredits(t *testing.T) {
	ctx := context.Background()
	universalID := uuid.New()

	t.Run("grants credits", func(t *testing.T) {
		mockRepo := new(MockCreditRepository)
		service := usecase.NewCreditService(mockRepo, zap.NewNop())

		amount := decimal.NewFromInt(100)
		mockRepo.On("GetTransactionByReference", ctx, "sub_202608").Return(nil, nil)
		mockRepo.On("AllocateCredits", ctx, universalID, amount, "Monthly allocation", "sub_202608").
			Return(
				&model.UserCreditBalance{UniversalID: universalID, CurrentBalance: decimal.NewFromInt(100)},
				&model.CreditTransaction{
					ID:              1,
					UniversalID:     universalID,
					TransactionType: model.TransactionTypeCreditAllocation,
					Amount:          amount,
					BalanceAfter:    decimal.NewFromInt(100),
				}, nil)

		transaction, err := service.AllocateCredits(ctx, universalID, 100, "Monthly allocation", "sub_202608")

		assert.NoError(t, err)
		assert.Equal(t, model.TransactionTypeCreditAllocation, transaction.TransactionType)
		mockRepo.AssertExpectations(t)
	})

	t.Run("repeated reference returns the original transaction", func(t *testing.T) {
		mockRepo := new(MockCreditRepository)
		service := usecase.NewCreditService(mockRepo, zap.NewNop())

		amount := decimal.NewFromInt(100)
		existing := &model.CreditTransaction{
			ID:              1,
			UniversalID:     universalID,
			TransactionType: model.TransactionTypeCreditAllocation,
			Amount:          amount,
			BalanceAfter:    decimal.NewFromInt(100),
		}
		mockRepo.On("GetTransactionByReference", ctx, "sub_202608").Return(nil, nil).Once()
		mockRepo.On("AllocateCredits", ctx, universalID, amount, "Monthly allocation", "sub_202608").
			Return(&model.UserCreditBalance{UniversalID: universalID, CurrentBalance: decimal.NewFromInt(100)}, existing, nil).
			Once()
		mockRepo.On("GetTransactionByReference", ctx, "sub_202608").Return(existing, nil).Once()

		first, err := service.AllocateCredits(ctx, universalID, 100, "Monthly allocation", "sub_202608")
		assert.NoError(t, err)
		second, err := service.AllocateCredits(ctx, universalID, 100, "Monthly allocation", "sub_202608")
		assert.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		mockRepo.AssertNumberOfCalls(t, "AllocateCredits", 1)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects non-positive grants", func(t *testing.T) {
		mockRepo := new(MockCreditRepository)
		service := usecase.NewCreditService(mockRepo, zap.NewNop())

		_, err := service.AllocateCredits(ctx, universalID, 0, "Monthly allocation", "sub_202608")

		assert.Error(t, err)
		mockRepo.AssertNotCalled(t, "AllocateCredits")
	})
}

func TestCreditService_GetHistory(t *testing.T) {
	ctx := context.Background()
	universalID := uuid.New()

	mockRepo := new(MockCreditRepository)
	service := usecase.NewCreditService(mockRepo, zap.NewNop())

	mockRepo.On("GetTransactionHistory", ctx, universalID, 20, 0).
		Return([]*model.CreditTransaction{
			{ID: 2, TransactionType: model.TransactionTypeCreditUsage},
			{ID: 1, TransactionType: model.TransactionTypeCreditAllocation},
		}, nil)

	history, err := service.GetHistory(ctx, universalID, 20, 0)

	assert.NoError(t, err)
	assert.Len(t, history, 2)
	mockRepo.AssertExpectations(t)
}
