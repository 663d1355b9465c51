package usecase_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linkstack-app/payment-service/internal/domain/model"
	"github.com/linkstack-app/payment-service/internal/domain/provider"
	domainRepo "github.com/linkstack-app/payment-service/internal/domain/repository"
)

// MockLedgerRepository is a mock implementation of LedgerRepository. The
// transactional wrappers run their callbacks against the mock itself.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Atomically(ctx context.Context, fn func(ctx context.Context, ledger domainRepo.Ledger) error) error {
	return fn(ctx, m)
}

func (m *MockLedgerRepository) RecordEventOnce(ctx context.Context, event *model.ConnectWebhookEvent, apply func(ctx context.Context, ledger domainRepo.Ledger) error) (bool, error) {
	args := m.Called(ctx, event)
	if args.Error(1) != nil {
		return false, args.Error(1)
	}
	if !args.Bool(0) {
		return false, nil
	}
	if err := apply(ctx, m); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MockLedgerRepository) LinkByID(ctx context.Context, id int64) (*model.CustomLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CustomLink), args.Error(1)
}

func (m *MockLedgerRepository) IncrementLinkUsage(ctx context.Context, linkID int64) error {
	args := m.Called(ctx, linkID)
	return args.Error(0)
}

func (m *MockLedgerRepository) AccountByID(ctx context.Context, id int64) (*model.ConnectAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectAccount), args.Error(1)
}

func (m *MockLedgerRepository) AccountByUniversalID(ctx context.Context, universalID string) (*model.ConnectAccount, error) {
	args := m.Called(ctx, universalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectAccount), args.Error(1)
}

func (m *MockLedgerRepository) AccountByStripeID(ctx context.Context, stripeAccountID string) (*model.ConnectAccount, error) {
	args := m.Called(ctx, stripeAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectAccount), args.Error(1)
}

func (m *MockLedgerRepository) AccountsBatch(ctx context.Context, limit, offset int) ([]*model.ConnectAccount, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ConnectAccount), args.Error(1)
}

func (m *MockLedgerRepository) CreateAccount(ctx context.Context, account *model.ConnectAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockLedgerRepository) SaveAccount(ctx context.Context, account *model.ConnectAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockLedgerRepository) CreateOrder(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockLedgerRepository) OrderByID(ctx context.Context, id int64) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockLedgerRepository) OrderByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockLedgerRepository) SaveOrder(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockLedgerRepository) OrdersForAccount(ctx context.Context, connectAccountID int64, limit, offset int) ([]*model.Order, error) {
	args := m.Called(ctx, connectAccountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

func (m *MockLedgerRepository) CreateTransaction(ctx context.Context, tx *model.PaymentTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLedgerRepository) TransactionByIntentID(ctx context.Context, intentID string) (*model.PaymentTransaction, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentTransaction), args.Error(1)
}

func (m *MockLedgerRepository) TransactionBySessionID(ctx context.Context, sessionID string) (*model.PaymentTransaction, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentTransaction), args.Error(1)
}

func (m *MockLedgerRepository) TransactionByOrderID(ctx context.Context, orderID int64) (*model.PaymentTransaction, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentTransaction), args.Error(1)
}

func (m *MockLedgerRepository) SaveTransaction(ctx context.Context, tx *model.PaymentTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLedgerRepository) TransactionsForAccount(ctx context.Context, connectAccountID int64, limit, offset int) ([]*model.PaymentTransaction, error) {
	args := m.Called(ctx, connectAccountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PaymentTransaction), args.Error(1)
}

// MockPaymentGateway is a mock implementation of the provider gateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateCheckoutSession(ctx context.Context, req *provider.CheckoutSessionRequest) (*provider.CheckoutSessionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CheckoutSessionResult), args.Error(1)
}

func (m *MockPaymentGateway) CreatePaymentIntent(ctx context.Context, req *provider.PaymentIntentRequest) (*provider.PaymentIntentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.PaymentIntentResult), args.Error(1)
}

func (m *MockPaymentGateway) CreateRefund(ctx context.Context, req *provider.RefundRequest) (*provider.RefundResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.RefundResult), args.Error(1)
}

func (m *MockPaymentGateway) CreateAccount(ctx context.Context, req *provider.CreateAccountRequest) (*provider.AccountState, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.AccountState), args.Error(1)
}

func (m *MockPaymentGateway) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	args := m.Called(ctx, accountID, refreshURL, returnURL)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentGateway) GetAccount(ctx context.Context, accountID string) (*provider.AccountState, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.AccountState), args.Error(1)
}

// MockNotifier is a mock implementation of the post-payment notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) EnqueueOrderConfirmation(ctx context.Context, order *model.Order, tx *model.PaymentTransaction) error {
	args := m.Called(ctx, order, tx)
	return args.Error(0)
}

func (m *MockNotifier) EnqueueRefundNotice(ctx context.Context, order *model.Order, tx *model.PaymentTransaction, amountCents int64) error {
	args := m.Called(ctx, order, tx, amountCents)
	return args.Error(0)
}
