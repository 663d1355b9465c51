package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	customErr "github.com/linkstack-app/payment-service/internal/domain/errors"
	"github.com/linkstack-app/payment-service/internal/domain/model"
	domainRepo "github.com/linkstack-app/payment-service/internal/domain/repository"
)

// OrderService serves the seller dashboard's order and payment views.
type OrderService struct {
	ledger domainRepo.LedgerRepository
	logger *zap.Logger
}

// NewOrderService creates a new order service instance
func NewOrderService(ledger domainRepo.LedgerRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		ledger: ledger,
		logger: logger,
	}
}

// GetOrder returns one of the seller's orders by its human-readable
// identifier.
func (s *OrderService) GetOrder(ctx context.Context, universalID uuid.UUID, orderID string) (*model.Order, error) {
	account, err := s.sellerAccount(ctx, universalID)
	if err != nil {
		return nil, err
	}
	order, err := s.ledger.OrderByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, customErr.ErrOrderNotFound
	}
	link, err := s.ledger.LinkByID(ctx, order.CustomLinkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load link: %w", err)
	}
	if link == nil || link.ConnectAccountID != account.ID {
		// Another seller's order looks the same as a missing one, so the
		// endpoint does not leak which order ids exist.
		return nil, customErr.ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns the seller's orders newest first.
func (s *OrderService) ListOrders(ctx context.Context, universalID uuid.UUID, limit, offset int) ([]*model.Order, error) {
	account, err := s.sellerAccount(ctx, universalID)
	if err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.ledger.OrdersForAccount(ctx, account.ID, limit, offset)
}

// ListTransactions returns the seller's payment transactions newest first.
func (s *OrderService) ListTransactions(ctx context.Context, universalID uuid.UUID, limit, offset int) ([]*model.PaymentTransaction, error) {
	account, err := s.sellerAccount(ctx, universalID)
	if err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.ledger.TransactionsForAccount(ctx, account.ID, limit, offset)
}

// GetTransaction returns one of the seller's transactions by payment intent
// identifier.
func (s *OrderService) GetTransaction(ctx context.Context, universalID uuid.UUID, intentID string) (*model.PaymentTransaction, error) {
	account, err := s.sellerAccount(ctx, universalID)
	if err != nil {
		return nil, err
	}
	tx, err := s.ledger.TransactionByIntentID(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if tx == nil || tx.ConnectAccountID != account.ID {
		return nil, customErr.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *OrderService) sellerAccount(ctx context.Context, universalID uuid.UUID) (*model.ConnectAccount, error) {
	account, err := s.ledger.AccountByUniversalID(ctx, universalID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, customErr.ErrAccountNotFound
	}
	return account, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit < 1 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
