package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/linkstack-app/payment-service/internal/domain/model"
)

// CreditRepository defines the interface for credit-ledger operations
type CreditRepository interface {
	// GetBalance retrieves the current credit balance for a user
	GetBalance(ctx context.Context, universalID uuid.UUID) (*model.UserCreditBalance, error)

	// AllocateCredits adds credits to a user's balance atomically.
	// Returns the new balance and the created transaction.
	AllocateCredits(ctx context.Context, universalID uuid.UUID, amount decimal.Decimal, description string, referenceID string) (*model.UserCreditBalance, *model.CreditTransaction, error)

	// UseCredits deducts credits from a user's balance atomically; the
	// balance row stays locked for the whole check-and-decrement.
	UseCredits(ctx context.Context, universalID uuid.UUID, amount decimal.Decimal, description string, featureName string) (*model.UserCreditBalance, *model.CreditTransaction, error)

	// GetTransactionByReference retrieves a transaction by its reference ID (for idempotency)
	GetTransactionByReference(ctx context.Context, referenceID string) (*model.CreditTransaction, error)

	// GetTransactionHistory retrieves transaction history for a user, newest first
	GetTransactionHistory(ctx context.Context, universalID uuid.UUID, limit, offset int) ([]*model.CreditTransaction, error)
}
