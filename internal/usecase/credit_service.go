package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/domain/model"
	domainRepo "github.com/linkstack-app/payment-service/internal/domain/repository"
)

// CreditService handles platform credit business logic. Credits gate paid
// platform features (AI page generation, custom domains); they are unrelated
// to the money that moves through Connect.
type CreditService struct {
	creditRepo domainRepo.CreditRepository
	logger     *zap.Logger
}

// NewCreditService creates a new credit service instance
func NewCreditService(creditRepo domainRepo.CreditRepository, logger *zap.Logger) *CreditService {
	return &CreditService{
		creditRepo: creditRepo,
		logger:     logger,
	}
}

// GetBalance retrieves the current credit balance for a user
func (s *CreditService) GetBalance(ctx context.Context, universalID uuid.UUID) (*model.UserCreditBalance, error) {
	balance, err := s.creditRepo.GetBalance(ctx, universalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// UseCredits deducts credits for a specific feature. The repository holds a
// row lock across the check-and-decrement, so the returned transaction always
// reflects a balance that was actually sufficient.
func (s *CreditService) UseCredits(ctx context.Context, universalID uuid.UUID, amount decimal.Decimal, featureName string, description string) (*model.CreditTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("credit usage amount must be positive")
	}
	if description == "" {
		description = fmt.Sprintf("Credit usage for %s", featureName)
	}

	_, transaction, err := s.creditRepo.UseCredits(ctx, universalID, amount, description, featureName)
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// AllocateCredits grants credits to a user, idempotent on referenceID.
// Returns the allocation transaction; a repeated reference returns the
// existing one.
func (s *CreditService) AllocateCredits(ctx context.Context, universalID uuid.UUID, credits int64, description string, referenceID string) (*model.CreditTransaction, error) {
	if credits <= 0 {
		return nil, fmt.Errorf("credits must be positive for allocation")
	}

	if referenceID != "" {
		existing, err := s.creditRepo.GetTransactionByReference(ctx, referenceID)
		if err != nil {
			return nil, fmt.Errorf("failed to check allocation reference: %w", err)
		}
		if existing != nil {
			s.logger.Info("Credit allocation already processed",
				zap.String("universal_id", universalID.String()),
				zap.String("reference_id", referenceID))
			return existing, nil
		}
	}

	amount := decimal.NewFromInt(credits)
	balance, transaction, err := s.creditRepo.AllocateCredits(ctx, universalID, amount, description, referenceID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Credit allocation completed",
		zap.String("universal_id", universalID.String()),
		zap.Int64("credits", credits),
		zap.String("reference_id", referenceID),
		zap.String("balance", balance.CurrentBalance.String()))

	return transaction, nil
}

// GetHistory returns a user's credit transactions newest first.
func (s *CreditService) GetHistory(ctx context.Context, universalID uuid.UUID, limit, offset int) ([]*model.CreditTransaction, error) {
	return s.creditRepo.GetTransactionHistory(ctx, universalID, limit, offset)
}
