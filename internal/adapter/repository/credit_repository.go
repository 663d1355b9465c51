package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainErrors "github.com/linkstack-app/payment-service/internal/domain/errors"
	"github.com/linkstack-app/payment-service/internal/domain/model"
	domainRepo "github.com/linkstack-app/payment-service/internal/domain/repository"
)

// creditRepository implements the CreditRepository interface
type creditRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCreditRepository creates a new credit repository instance
func NewCreditRepository(db *gorm.DB, logger *zap.Logger) domainRepo.CreditRepository {
	return &creditRepository{
		db:     db,
		logger: logger,
	}
}

// GetBalance retrieves the current credit balance for a universal ID
func (r *creditRepository) GetBalance(ctx context.Context, universalID uuid.UUID) (*model.UserCreditBalance, error) {
	var balance model.UserCreditBalance

	err := r.db.WithContext(ctx).
		Where("universal_id = ?", universalID).
		First(&balance).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Zero balance for users who never transacted
			return &model.UserCreditBalance{
				UniversalID:    universalID,
				CurrentBalance: decimal.Zero,
			}, nil
		}
		r.logger.Error("Failed to get credit balance",
			zap.String("universal_id", universalID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get credit balance: %w", err)
	}

	return &balance, nil
}

// AllocateCredits adds credits to a universal ID's balance atomically.
// Allocation is idempotent by reference ID: a repeated call with the same
// reference returns the existing transaction without touching the balance.
func (r *creditRepository) AllocateCredits(ctx context.Context, universalID uuid.UUID, amount decimal.Decimal, description string, referenceID string) (*model.UserCreditBalance, *model.CreditTransaction, error) {
	var balance *model.UserCreditBalance
	var transaction *model.CreditTransaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if referenceID != "" {
			var existingTx model.CreditTransaction
			err := tx.Where("reference_id = ?", referenceID).First(&existingTx).Error
			if err == nil {
				transaction = &existingTx

				var currentBalance model.UserCreditBalance
				if err := tx.Where("universal_id = ?", universalID).First(&currentBalance).Error; err == nil {
					balance = &currentBalance
				}

				r.logger.Info("Credit allocation already processed",
					zap.String("reference_id", referenceID),
					zap.String("universal_id", universalID.String()))
				return nil
			}
		}

		// Lock the balance row for update, creating it when absent
		var currentBalance model.UserCreditBalance
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("universal_id = ?", universalID).
			FirstOrCreate(&currentBalance, model.UserCreditBalance{
				UniversalID:    universalID,
				CurrentBalance: decimal.Zero,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to lock balance: %w", err)
		}

		newBalance := currentBalance.CurrentBalance.Add(amount)

		transaction = &model.CreditTransaction{
			UniversalID:     universalID,
			TransactionType: model.TransactionTypeCreditAllocation,
			Amount:          amount,
			BalanceAfter:    newBalance,
			Description:     description,
		}
		if referenceID != "" {
			transaction.ReferenceID = &referenceID
		}

		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		currentBalance.CurrentBalance = newBalance
		currentBalance.LastTransactionAt = transaction.CreatedAt
		if err := tx.Save(&currentBalance).Error; err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		balance = &currentBalance
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to allocate credits",
			zap.String("universal_id", universalID.String()),
			zap.String("amount", amount.String()),
			zap.String("reference_id", referenceID),
			zap.Error(err))
		return nil, nil, fmt.Errorf("failed to allocate credits: %w", err)
	}

	r.logger.Info("Credits allocated",
		zap.String("universal_id", universalID.String()),
		zap.String("amount", amount.String()),
		zap.String("new_balance", balance.CurrentBalance.String()),
		zap.String("reference_id", referenceID))

	return balance, transaction, nil
}

// UseCredits deducts credits from a universal ID's balance. The balance row
// is locked for the whole check-and-decrement so two concurrent requests
// cannot both pass the sufficiency check against a stale balance.
func (r *creditRepository) UseCredits(ctx context.Context, universalID uuid.UUID, amount decimal.Decimal, description string, featureName string) (*model.UserCreditBalance, *model.CreditTransaction, error) {
	var balance *model.UserCreditBalance
	var transaction *model.CreditTransaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentBalance model.UserCreditBalance
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("universal_id = ?", universalID).
			First(&currentBalance).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainErrors.NewInsufficientBalanceError(amount, decimal.Zero)
			}
			return fmt.Errorf("failed to lock balance: %w", err)
		}

		if currentBalance.CurrentBalance.LessThan(amount) {
			return domainErrors.NewInsufficientBalanceError(amount, currentBalance.CurrentBalance)
		}

		newBalance := currentBalance.CurrentBalance.Sub(amount)

		transaction = &model.CreditTransaction{
			UniversalID:     universalID,
			TransactionType: model.TransactionTypeCreditUsage,
			Amount:          amount.Neg(), // negative for usage
			BalanceAfter:    newBalance,
			Description:     description,
			FeatureName:     &featureName,
		}

		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		currentBalance.CurrentBalance = newBalance
		currentBalance.LastTransactionAt = transaction.CreatedAt
		if err := tx.Save(&currentBalance).Error; err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		balance = &currentBalance
		return nil
	})

	if err != nil {
		var insufficient *domainErrors.InsufficientBalanceError
		if !errors.As(err, &insufficient) {
			r.logger.Error("Failed to use credits",
				zap.String("universal_id", universalID.String()),
				zap.String("amount", amount.String()),
				zap.String("feature", featureName),
				zap.Error(err))
		}
		return nil, nil, err
	}

	r.logger.Info("Credits used",
		zap.String("universal_id", universalID.String()),
		zap.String("amount", amount.String()),
		zap.String("feature", featureName),
		zap.String("balance_after", balance.CurrentBalance.String()))

	return balance, transaction, nil
}

// GetTransactionByReference retrieves a transaction by its reference ID
func (r *creditRepository) GetTransactionByReference(ctx context.Context, referenceID string) (*model.CreditTransaction, error) {
	var transaction model.CreditTransaction

	err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		First(&transaction).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction by reference: %w", err)
	}

	return &transaction, nil
}

// GetTransactionHistory retrieves transaction history for a user, newest first
func (r *creditRepository) GetTransactionHistory(ctx context.Context, universalID uuid.UUID, limit, offset int) ([]*model.CreditTransaction, error) {
	var transactions []*model.CreditTransaction

	if limit < 1 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	err := r.db.WithContext(ctx).
		Where("universal_id = ?", universalID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}

	return transactions, nil
}
