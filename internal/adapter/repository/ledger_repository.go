package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linkstack-app/payment-service/internal/domain/model"
	domainRepo "github.com/linkstack-app/payment-service/internal/domain/repository"
)

// ledgerRepository implements the LedgerRepository interface on GORM.
type ledgerRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository instance
func NewLedgerRepository(db *gorm.DB, logger *zap.Logger) domainRepo.LedgerRepository {
	return &ledgerRepository{
		db:     db,
		logger: logger,
	}
}

// Atomically runs fn inside one database transaction.
func (r *ledgerRepository) Atomically(ctx context.Context, fn func(ctx context.Context, ledger domainRepo.Ledger) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &ledgerRepository{db: tx, logger: r.logger})
	})
}

// RecordEventOnce inserts the webhook event row and runs apply in the same
// transaction. The unique constraint on stripe_event_id is the idempotency
// gate: a concurrent or repeated delivery inserts zero rows and the handler
// is skipped. An apply error rolls back the event row with every mutation.
func (r *ledgerRepository) RecordEventOnce(ctx context.Context, event *model.ConnectWebhookEvent, apply func(ctx context.Context, ledger domainRepo.Ledger) error) (bool, error) {
	applied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_event_id"}},
			DoNothing: true,
		}).Create(event)
		if result.Error != nil {
			return fmt.Errorf("failed to log webhook event: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			r.logger.Info("Duplicate webhook delivery, skipping handler",
				zap.String("event_id", event.StripeEventID),
				zap.String("event_type", event.EventType))
			return nil
		}

		applied = true
		return apply(ctx, &ledgerRepository{db: tx, logger: r.logger})
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *ledgerRepository) LinkByID(ctx context.Context, id int64) (*model.CustomLink, error) {
	var link model.CustomLink
	err := r.db.WithContext(ctx).First(&link, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get custom link: %w", err)
	}
	return &link, nil
}

func (r *ledgerRepository) IncrementLinkUsage(ctx context.Context, linkID int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.CustomLink{}).
		Where("id = ?", linkID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment link usage: %w", result.Error)
	}
	return nil
}

func (r *ledgerRepository) AccountByID(ctx context.Context, id int64) (*model.ConnectAccount, error) {
	var account model.ConnectAccount
	err := r.db.WithContext(ctx).First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get connect account: %w", err)
	}
	return &account, nil
}

func (r *ledgerRepository) AccountByUniversalID(ctx context.Context, universalID string) (*model.ConnectAccount, error) {
	var account model.ConnectAccount
	err := r.db.WithContext(ctx).
		Where("universal_id = ?", universalID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get connect account by universal id: %w", err)
	}
	return &account, nil
}

func (r *ledgerRepository) AccountByStripeID(ctx context.Context, stripeAccountID string) (*model.ConnectAccount, error) {
	var account model.ConnectAccount
	err := r.db.WithContext(ctx).
		Where("stripe_account_id = ?", stripeAccountID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get connect account by stripe id: %w", err)
	}
	return &account, nil
}

func (r *ledgerRepository) AccountsBatch(ctx context.Context, limit, offset int) ([]*model.ConnectAccount, error) {
	var accounts []*model.ConnectAccount
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list connect accounts: %w", err)
	}
	return accounts, nil
}

func (r *ledgerRepository) CreateAccount(ctx context.Context, account *model.ConnectAccount) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to create connect account: %w", err)
	}
	return nil
}

func (r *ledgerRepository) SaveAccount(ctx context.Context, account *model.ConnectAccount) error {
	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		return fmt.Errorf("failed to save connect account: %w", err)
	}
	return nil
}

func (r *ledgerRepository) CreateOrder(ctx context.Context, order *model.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *ledgerRepository) OrderByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *ledgerRepository) OrderByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order by order id: %w", err)
	}
	return &order, nil
}

func (r *ledgerRepository) SaveOrder(ctx context.Context, order *model.Order) error {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (r *ledgerRepository) OrdersForAccount(ctx context.Context, connectAccountID int64, limit, offset int) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Joins("JOIN custom_links ON custom_links.id = orders.custom_link_id").
		Where("custom_links.connect_account_id = ?", connectAccountID).
		Preload("CustomLink").
		Order("orders.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *model.PaymentTransaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}
	return nil
}

func (r *ledgerRepository) TransactionByIntentID(ctx context.Context, intentID string) (*model.PaymentTransaction, error) {
	var tx model.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("stripe_payment_intent_id = ?", intentID).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction by intent id: %w", err)
	}
	return &tx, nil
}

func (r *ledgerRepository) TransactionBySessionID(ctx context.Context, sessionID string) (*model.PaymentTransaction, error) {
	var tx model.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction by session id: %w", err)
	}
	return &tx, nil
}

func (r *ledgerRepository) TransactionByOrderID(ctx context.Context, orderID int64) (*model.PaymentTransaction, error) {
	var tx model.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction by order id: %w", err)
	}
	return &tx, nil
}

func (r *ledgerRepository) SaveTransaction(ctx context.Context, tx *model.PaymentTransaction) error {
	if err := r.db.WithContext(ctx).Save(tx).Error; err != nil {
		return fmt.Errorf("failed to save payment transaction: %w", err)
	}
	return nil
}

func (r *ledgerRepository) TransactionsForAccount(ctx context.Context, connectAccountID int64, limit, offset int) ([]*model.PaymentTransaction, error) {
	var txs []*model.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("connect_account_id = ?", connectAccountID).
		Preload("Order").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payment transactions: %w", err)
	}
	return txs, nil
}
