package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linkstack-app/payment-service/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	// Enum types must exist before AutoMigrate references them
	if err := createCustomTypes(db); err != nil {
		logger.Error("Failed to create custom types", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.ConnectAccount{},
		&model.CustomLink{},
		&model.Order{},
		&model.PaymentTransaction{},
		&model.ConnectWebhookEvent{},
		&model.CreditTransaction{},
		&model.UserCreditBalance{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

func createExtensions(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error
}

// createCustomTypes creates the PostgreSQL enum types the models map to
func createCustomTypes(db *gorm.DB) error {
	enums := []struct {
		name   string
		create string
	}{
		{"order_status", `CREATE TYPE order_status AS ENUM ('pending', 'completed', 'cancelled')`},
		{"transaction_status", `CREATE TYPE transaction_status AS ENUM ('pending', 'succeeded', 'failed', 'refunded', 'partially_refunded')`},
		{"credit_transaction_type", `CREATE TYPE credit_transaction_type AS ENUM ('credit_allocation', 'credit_usage', 'refund', 'adjustment')`},
	}

	for _, enum := range enums {
		var exists bool
		db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = ?)`, enum.name).Scan(&exists)
		if !exists {
			if err := db.Exec(enum.create).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// createCustomIndexes creates indexes GORM tags cannot express
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		// Dashboard queries filter on open ledger entries
		`CREATE INDEX IF NOT EXISTS idx_payment_transactions_open ON payment_transactions (connect_account_id, created_at DESC) WHERE status IN ('pending', 'succeeded', 'partially_refunded')`,
		// Reconciliation scans recent webhook events by type
		`CREATE INDEX IF NOT EXISTS idx_webhook_events_type_created ON connect_webhook_events (event_type, created_at DESC)`,
		// Checkout resolves links for a seller's active storefront
		`CREATE INDEX IF NOT EXISTS idx_custom_links_active ON custom_links (connect_account_id) WHERE is_active AND checkout_enabled`,
		// One credit allocation per external reference
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_credit_transactions_reference ON credit_transactions (reference_id) WHERE reference_id IS NOT NULL`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
