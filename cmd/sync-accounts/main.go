package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/config"
	"github.com/linkstack-app/payment-service/internal/infrastructure/database"
	stripeProvider "github.com/linkstack-app/payment-service/internal/infrastructure/provider/stripe"
	"github.com/linkstack-app/payment-service/internal/logger"
	"github.com/linkstack-app/payment-service/internal/usecase"
)

const batchSize = 100

// Reconciles every Connect account against the provider's current state.
// Webhook deliveries can be missed; running this periodically (cron) keeps
// payout and charge capabilities accurate.
func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories and the account service
	repos := database.NewRepositories(db, zapLogger)
	gateway := stripeProvider.NewGateway(cfg.Service.StripeSecretKey, cfg.Service.ProviderTimeout, zapLogger)
	accountService := usecase.NewAccountService(repos.Ledger, gateway, cfg.Service.ClientURL, cfg.Service.DefaultFeePercent(), zapLogger)

	ctx := context.Background()

	synced := 0
	failed := 0
	for offset := 0; ; offset += batchSize {
		accounts, err := repos.Ledger.AccountsBatch(ctx, batchSize, offset)
		if err != nil {
			zapLogger.Fatal("Failed to list connect accounts", zap.Error(err))
		}
		if len(accounts) == 0 {
			break
		}

		for _, account := range accounts {
			if _, err := accountService.SyncAccount(ctx, account.UniversalID); err != nil {
				zapLogger.Error("Failed to sync account",
					zap.Int64("account_id", account.ID),
					zap.String("stripe_account_id", account.StripeAccountID),
					zap.Error(err))
				failed++
				continue
			}
			synced++
		}
	}

	zapLogger.Info("Account sync finished",
		zap.Int("synced", synced),
		zap.Int("failed", failed))
}
