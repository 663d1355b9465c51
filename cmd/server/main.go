package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/config"
	"github.com/linkstack-app/payment-service/internal/infrastructure/database"
	httpServer "github.com/linkstack-app/payment-service/internal/infrastructure/http"
	"github.com/linkstack-app/payment-service/internal/infrastructure/mail"
	"github.com/linkstack-app/payment-service/internal/infrastructure/messaging"
	stripeProvider "github.com/linkstack-app/payment-service/internal/infrastructure/provider/stripe"
	"github.com/linkstack-app/payment-service/internal/logger"
	"github.com/linkstack-app/payment-service/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.Service.Environment == "development",
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

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	repos := database.NewRepositories(db, zapLogger)

	// Payment provider
	gateway := stripeProvider.NewGateway(cfg.Service.StripeSecretKey, cfg.Service.ProviderTimeout, zapLogger)

	// Follow-up task queue
	taskQueue, err := messaging.NewTaskQueue(&cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := taskQueue.Close(); err != nil {
			zapLogger.Error("Failed to close redis connection", zap.Error(err))
		}
	}()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Notification worker drains the queue and sends buyer emails
	sender := mail.NewSender(&cfg.Email, zapLogger)
	notifyWorker := worker.NewNotificationWorker(taskQueue, sender, zapLogger)
	go notifyWorker.Run(ctx)

	// Initialize HTTP server
	httpSrv := httpServer.NewServer(cfg, zapLogger, repos, gateway, taskQueue)

	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Server shut down successfully")
}
