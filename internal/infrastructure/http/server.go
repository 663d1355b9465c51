package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/linkstack-app/payment-service/internal/adapter/handler/http"
	"github.com/linkstack-app/payment-service/internal/config"
	"github.com/linkstack-app/payment-service/internal/domain/provider"
	"github.com/linkstack-app/payment-service/internal/infrastructure/database"
	"github.com/linkstack-app/payment-service/internal/logger"
	"github.com/linkstack-app/payment-service/internal/middleware/auth"
	"github.com/linkstack-app/payment-service/internal/usecase"
)

// CustomValidator adapts go-playground/validator to echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	repos    *database.Repositories
	gateway  provider.PaymentGateway
	notifier usecase.Notifier
}

func NewServer(
	cfg *config.Config,
	log *zap.Logger,
	repos *database.Repositories,
	gateway provider.PaymentGateway,
	notifier usecase.Notifier,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	// Middleware
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	return &Server{
		config:   cfg,
		logger:   log,
		echo:     e,
		repos:    repos,
		gateway:  gateway,
		notifier: notifier,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "payment",
		})
	})

	// Services
	checkoutService := usecase.NewCheckoutService(s.repos.Ledger, s.gateway, s.config.Service.ClientURL, s.logger)
	webhookService := usecase.NewWebhookService(s.repos.Ledger, s.notifier, s.logger)
	refundService := usecase.NewRefundService(s.repos.Ledger, s.gateway, s.logger)
	accountService := usecase.NewAccountService(s.repos.Ledger, s.gateway, s.config.Service.ClientURL, s.config.Service.DefaultFeePercent(), s.logger)
	orderService := usecase.NewOrderService(s.repos.Ledger, s.logger)
	creditService := usecase.NewCreditService(s.repos.Credit, s.logger)

	// Handlers
	webhookHandler := handlers.NewWebhookHandler(s.logger, s.config.Service.StripeWebhookSecret, webhookService)
	checkoutHandler := handlers.NewCheckoutHandler(s.logger, checkoutService)
	refundHandler := handlers.NewRefundHandler(s.logger, refundService)
	connectHandler := handlers.NewConnectHandler(s.logger, accountService)
	orderHandler := handlers.NewOrderHandler(s.logger, orderService)
	creditHandler := handlers.NewCreditHandler(s.logger, creditService)

	// JWT middleware configuration
	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
			"/webhook",
			"/api/v1/checkout",
		},
	}

	// API v1 routes
	v1 := s.echo.Group("/api/v1", auth.JWTMiddleware(jwtConfig))

	// Checkout is public: buyers are anonymous
	checkout := v1.Group("/checkout")
	checkout.POST("/sessions", checkoutHandler.CreateSession)
	checkout.POST("/payment-intents", checkoutHandler.CreateIntent)

	// Connect accounts (sellers)
	connect := v1.Group("/connect/accounts")
	connect.POST("", connectHandler.StartOnboarding)
	connect.POST("/sync", connectHandler.SyncAccount)
	connect.GET("/me", connectHandler.GetAccount)

	// Orders & payments (seller dashboard)
	v1.GET("/orders", orderHandler.ListOrders)
	v1.GET("/orders/:orderID", orderHandler.GetOrder)
	v1.GET("/payments", orderHandler.ListPayments)
	v1.GET("/payments/:intentID", orderHandler.GetPayment)
	v1.POST("/payments/:intentID/refunds", refundHandler.CreateRefund)

	// Credits
	credits := v1.Group("/credits")
	credits.GET("/balance", creditHandler.GetBalance)
	credits.POST("/use", creditHandler.UseCredits)
	credits.GET("/transactions", creditHandler.GetHistory)

	// Webhook route (outside API versioning, verified by signature)
	s.echo.POST("/webhook", webhookHandler.HandleWebhook)
}
