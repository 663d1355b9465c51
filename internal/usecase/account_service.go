package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	customErr "github.com/linkstack-app/payment-service/internal/domain/errors"
	"github.com/linkstack-app/payment-service/internal/domain/model"
	"github.com/linkstack-app/payment-service/internal/domain/provider"
	domainRepo "github.com/linkstack-app/payment-service/internal/domain/repository"
)

// AccountService manages seller Connect accounts: creation, onboarding links,
// and reconciliation against the provider's authoritative state.
type AccountService struct {
	ledger  domainRepo.LedgerRepository
	gateway provider.PaymentGateway
	logger  *zap.Logger

	clientBaseURL     string
	defaultFeePercent decimal.Decimal
}

// NewAccountService creates a new account service instance
func NewAccountService(
	ledger domainRepo.LedgerRepository,
	gateway provider.PaymentGateway,
	clientBaseURL string,
	defaultFeePercent decimal.Decimal,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		ledger:            ledger,
		gateway:           gateway,
		clientBaseURL:     clientBaseURL,
		defaultFeePercent: defaultFeePercent,
		logger:            logger,
	}
}

// OnboardingLink is returned to the client to redirect the seller into the
// provider's hosted onboarding flow.
type OnboardingLink struct {
	StripeAccountID string `json:"stripe_account_id"`
	URL             string `json:"url"`
}

// StartOnboarding ensures a Connect account exists for the seller and returns
// a fresh onboarding link. Calling it again before onboarding finishes reuses
// the existing account; provider onboarding links are single-use.
func (s *AccountService) StartOnboarding(ctx context.Context, universalID uuid.UUID, email, country string) (*OnboardingLink, error) {
	account, err := s.ledger.AccountByUniversalID(ctx, universalID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if account == nil {
		state, err := s.gateway.CreateAccount(ctx, &provider.CreateAccountRequest{
			Email:       email,
			Country:     country,
			UniversalID: universalID.String(),
		})
		if err != nil {
			s.logger.Error("Failed to create Connect account",
				zap.String("universal_id", universalID.String()),
				zap.Error(err))
			return nil, err
		}

		account = &model.ConnectAccount{
			UniversalID:           universalID,
			StripeAccountID:       state.AccountID,
			Email:                 email,
			Country:               country,
			Currency:              currencyOrDefault(state.DefaultCurrency),
			PlatformFeePercentage: s.defaultFeePercent,
			Requirements:          model.JSONB{},
			IsActive:              true,
		}
		if err := s.ledger.CreateAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to persist account: %w", err)
		}
		s.logger.Info("Connect account created",
			zap.String("universal_id", universalID.String()),
			zap.String("stripe_account_id", state.AccountID))
	}

	refreshURL := fmt.Sprintf("%s/settings/payments?onboarding=refresh", s.clientBaseURL)
	returnURL := fmt.Sprintf("%s/settings/payments?onboarding=complete", s.clientBaseURL)

	url, err := s.gateway.CreateAccountLink(ctx, account.StripeAccountID, refreshURL, returnURL)
	if err != nil {
		s.logger.Error("Failed to create onboarding link",
			zap.String("stripe_account_id", account.StripeAccountID),
			zap.Error(err))
		return nil, err
	}

	return &OnboardingLink{StripeAccountID: account.StripeAccountID, URL: url}, nil
}

// GetAccount returns the locally cached Connect account for a seller.
func (s *AccountService) GetAccount(ctx context.Context, universalID uuid.UUID) (*model.ConnectAccount, error) {
	account, err := s.ledger.AccountByUniversalID(ctx, universalID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, customErr.ErrAccountNotFound
	}
	return account, nil
}

// SyncAccount pulls the provider's current account state and overwrites the
// cached capability flags. Used when a webhook was missed or on demand after
// the seller returns from onboarding.
func (s *AccountService) SyncAccount(ctx context.Context, universalID uuid.UUID) (*model.ConnectAccount, error) {
	account, err := s.ledger.AccountByUniversalID(ctx, universalID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, customErr.ErrAccountNotFound
	}

	state, err := s.gateway.GetAccount(ctx, account.StripeAccountID)
	if err != nil {
		s.logger.Error("Failed to fetch provider account state",
			zap.String("stripe_account_id", account.StripeAccountID),
			zap.Error(err))
		return nil, err
	}

	applyAccountState(account, state, time.Now().UTC())

	if err := s.ledger.SaveAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to persist account: %w", err)
	}

	s.logger.Info("Connect account synced",
		zap.String("stripe_account_id", account.StripeAccountID),
		zap.Bool("charges_enabled", account.ChargesEnabled),
		zap.Bool("payouts_enabled", account.PayoutsEnabled))

	return account, nil
}

// applyAccountState maps a provider AccountState onto the local row.
func applyAccountState(account *model.ConnectAccount, state *provider.AccountState, now time.Time) {
	requirements := model.JSONB{}
	if len(state.RequirementsDue) > 0 {
		requirements["currently_due"] = state.RequirementsDue
	}
	var disabledReason *string
	if state.DisabledReason != "" {
		reason := state.DisabledReason
		disabledReason = &reason
	}

	account.ApplyProviderState(
		state.ChargesEnabled,
		state.PayoutsEnabled,
		state.DetailsSubmitted,
		requirements,
		disabledReason,
		now,
	)
	if state.DefaultCurrency != "" {
		account.Currency = state.DefaultCurrency
	}
	if state.Email != "" {
		account.Email = state.Email
	}
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return "usd"
	}
	return currency
}
