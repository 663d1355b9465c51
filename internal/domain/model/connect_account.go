package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConnectAccount represents a seller's Stripe Connect account.
// One row per seller; created when onboarding starts and never deleted.
// Deactivation is expressed through IsActive.
type ConnectAccount struct {
	ID                    int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UniversalID           uuid.UUID       `gorm:"column:universal_id;type:uuid;not null;uniqueIndex" json:"universal_id"`
	StripeAccountID       string          `gorm:"column:stripe_account_id;unique;not null;size:100" json:"stripe_account_id"`
	Email                 string          `gorm:"size:255" json:"email"`
	Country               string          `gorm:"size:2" json:"country"`
	Currency              string          `gorm:"size:3;default:'usd'" json:"currency"`
	ChargesEnabled        bool            `gorm:"default:false" json:"charges_enabled"`
	PayoutsEnabled        bool            `gorm:"default:false" json:"payouts_enabled"`
	DetailsSubmitted      bool            `gorm:"default:false" json:"details_submitted"`
	Requirements          JSONB           `gorm:"type:jsonb;default:'{}'" json:"requirements"`
	DisabledReason        *string         `gorm:"size:100" json:"disabled_reason,omitempty"`
	PlatformFeePercentage decimal.Decimal `gorm:"column:platform_fee_percentage;type:decimal(5,2);not null" json:"platform_fee_percentage"`
	OnboardingCompletedAt *time.Time      `gorm:"column:onboarding_completed_at" json:"onboarding_completed_at,omitempty"`
	IsActive              bool            `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt             time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ConnectAccount) TableName() string {
	return "connect_accounts"
}

// FullyEnabled reports whether the account can both take charges and receive payouts.
func (a *ConnectAccount) FullyEnabled() bool {
	return a.ChargesEnabled && a.PayoutsEnabled
}

// ApplyProviderState overwrites the locally cached capability flags with the
// provider's authoritative state. Out-of-order deliveries re-assert old but
// valid data instead of corrupting it. OnboardingCompletedAt is stamped the
// first time the account becomes fully enabled and is never overwritten.
func (a *ConnectAccount) ApplyProviderState(chargesEnabled, payoutsEnabled, detailsSubmitted bool, requirements JSONB, disabledReason *string, now time.Time) {
	a.ChargesEnabled = chargesEnabled
	a.PayoutsEnabled = payoutsEnabled
	a.DetailsSubmitted = detailsSubmitted
	a.Requirements = requirements
	a.DisabledReason = disabledReason

	if a.OnboardingCompletedAt == nil && a.FullyEnabled() {
		completed := now
		a.OnboardingCompletedAt = &completed
	}
}
