package config

import (
	"time"

	"github.com/shopspring/decimal"
)

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	ClientURL   string `yaml:"client_url"`

	StripeSecretKey     string `yaml:"stripe_secret_key"`
	StripeWebhookSecret string `yaml:"stripe_webhook_secret"`

	// PlatformFeePercent is the default fee applied to new Connect accounts,
	// e.g. "4" for 4%. Per-account overrides live on the account row.
	PlatformFeePercent string `yaml:"platform_fee_percent"`

	// ProviderTimeout bounds each Stripe API call
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
}

// DefaultFeePercent parses the configured platform fee, falling back to 4%.
func (c *ServiceConfig) DefaultFeePercent() decimal.Decimal {
	if c.PlatformFeePercent == "" {
		return decimal.NewFromInt(4)
	}
	pct, err := decimal.NewFromString(c.PlatformFeePercent)
	if err != nil || pct.IsNegative() {
		return decimal.NewFromInt(4)
	}
	return pct
}
