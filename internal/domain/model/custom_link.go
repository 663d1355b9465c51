package model

import (
	"time"
)

// CustomLink is a storefront link with checkout enabled: the product a buyer
// pays for. Prices are minor currency units (cents).
type CustomLink struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConnectAccountID   int64      `gorm:"column:connect_account_id;not null;index" json:"connect_account_id"`
	Title              string     `gorm:"not null;size:200" json:"title"`
	Slug               string     `gorm:"unique;not null;size:200" json:"slug"`
	PriceCents         *int64     `gorm:"column:price_cents" json:"price_cents,omitempty"`
	DiscountPriceCents *int64     `gorm:"column:discount_price_cents" json:"discount_price_cents,omitempty"`
	Currency           string     `gorm:"size:3;default:'usd'" json:"currency"`
	CheckoutEnabled    bool       `gorm:"column:checkout_enabled;default:true" json:"checkout_enabled"`
	UsageCount         int64      `gorm:"column:usage_count;default:0" json:"usage_count"`
	IsActive           bool       `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt          time.Time  `gorm:"default:now()" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"default:now()" json:"updated_at"`
	DeactivatedAt      *time.Time `gorm:"column:deactivated_at" json:"deactivated_at,omitempty"`

	// Relations
	ConnectAccount *ConnectAccount `gorm:"foreignKey:ConnectAccountID" json:"connect_account,omitempty"`
}

// TableName specifies the table name for GORM
func (CustomLink) TableName() string {
	return "custom_links"
}

// EffectivePriceCents returns the amount actually charged: the discount price
// when one is set and lower than the base price. Nil when no price exists.
func (l *CustomLink) EffectivePriceCents() *int64 {
	if l.PriceCents == nil {
		return nil
	}
	if l.DiscountPriceCents != nil && *l.DiscountPriceCents > 0 && *l.DiscountPriceCents < *l.PriceCents {
		return l.DiscountPriceCents
	}
	return l.PriceCents
}
