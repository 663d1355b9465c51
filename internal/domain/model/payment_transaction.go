package model

import (
	"database/sql/driver"
	"time"
)

// TransactionStatus represents the status of a payment transaction
type TransactionStatus string

const (
	TransactionStatusPending           TransactionStatus = "pending"
	TransactionStatusSucceeded         TransactionStatus = "succeeded"
	TransactionStatusFailed            TransactionStatus = "failed"
	TransactionStatusRefunded          TransactionStatus = "refunded"
	TransactionStatusPartiallyRefunded TransactionStatus = "partially_refunded"
)

// Scan implements sql.Scanner interface
func (s *TransactionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = TransactionStatus(v)
	case []byte:
		*s = TransactionStatus(v)
	default:
		*s = TransactionStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s TransactionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// CanTransitionTo enforces the one-way status progression:
// pending → succeeded|failed, succeeded → (partially_)refunded,
// partially_refunded → refunded. No transition ever reverts.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case TransactionStatusPending:
		return next == TransactionStatusSucceeded || next == TransactionStatusFailed
	case TransactionStatusSucceeded:
		return next == TransactionStatusRefunded || next == TransactionStatusPartiallyRefunded
	case TransactionStatusPartiallyRefunded:
		return next == TransactionStatusRefunded || next == TransactionStatusPartiallyRefunded
	default:
		return false
	}
}

// PaymentTransaction is one row per checkout attempt / PaymentIntent. All
// amounts are integer minor currency units. Mutated by webhook handlers and
// the refund service only, never by direct user action.
type PaymentTransaction struct {
	ID                    int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID               int64             `gorm:"column:order_id;not null;index" json:"order_id"`
	ConnectAccountID      int64             `gorm:"column:connect_account_id;not null;index" json:"connect_account_id"`
	StripeSessionID       *string           `gorm:"column:stripe_session_id;unique;size:100" json:"stripe_session_id,omitempty"`
	StripePaymentIntentID *string           `gorm:"column:stripe_payment_intent_id;unique;size:100" json:"stripe_payment_intent_id,omitempty"`
	StripeChargeID        *string           `gorm:"column:stripe_charge_id;size:100" json:"stripe_charge_id,omitempty"`
	StripeTransferID      *string           `gorm:"column:stripe_transfer_id;size:100" json:"stripe_transfer_id,omitempty"`
	TotalAmount           int64             `gorm:"column:total_amount;not null" json:"total_amount"`
	PlatformFee           int64             `gorm:"column:platform_fee;not null" json:"platform_fee"`
	SellerAmount          int64             `gorm:"column:seller_amount;not null" json:"seller_amount"`
	Currency              string            `gorm:"size:3;not null" json:"currency"`
	Status                TransactionStatus `gorm:"type:transaction_status;not null;default:'pending'" json:"status"`
	RefundedAmount        int64             `gorm:"column:refunded_amount;default:0" json:"refunded_amount"`
	PlatformFeeRefunded   int64             `gorm:"column:platform_fee_refunded;default:0" json:"platform_fee_refunded"`
	FailureCode           *string           `gorm:"size:100" json:"failure_code,omitempty"`
	FailureMessage        *string           `json:"failure_message,omitempty"`
	Metadata              JSONB             `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	SucceededAt           *time.Time        `json:"succeeded_at,omitempty"`
	CreatedAt             time.Time         `gorm:"default:now()" json:"created_at"`
	UpdatedAt             time.Time         `gorm:"default:now()" json:"updated_at"`

	// Relations
	Order          *Order          `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	ConnectAccount *ConnectAccount `gorm:"foreignKey:ConnectAccountID" json:"connect_account,omitempty"`
}

// TableName specifies the table name for GORM
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// RemainingRefundable returns how much of the transaction can still be refunded.
func (t *PaymentTransaction) RemainingRefundable() int64 {
	return t.TotalAmount - t.RefundedAmount
}

// MarkSucceeded transitions pending → succeeded. Returns false when the
// transition is not allowed (duplicate or stale delivery).
func (t *PaymentTransaction) MarkSucceeded(chargeID string, now time.Time) bool {
	if !t.Status.CanTransitionTo(TransactionStatusSucceeded) {
		return false
	}
	t.Status = TransactionStatusSucceeded
	if chargeID != "" {
		t.StripeChargeID = &chargeID
	}
	t.SucceededAt = &now
	return true
}

// MarkFailed transitions pending → failed recording the provider's reason.
func (t *PaymentTransaction) MarkFailed(code, message string) bool {
	if !t.Status.CanTransitionTo(TransactionStatusFailed) {
		return false
	}
	t.Status = TransactionStatusFailed
	if code != "" {
		t.FailureCode = &code
	}
	if message != "" {
		t.FailureMessage = &message
	}
	return true
}

// ApplyRefund accumulates a refund against the transaction and advances the
// status. amount and feeShare must already be validated against the remaining
// balance; fee accumulation is capped at the original platform fee so a full
// refund returns exactly the fee that was taken.
func (t *PaymentTransaction) ApplyRefund(amount, feeShare int64) bool {
	next := TransactionStatusPartiallyRefunded
	if t.RefundedAmount+amount >= t.TotalAmount {
		next = TransactionStatusRefunded
	}
	if !t.Status.CanTransitionTo(next) {
		return false
	}
	t.RefundedAmount += amount
	t.PlatformFeeRefunded += feeShare
	if next == TransactionStatusRefunded || t.PlatformFeeRefunded > t.PlatformFee {
		t.PlatformFeeRefunded = t.PlatformFee
	}
	t.Status = next
	return true
}
