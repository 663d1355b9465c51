package model

import (
	"time"

	"github.com/google/uuid"
)

// ConnectWebhookEvent is the audit log of inbound Stripe webhook deliveries.
// The unique constraint on StripeEventID is the idempotency mechanism: the
// insert of this row and the ledger mutation it triggered commit in one
// database transaction. Rows are write-once and never mutated.
type ConnectWebhookEvent struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	StripeEventID   string     `gorm:"column:stripe_event_id;unique;not null;size:255" json:"stripe_event_id"`
	EventType       string     `gorm:"not null;size:100;index" json:"event_type"`
	UniversalID     *uuid.UUID `gorm:"column:universal_id;type:uuid;index" json:"universal_id,omitempty"`
	Payload         JSONB      `gorm:"type:jsonb;not null" json:"payload"`
	Livemode        bool       `gorm:"default:false" json:"livemode"`
	APIVersion      *string    `gorm:"size:20" json:"api_version,omitempty"`
	StripeCreatedAt *time.Time `json:"stripe_created_at,omitempty"`
	CreatedAt       time.Time  `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (ConnectWebhookEvent) TableName() string {
	return "connect_webhook_events"
}
