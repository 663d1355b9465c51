package model

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Scan implements sql.Scanner interface
func (s *OrderStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = OrderStatus(v)
	case []byte:
		*s = OrderStatus(v)
	default:
		*s = OrderStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Order represents a buyer's intent to purchase one product. The row exists
// before the checkout session so the session metadata can reference OrderID.
type Order struct {
	ID                     int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID                string      `gorm:"column:order_id;unique;not null;size:40" json:"order_id"`
	CustomLinkID           int64       `gorm:"column:custom_link_id;not null;index" json:"custom_link_id"`
	Status                 OrderStatus `gorm:"type:order_status;not null;default:'pending'" json:"status"`
	BuyerName              string      `gorm:"size:200" json:"buyer_name"`
	BuyerEmail             string      `gorm:"size:255" json:"buyer_email"`
	FormResponses          JSONB       `gorm:"type:jsonb;default:'{}'" json:"form_responses"`
	EmailAutomationEnabled bool        `gorm:"column:email_automation_enabled;default:true" json:"email_automation_enabled"`
	CompletedAt            *time.Time  `json:"completed_at,omitempty"`
	CancelledAt            *time.Time  `json:"cancelled_at,omitempty"`
	CreatedAt              time.Time   `gorm:"default:now()" json:"created_at"`
	UpdatedAt              time.Time   `gorm:"default:now()" json:"updated_at"`

	// Relations
	CustomLink *CustomLink `gorm:"foreignKey:CustomLinkID" json:"custom_link,omitempty"`
}

// TableName specifies the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrderID generates a unique human-readable order identifier,
// e.g. "LS-M3K9QZ-4F21A8". Assigned once at creation, never reassigned.
func NewOrderID(now time.Time) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to nanos
		return fmt.Sprintf("LS-%s-%d", strings.ToUpper(strconv.FormatInt(now.Unix(), 36)), now.Nanosecond())
	}
	return fmt.Sprintf("LS-%s-%s",
		strings.ToUpper(strconv.FormatInt(now.Unix(), 36)),
		strings.ToUpper(hex.EncodeToString(buf)))
}

// MarkCompleted transitions the order to completed. Returns false when the
// order already left pending; completion happens exactly once.
func (o *Order) MarkCompleted(now time.Time) bool {
	if o.Status != OrderStatusPending {
		return false
	}
	o.Status = OrderStatusCompleted
	o.CompletedAt = &now
	return true
}

// MarkCancelled transitions the order to cancelled after a full refund.
// Cancelling an already-cancelled order is a no-op.
func (o *Order) MarkCancelled(now time.Time) bool {
	if o.Status == OrderStatusCancelled {
		return false
	}
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	return true
}
