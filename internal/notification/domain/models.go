package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindReminder     Kind = "reminder"
	KindCancellation Kind = "cancellation"
	// KindError marks a failed delivery attempt. The requested kind and
	// failure detail live in the payload.
	KindError Kind = "error"
)

// NotificationRecord is the append-only audit row written for every
// dispatch attempt, delivered or not. The core never updates or deletes
// these rows.
type NotificationRecord struct {
	ID            snowflake.ID   `gorm:"primaryKey" json:"id"`
	Recipient     string         `gorm:"not null;index" json:"recipient"`
	ReservationID string         `gorm:"not null;index:idx_notification_reservation_kind" json:"reservation_id"`
	Kind          Kind           `gorm:"not null;index:idx_notification_reservation_kind" json:"kind"`
	Payload       datatypes.JSON `json:"payload"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (NotificationRecord) TableName() string { return "notification_records" }

// ItemSummary is the per-line detail rendered into message bodies.
type ItemSummary struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Subtotal    int64  `json:"subtotal"`
}

// ReservationSummary carries the reservation fields messages are built
// from. Defined here so the dispatcher does not depend on the
// reservation package.
type ReservationSummary struct {
	ReservationID string        `json:"reservation_id"`
	CustomerName  string        `json:"customer_name"`
	PickupDate    time.Time     `json:"pickup_date"`
	TotalAmount   int64         `json:"total_amount"`
	Items         []ItemSummary `json:"items"`
	Note          *string       `json:"note,omitempty"`
}
