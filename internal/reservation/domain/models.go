package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ActiveStatuses are the states a reservation can still move out of.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed, StatusPreparing}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusPreparing, StatusCompleted, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCompleted, StatusCancelled},
	StatusPreparing: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a staff status change from one state to
// another is allowed. Terminal states never transition.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func IsTerminal(status Status) bool {
	return status == StatusCompleted || status == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

type Reservation struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	PresetID     int64        `gorm:"not null;index" json:"preset_id"`
	CustomerName string       `gorm:"not null" json:"customer_name"`
	Furigana     *string      `json:"furigana,omitempty"`
	Phone        string       `gorm:"not null" json:"phone"`
	PickupDate   time.Time    `gorm:"not null;index" json:"pickup_date"`
	Status       Status       `gorm:"not null;default:pending;index" json:"status"`
	TotalAmount  int64        `gorm:"not null" json:"total_amount"`
	Note         *string      `json:"note,omitempty"`
	LineUserID   *string      `gorm:"index" json:"line_user_id,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Reservation) TableName() string { return "reservations" }

// ReservationItem rows are immutable once written; corrections mean a
// new reservation, not an update, or the financial audit trail breaks.
type ReservationItem struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	ReservationID snowflake.ID `gorm:"not null;index" json:"reservation_id"`
	ProductID     int64        `gorm:"not null" json:"product_id"`
	ProductName   string       `gorm:"not null" json:"product_name"`
	Quantity      int          `gorm:"not null" json:"quantity"`
	UnitPrice     int64        `gorm:"not null" json:"unit_price"`
	Subtotal      int64        `gorm:"not null" json:"subtotal"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ReservationItem) TableName() string { return "reservation_items" }
