package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	reservationdomain "github.com/marugo/torioki/internal/reservation/domain"
	"gorm.io/datatypes"
)

// ReservationHistory is the flattened archive row a terminal reservation
// becomes. Items are denormalized into a JSON document so the active
// reservation_items rows can be deleted with the reservation. The row ID
// is the original reservation ID, which makes a re-copy after a crashed
// run a detectable duplicate-key insert.
type ReservationHistory struct {
	ID           snowflake.ID             `gorm:"primaryKey" json:"id"`
	PresetID     int64                    `gorm:"not null;index" json:"preset_id"`
	CustomerName string                   `gorm:"not null" json:"customer_name"`
	Furigana     *string                  `json:"furigana,omitempty"`
	Phone        string                   `gorm:"not null;index" json:"phone"`
	PickupDate   time.Time                `gorm:"not null;index" json:"pickup_date"`
	Status       reservationdomain.Status `gorm:"not null;index" json:"status"`
	TotalAmount  int64                    `gorm:"not null" json:"total_amount"`
	Note         *string                  `json:"note,omitempty"`
	LineUserID   *string                  `json:"line_user_id,omitempty"`
	Items        datatypes.JSON           `json:"items"`
	ReservedAt   time.Time                `gorm:"not null" json:"reserved_at"`
	ClosedAt     time.Time                `gorm:"not null;index" json:"closed_at"`
	MovedAt      time.Time                `gorm:"not null" json:"moved_at"`
}

func (ReservationHistory) TableName() string { return "reservation_history" }

// HistoryItem is the JSON shape of one archived line item.
type HistoryItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Subtotal    int64  `json:"subtotal"`
}

// MaintenanceResult reports one maintenance pass. Per-row failures are
// counted and logged, never fatal to the pass.
type MaintenanceResult struct {
	CompletedMoved  int `json:"completed_moved"`
	CompletedErrors int `json:"completed_errors"`
	CancelledMoved  int `json:"cancelled_moved"`
	CancelledErrors int `json:"cancelled_errors"`
	Archived        int `json:"archived"`
	ArchiveErrors   int `json:"archive_errors"`
}

type SearchRequest struct {
	CustomerName string
	Phone        string
	Status       *reservationdomain.Status
	PickupFrom   *time.Time
	PickupTo     *time.Time
	Limit        int
	Offset       int
}

type Stats struct {
	Total       int64                              `json:"total"`
	ByStatus    map[reservationdomain.Status]int64 `json:"by_status"`
	TotalAmount int64                              `json:"total_amount"`
}
