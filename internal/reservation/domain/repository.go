package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, reservation *Reservation) error
	InsertItems(ctx context.Context, db *gorm.DB, items []ReservationItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Reservation, error)
	ListItems(ctx context.Context, db *gorm.DB, reservationID snowflake.ID) ([]ReservationItem, error)
	ListByUser(ctx context.Context, db *gorm.DB, lineUserID string) ([]Reservation, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, updatedAt time.Time) error

	// ListTerminalBefore pages terminal-state rows whose last update
	// precedes the cutoff; feed for history migration.
	ListTerminalBefore(ctx context.Context, db *gorm.DB, status Status, cutoff time.Time, limit int) ([]Reservation, error)
	// ListUpcoming returns active reservations picking up inside
	// [from, to), ordered by pickup_date; feed for reminders.
	ListUpcoming(ctx context.Context, db *gorm.DB, from, to time.Time, statuses []Status) ([]Reservation, error)
	DeleteByID(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteItems(ctx context.Context, db *gorm.DB, reservationID snowflake.ID) error
}
