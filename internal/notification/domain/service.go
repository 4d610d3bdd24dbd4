package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrInvalidRecipient = errors.New("invalid_recipient")
	ErrPushFailed       = errors.New("push_failed")
)

// Dispatcher sends exactly one push per Notify call and always records
// the outcome. Delivery failure is the caller's signal to report a
// secondary status, never to fail its own operation.
type Dispatcher interface {
	Notify(ctx context.Context, recipient string, kind Kind, summary ReservationSummary) error
	// DispatchAsync hands the send to a background worker; the write
	// path must not block on, or fail because of, the messaging endpoint.
	DispatchAsync(recipient string, kind Kind, summary ReservationSummary)
	// WasNotifiedSince reports whether a delivered record of this kind
	// exists for the reservation after the cutoff. Used for reminder
	// dedup; scoped to the reservation so a customer with several
	// pickups the same day hears about each one.
	WasNotifiedSince(ctx context.Context, reservationID string, kind Kind, since time.Time) (bool, error)
	// Flush waits for in-flight async dispatches. Called on shutdown and
	// by tests.
	Flush()
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *NotificationRecord) error
	ExistsSince(ctx context.Context, db *gorm.DB, reservationID string, kind Kind, since time.Time) (bool, error)
}
