package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// MaxItemQuantity is the per-line business cap.
const MaxItemQuantity = 99

type ItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CreateRequest carries a public form submission. TotalAmount, if the
// client sends one, is ignored and recomputed server-side.
//
// There is no client-supplied idempotency key: a client that retries
// after a timeout can create a duplicate reservation. This mirrors the
// original contract on purpose; see DESIGN.md.
type CreateRequest struct {
	PresetID     int64
	CustomerName string
	Furigana     *string
	Phone        string
	PickupDate   time.Time
	Items        []ItemInput
	Note         *string
	LineUserID   *string
	TotalAmount  int64
}

// NotificationStatus reports the confirmation dispatch as a secondary
// outcome, never as the create operation's error.
type NotificationStatus string

const (
	NotificationQueued  NotificationStatus = "queued"
	NotificationSkipped NotificationStatus = "skipped"
)

type CreateResult struct {
	Reservation  Reservation        `json:"reservation"`
	Items        []ReservationItem  `json:"items"`
	Notification NotificationStatus `json:"notification"`
}

type UpdateStatusRequest struct {
	ID     snowflake.ID
	Status Status
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*CreateResult, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Reservation, []ReservationItem, error)
	ListByUser(ctx context.Context, lineUserID string) ([]Reservation, error)
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*Reservation, error)
	Cancel(ctx context.Context, id snowflake.ID) (*Reservation, error)
}

var (
	ErrNotFound          = errors.New("reservation_not_found")
	ErrInvalidTransition = errors.New("invalid_status_transition")
)

// FieldError names one offending input field.
type FieldError struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

// ValidationError rejects a submission before any store write.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}
