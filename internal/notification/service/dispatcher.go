package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/marugo/torioki/internal/config"
	"github.com/marugo/torioki/internal/notification/domain"
	"github.com/marugo/torioki/internal/providers/line"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const asyncDispatchTimeout = 30 * time.Second

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Provider line.Provider
	Repo     domain.Repository
	Cfg      config.Config
}

type Dispatcher struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	provider  line.Provider
	repo      domain.Repository
	publicURL string

	wg sync.WaitGroup
}

func New(p Params) domain.Dispatcher {
	return &Dispatcher{
		db:        p.DB,
		log:       p.Log.Named("notification.dispatcher"),
		genID:     p.GenID,
		provider:  p.Provider,
		repo:      p.Repo,
		publicURL: p.Cfg.Line.PublicURL,
	}
}

// Notify performs exactly one outbound push and appends an audit record
// whatever the outcome. No internal retries; duplicate-send protection
// belongs to the batch layer above.
func (d *Dispatcher) Notify(ctx context.Context, recipient string, kind domain.Kind, summary domain.ReservationSummary) error {
	var pushErr error
	if !IsValidLineUserID(recipient) {
		pushErr = fmt.Errorf("%w: %q", domain.ErrInvalidRecipient, recipient)
	} else {
		messages := d.buildMessages(kind, summary)
		if err := d.provider.Push(ctx, recipient, messages); err != nil {
			pushErr = fmt.Errorf("%w: %v", domain.ErrPushFailed, err)
		}
	}

	d.record(ctx, recipient, kind, summary, pushErr)
	return pushErr
}

// DispatchAsync runs Notify on a background goroutine with its own
// context, so the caller's request lifecycle can finish independently.
func (d *Dispatcher) DispatchAsync(recipient string, kind domain.Kind, summary domain.ReservationSummary) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), asyncDispatchTimeout)
		defer cancel()
		if err := d.Notify(ctx, recipient, kind, summary); err != nil {
			d.log.Warn("async notification failed",
				zap.String("recipient", recipient),
				zap.String("kind", string(kind)),
				zap.String("reservation_id", summary.ReservationID),
				zap.Error(err),
			)
		}
	}()
}

func (d *Dispatcher) WasNotifiedSince(ctx context.Context, reservationID string, kind domain.Kind, since time.Time) (bool, error) {
	return d.repo.ExistsSince(ctx, d.db, reservationID, kind, since)
}

func (d *Dispatcher) Flush() {
	d.wg.Wait()
}

func (d *Dispatcher) buildMessages(kind domain.Kind, summary domain.ReservationSummary) []line.Message {
	var text string
	switch kind {
	case domain.KindReminder:
		text = buildReminderText(summary, d.publicURL)
	case domain.KindCancellation:
		text = buildCancellationText(summary, d.publicURL)
	default:
		text = buildConfirmationText(summary, d.publicURL)
	}
	return []line.Message{line.TextMessage(text)}
}

type recordPayload struct {
	RequestedKind domain.Kind               `json:"requested_kind"`
	Reservation   domain.ReservationSummary `json:"reservation"`
	Error         string                    `json:"error,omitempty"`
}

func (d *Dispatcher) record(ctx context.Context, recipient string, kind domain.Kind, summary domain.ReservationSummary, pushErr error) {
	payload := recordPayload{
		RequestedKind: kind,
		Reservation:   summary,
	}
	storedKind := kind
	if pushErr != nil {
		storedKind = domain.KindError
		payload.Error = pushErr.Error()
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		d.log.Error("encode notification payload", zap.Error(err))
		raw = []byte(`{}`)
	}

	record := domain.NotificationRecord{
		ID:            d.genID.Generate(),
		Recipient:     recipient,
		ReservationID: summary.ReservationID,
		Kind:          storedKind,
		Payload:       datatypes.JSON(raw),
		CreatedAt:     time.Now().UTC(),
	}
	if err := d.repo.Insert(ctx, d.db, &record); err != nil {
		// The audit row is best-effort relative to the push outcome; a
		// failed insert must not mask or alter the push result.
		d.log.Error("insert notification record",
			zap.String("recipient", recipient),
			zap.String("kind", string(storedKind)),
			zap.Error(err),
		)
	}
}

// IsValidLineUserID checks the messaging endpoint's recipient shape:
// 33 characters, 'U' prefix, lowercase-hex tail.
func IsValidLineUserID(userID string) bool {
	if len(userID) != 33 || !strings.HasPrefix(userID, "U") {
		return false
	}
	for _, r := range userID[1:] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
