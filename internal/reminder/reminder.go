package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/marugo/torioki/internal/clock"
	"github.com/marugo/torioki/internal/config"
	notificationdomain "github.com/marugo/torioki/internal/notification/domain"
	notificationservice "github.com/marugo/torioki/internal/notification/service"
	reservationdomain "github.com/marugo/torioki/internal/reservation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Result reports one reminder batch.
type Result struct {
	Scanned int `json:"scanned"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Config       config.Config
	Clock        clock.Clock
	Reservations reservationdomain.Repository
	Dispatcher   notificationdomain.Dispatcher
}

// Service sends pickup-day reminders for active reservations. Each
// reservation is reminded at most once per day, however many times the
// batch runs; a customer with several pickups tomorrow hears about
// each of them.
type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	cfg          config.SchedulerConfig
	clock        clock.Clock
	reservations reservationdomain.Repository
	dispatcher   notificationdomain.Dispatcher
}

func New(p Params) *Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("reminder.service"),
		cfg:          p.Config.Scheduler,
		clock:        p.Clock,
		reservations: p.Reservations,
		dispatcher:   p.Dispatcher,
	}
}

// SendBatch scans the 24h pickup window that starts one lead period
// ahead, aligned to day boundaries, and pushes one reminder per
// reachable reservation. Per-row failures are counted and logged.
func (s *Service) SendBatch(ctx context.Context) (*Result, error) {
	now := s.clock.Now()
	windowStart := now.Add(s.cfg.ReminderLead).Truncate(24 * time.Hour)
	windowEnd := windowStart.Add(24 * time.Hour)
	dayStart := now.Truncate(24 * time.Hour)

	rows, err := s.reservations.ListUpcoming(ctx, s.db, windowStart, windowEnd, reservationdomain.ActiveStatuses)
	if err != nil {
		return nil, fmt.Errorf("list upcoming: %w", err)
	}

	result := &Result{Scanned: len(rows)}
	var errs []error
	notified := map[snowflake.ID]bool{}
	for i := range rows {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		reservation := &rows[i]

		if reservation.LineUserID == nil || !notificationservice.IsValidLineUserID(*reservation.LineUserID) {
			result.Skipped++
			continue
		}
		recipient := *reservation.LineUserID

		if notified[reservation.ID] {
			result.Skipped++
			continue
		}
		already, err := s.dispatcher.WasNotifiedSince(ctx, reservation.ID.String(), notificationdomain.KindReminder, dayStart)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("reservation %s: dedup check: %w", reservation.ID, err))
			continue
		}
		if already {
			notified[reservation.ID] = true
			result.Skipped++
			continue
		}

		items, err := s.reservations.ListItems(ctx, s.db, reservation.ID)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("reservation %s: list items: %w", reservation.ID, err))
			continue
		}

		if err := s.dispatcher.Notify(ctx, recipient, notificationdomain.KindReminder, summarize(reservation, items)); err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("reservation %s: %w", reservation.ID, err))
			s.log.Warn("reminder failed",
				zap.String("reservation_id", reservation.ID.String()),
				zap.Error(err),
			)
			continue
		}
		notified[reservation.ID] = true
		result.Sent++
	}

	s.log.Info("reminder batch done",
		zap.Int("scanned", result.Scanned),
		zap.Int("sent", result.Sent),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, errors.Join(errs...)
}

func summarize(reservation *reservationdomain.Reservation, items []reservationdomain.ReservationItem) notificationdomain.ReservationSummary {
	summaries := make([]notificationdomain.ItemSummary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, notificationdomain.ItemSummary{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	return notificationdomain.ReservationSummary{
		ReservationID: reservation.ID.String(),
		CustomerName:  reservation.CustomerName,
		PickupDate:    reservation.PickupDate,
		TotalAmount:   reservation.TotalAmount,
		Items:         summaries,
		Note:          reservation.Note,
	}
}

var Module = fx.Module("reminder.service",
	fx.Provide(New),
)
