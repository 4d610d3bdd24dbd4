package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/marugo/torioki/internal/clock"
	"github.com/marugo/torioki/internal/config"
	"github.com/marugo/torioki/internal/history/domain"
	reservationdomain "github.com/marugo/torioki/internal/reservation/domain"
	"github.com/marugo/torioki/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Config       config.Config
	Clock        clock.Clock
	Repo         domain.Repository
	Reservations reservationdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	cfg          config.SchedulerConfig
	clock        clock.Clock
	repo         domain.Repository
	reservations reservationdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("history.service"),
		cfg:          p.Config.Scheduler,
		clock:        p.Clock,
		repo:         p.Repo,
		reservations: p.Reservations,
	}
}

func (s *Service) RunMaintenance(ctx context.Context) (*domain.MaintenanceResult, error) {
	result := &domain.MaintenanceResult{}

	var errs []error

	moved, failed, err := s.MoveCompleted(ctx)
	result.CompletedMoved, result.CompletedErrors = moved, failed
	if err != nil {
		errs = append(errs, fmt.Errorf("move completed: %w", err))
	}

	moved, failed, err = s.MoveCancelled(ctx)
	result.CancelledMoved, result.CancelledErrors = moved, failed
	if err != nil {
		errs = append(errs, fmt.Errorf("move cancelled: %w", err))
	}

	deleted, err := s.ArchiveOld(ctx)
	result.Archived = deleted
	if err != nil {
		result.ArchiveErrors++
		errs = append(errs, fmt.Errorf("archive old: %w", err))
	}

	s.log.Info("maintenance pass done",
		zap.Int("completed_moved", result.CompletedMoved),
		zap.Int("completed_errors", result.CompletedErrors),
		zap.Int("cancelled_moved", result.CancelledMoved),
		zap.Int("cancelled_errors", result.CancelledErrors),
		zap.Int("archived", result.Archived),
	)
	return result, errors.Join(errs...)
}

func (s *Service) MoveCompleted(ctx context.Context) (int, int, error) {
	cutoff := s.clock.Now().Add(-s.cfg.CompletedGrace)
	return s.moveTerminal(ctx, reservationdomain.StatusCompleted, cutoff)
}

func (s *Service) MoveCancelled(ctx context.Context) (int, int, error) {
	cutoff := s.clock.Now().Add(-s.cfg.CancelledGrace)
	return s.moveTerminal(ctx, reservationdomain.StatusCancelled, cutoff)
}

// moveTerminal pages through eligible rows and moves them one at a time.
// A failing row is counted once and ignored when a later page returns it
// again; the page loop stops as soon as a pass makes no progress so
// broken rows cannot spin it forever.
func (s *Service) moveTerminal(ctx context.Context, status reservationdomain.Status, cutoff time.Time) (int, int, error) {
	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}

	var moved, failed int
	var errs []error
	failedIDs := map[snowflake.ID]bool{}
	for {
		rows, err := s.reservations.ListTerminalBefore(ctx, s.db, status, cutoff, batchSize)
		if err != nil {
			return moved, failed, err
		}
		if len(rows) == 0 {
			break
		}

		progressed := 0
		for i := range rows {
			if err := ctx.Err(); err != nil {
				errs = append(errs, err)
				return moved, failed, errors.Join(errs...)
			}
			if failedIDs[rows[i].ID] {
				continue
			}
			if err := s.moveOne(ctx, &rows[i]); err != nil {
				failedIDs[rows[i].ID] = true
				failed++
				errs = append(errs, fmt.Errorf("reservation %s: %w", rows[i].ID, err))
				s.log.Warn("move to history failed",
					zap.String("reservation_id", rows[i].ID.String()),
					zap.String("status", string(status)),
					zap.Error(err),
				)
				continue
			}
			moved++
			progressed++
		}
		if progressed == 0 || len(rows) < batchSize {
			break
		}
	}
	return moved, failed, errors.Join(errs...)
}

// moveOne copies the reservation and its items into the archive, then
// deletes the active rows, all in one transaction. A duplicate-key on
// the archive insert means a previous run already copied this row and
// died before deleting; the delete is simply retried.
func (s *Service) moveOne(ctx context.Context, reservation *reservationdomain.Reservation) error {
	items, err := s.reservations.ListItems(ctx, s.db, reservation.ID)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}

	history, err := buildHistory(reservation, items, s.clock.Now())
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, history); err != nil && !db.IsDuplicateKeyErr(err) {
			return fmt.Errorf("insert history: %w", err)
		}
		if err := s.reservations.DeleteItems(ctx, tx, reservation.ID); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		if err := s.reservations.DeleteByID(ctx, tx, reservation.ID); err != nil {
			return fmt.Errorf("delete reservation: %w", err)
		}
		return nil
	})
}

func (s *Service) ArchiveOld(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.cfg.HistoryRetention)

	count, err := s.repo.CountClosedBefore(ctx, s.db, cutoff)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	s.log.Info("purging archive rows past retention",
		zap.Int64("count", count),
		zap.Time("cutoff", cutoff),
	)

	deleted, err := s.repo.DeleteClosedBefore(ctx, s.db, cutoff)
	return int(deleted), err
}

func (s *Service) Search(ctx context.Context, req domain.SearchRequest) ([]domain.ReservationHistory, int64, error) {
	return s.repo.Search(ctx, s.db, req)
}

func (s *Service) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.repo.Stats(ctx, s.db)
}

func buildHistory(reservation *reservationdomain.Reservation, items []reservationdomain.ReservationItem, movedAt time.Time) (*domain.ReservationHistory, error) {
	historyItems := make([]domain.HistoryItem, 0, len(items))
	for _, item := range items {
		historyItems = append(historyItems, domain.HistoryItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	payload, err := json.Marshal(historyItems)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}

	return &domain.ReservationHistory{
		ID:           reservation.ID,
		PresetID:     reservation.PresetID,
		CustomerName: reservation.CustomerName,
		Furigana:     reservation.Furigana,
		Phone:        reservation.Phone,
		PickupDate:   reservation.PickupDate,
		Status:       reservation.Status,
		TotalAmount:  reservation.TotalAmount,
		Note:         reservation.Note,
		LineUserID:   reservation.LineUserID,
		Items:        payload,
		ReservedAt:   reservation.CreatedAt,
		ClosedAt:     reservation.UpdatedAt,
		MovedAt:      movedAt,
	}, nil
}
