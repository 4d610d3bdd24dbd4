package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/marugo/torioki/internal/reservation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, reservation *domain.Reservation) error {
	return db.WithContext(ctx).Create(reservation).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.ReservationItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Reservation, error) {
	var reservation domain.Reservation
	err := db.WithContext(ctx).First(&reservation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, reservationID snowflake.ID) ([]domain.ReservationItem, error) {
	var items []domain.ReservationItem
	err := db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("id").
		Find(&items).Error
	return items, err
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, lineUserID string) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	err := db.WithContext(ctx).
		Where("line_user_id = ?", lineUserID).
		Order("created_at desc, id desc").
		Find(&reservations).Error
	return reservations, err
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, updatedAt time.Time) error {
	result := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": updatedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) ListTerminalBefore(ctx context.Context, db *gorm.DB, status domain.Status, cutoff time.Time, limit int) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	err := db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", status, cutoff).
		Order("updated_at, id").
		Limit(limit).
		Find(&reservations).Error
	return reservations, err
}

func (r *repo) ListUpcoming(ctx context.Context, db *gorm.DB, from, to time.Time, statuses []domain.Status) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	err := db.WithContext(ctx).
		Where("pickup_date >= ? AND pickup_date < ? AND status IN ?", from, to, statuses).
		Order("pickup_date, id").
		Find(&reservations).Error
	return reservations, err
}

func (r *repo) DeleteByID(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.Reservation{}, "id = ?", id).Error
}

func (r *repo) DeleteItems(ctx context.Context, db *gorm.DB, reservationID snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.ReservationItem{}, "reservation_id = ?", reservationID).Error
}
