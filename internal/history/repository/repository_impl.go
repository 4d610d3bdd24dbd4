package repository

import (
	"context"
	"time"

	"github.com/marugo/torioki/internal/history/domain"
	reservationdomain "github.com/marugo/torioki/internal/reservation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, history *domain.ReservationHistory) error {
	return db.WithContext(ctx).Create(history).Error
}

func (r *repo) Search(ctx context.Context, db *gorm.DB, req domain.SearchRequest) ([]domain.ReservationHistory, int64, error) {
	query := db.WithContext(ctx).Model(&domain.ReservationHistory{})
	if req.CustomerName != "" {
		query = query.Where("customer_name LIKE ?", "%"+req.CustomerName+"%")
	}
	if req.Phone != "" {
		query = query.Where("phone = ?", req.Phone)
	}
	if req.Status != nil {
		query = query.Where("status = ?", *req.Status)
	}
	if req.PickupFrom != nil {
		query = query.Where("pickup_date >= ?", *req.PickupFrom)
	}
	if req.PickupTo != nil {
		query = query.Where("pickup_date < ?", *req.PickupTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var rows []domain.ReservationHistory
	err := query.
		Order("pickup_date desc, id desc").
		Limit(limit).
		Offset(req.Offset).
		Find(&rows).Error
	return rows, total, err
}

func (r *repo) Stats(ctx context.Context, db *gorm.DB) (*domain.Stats, error) {
	stats := &domain.Stats{ByStatus: map[reservationdomain.Status]int64{}}

	type statusRow struct {
		Status reservationdomain.Status
		Count  int64
		Amount int64
	}
	var rows []statusRow
	err := db.WithContext(ctx).
		Model(&domain.ReservationHistory{}).
		Select("status, COUNT(1) AS count, COALESCE(SUM(total_amount), 0) AS amount").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
		stats.TotalAmount += row.Amount
	}
	return stats, nil
}

func (r *repo) CountClosedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.ReservationHistory{}).
		Where("closed_at < ?", cutoff).
		Count(&count).Error
	return count, err
}

func (r *repo) DeleteClosedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Where("closed_at < ?", cutoff).
		Delete(&domain.ReservationHistory{})
	return result.RowsAffected, result.Error
}
