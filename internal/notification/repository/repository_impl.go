package repository

import (
	"context"
	"time"

	"github.com/marugo/torioki/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.NotificationRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) ExistsSince(ctx context.Context, db *gorm.DB, reservationID string, kind domain.Kind, since time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.NotificationRecord{}).
		Where("reservation_id = ? AND kind = ? AND created_at >= ?", reservationID, kind, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
