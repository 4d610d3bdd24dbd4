package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, history *ReservationHistory) error
	Search(ctx context.Context, db *gorm.DB, req SearchRequest) ([]ReservationHistory, int64, error)
	Stats(ctx context.Context, db *gorm.DB) (*Stats, error)
	CountClosedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
	DeleteClosedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
}
