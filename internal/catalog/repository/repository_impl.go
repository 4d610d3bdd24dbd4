package repository

import (
	"context"
	"errors"

	"github.com/marugo/torioki/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindPreset(ctx context.Context, db *gorm.DB, id int64) (*domain.Preset, error) {
	var preset domain.Preset
	err := db.WithContext(ctx).First(&preset, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &preset, nil
}

func (r *repo) InsertPreset(ctx context.Context, db *gorm.DB, preset *domain.Preset) error {
	return db.WithContext(ctx).Create(preset).Error
}

func (r *repo) ListPresets(ctx context.Context, db *gorm.DB) ([]domain.Preset, error) {
	var presets []domain.Preset
	err := db.WithContext(ctx).Order("id").Find(&presets).Error
	return presets, err
}

func (r *repo) ListEnabledFormSettings(ctx context.Context, db *gorm.DB, presetID int64) ([]domain.FormSettings, error) {
	var settings []domain.FormSettings
	err := db.WithContext(ctx).
		Where("preset_id = ? AND is_enabled = ?", presetID, true).
		Order("created_at desc, id desc").
		Find(&settings).Error
	return settings, err
}

func (r *repo) UpsertFormSettings(ctx context.Context, db *gorm.DB, settings *domain.FormSettings) error {
	// Replace-all, not update-in-place: legacy data may carry several
	// rows per preset, and a staff save collapses them back to one.
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("preset_id = ?", settings.PresetID).Delete(&domain.FormSettings{}).Error; err != nil {
			return err
		}
		return tx.Create(settings).Error
	})
}

func (r *repo) ListActivePresetProducts(ctx context.Context, db *gorm.DB, presetID int64) ([]domain.PresetProduct, error) {
	var links []domain.PresetProduct
	err := db.WithContext(ctx).
		Where("preset_id = ? AND is_active = ?", presetID, true).
		Order("display_order, id").
		Find(&links).Error
	return links, err
}

func (r *repo) ReplacePresetProducts(ctx context.Context, db *gorm.DB, presetID int64, links []domain.PresetProduct) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("preset_id = ?", presetID).Delete(&domain.PresetProduct{}).Error; err != nil {
			return err
		}
		if len(links) == 0 {
			return nil
		}
		return tx.Create(&links).Error
	})
}

func (r *repo) ListVisibleProductsByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []domain.Product
	err := db.WithContext(ctx).
		Where("id IN ? AND visible = ?", ids, true).
		Find(&products).Error
	return products, err
}

func (r *repo) FindProduct(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var product domain.Product
	err := db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repo) InsertProduct(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Create(product).Error
}

func (r *repo) UpdateProduct(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Save(product).Error
}

func (r *repo) SetProductVisibility(ctx context.Context, db *gorm.DB, id int64, visible bool) error {
	result := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Update("visible", visible)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) ListProducts(ctx context.Context, db *gorm.DB, filter domain.ListProductFilter) ([]domain.Product, error) {
	stmt := db.WithContext(ctx).Model(&domain.Product{})
	if filter.Name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Visible != nil {
		stmt = stmt.Where("visible = ?", *filter.Visible)
	}
	var products []domain.Product
	err := stmt.Order("id").Find(&products).Error
	return products, err
}

func (r *repo) ListPickupWindows(ctx context.Context, db *gorm.DB, presetID int64) ([]domain.PickupWindow, error) {
	var windows []domain.PickupWindow
	err := db.WithContext(ctx).
		Where("preset_id = ?", presetID).
		Order("pickup_start, id").
		Find(&windows).Error
	return windows, err
}

func (r *repo) ReplacePickupWindows(ctx context.Context, db *gorm.DB, presetID int64, windows []domain.PickupWindow) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("preset_id = ?", presetID).Delete(&domain.PickupWindow{}).Error; err != nil {
			return err
		}
		if len(windows) == 0 {
			return nil
		}
		return tx.Create(&windows).Error
	})
}
