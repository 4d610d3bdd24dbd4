package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository is the typed store gateway for catalog entities. Callers
// state ordering explicitly; no method relies on implicit store order.
type Repository interface {
	FindPreset(ctx context.Context, db *gorm.DB, id int64) (*Preset, error)
	InsertPreset(ctx context.Context, db *gorm.DB, preset *Preset) error
	ListPresets(ctx context.Context, db *gorm.DB) ([]Preset, error)

	// ListEnabledFormSettings returns enabled rows newest-first so the
	// resolver's ambiguity tie-break is a plain head pick.
	ListEnabledFormSettings(ctx context.Context, db *gorm.DB, presetID int64) ([]FormSettings, error)
	UpsertFormSettings(ctx context.Context, db *gorm.DB, settings *FormSettings) error

	// ListActivePresetProducts returns active links ordered by display_order.
	ListActivePresetProducts(ctx context.Context, db *gorm.DB, presetID int64) ([]PresetProduct, error)
	ReplacePresetProducts(ctx context.Context, db *gorm.DB, presetID int64, links []PresetProduct) error

	// ListVisibleProductsByIDs returns visible products in store order;
	// callers re-sort into link order themselves.
	ListVisibleProductsByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]Product, error)
	FindProduct(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	InsertProduct(ctx context.Context, db *gorm.DB, product *Product) error
	UpdateProduct(ctx context.Context, db *gorm.DB, product *Product) error
	SetProductVisibility(ctx context.Context, db *gorm.DB, id int64, visible bool) error
	ListProducts(ctx context.Context, db *gorm.DB, filter ListProductFilter) ([]Product, error)

	// ListPickupWindows returns a preset's windows ordered by pickup_start.
	ListPickupWindows(ctx context.Context, db *gorm.DB, presetID int64) ([]PickupWindow, error)
	ReplacePickupWindows(ctx context.Context, db *gorm.DB, presetID int64, windows []PickupWindow) error
}

type ListProductFilter struct {
	Name    string
	Visible *bool
}
