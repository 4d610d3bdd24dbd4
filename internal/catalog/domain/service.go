package domain

import (
	"context"
	"errors"
	"time"
)

type CreatePresetRequest struct {
	Name string
}

type UpdateFormSettingsRequest struct {
	PresetID        int64
	ShowPrice       bool
	RequirePhone    bool
	RequireFurigana bool
	AllowNote       bool
	IsEnabled       bool
	CustomMessage   *string
}

type PresetProductInput struct {
	ProductID    int64
	DisplayOrder int
	IsActive     bool
}

type PickupWindowInput struct {
	ProductID   *int64
	PickupStart time.Time
	PickupEnd   time.Time
	Price       *int64
	Comment     *string
}

type CreateProductRequest struct {
	Name       string
	Price      int64
	CategoryID *int64
	Visible    *bool
}

type UpdateProductRequest struct {
	ID         int64
	Name       *string
	Price      *int64
	CategoryID *int64
}

type ListProductRequest struct {
	Name    string
	Visible *bool
}

// Service covers the staff-side catalog operations. The public form path
// never goes through here; it reads via the resolver.
type Service interface {
	CreatePreset(ctx context.Context, req CreatePresetRequest) (Preset, error)
	ListPresets(ctx context.Context) ([]Preset, error)
	UpdateFormSettings(ctx context.Context, req UpdateFormSettingsRequest) (FormSettings, error)
	ReplacePresetProducts(ctx context.Context, presetID int64, links []PresetProductInput) error
	ReplacePickupWindows(ctx context.Context, presetID int64, windows []PickupWindowInput) error

	CreateProduct(ctx context.Context, req CreateProductRequest) (Product, error)
	UpdateProduct(ctx context.Context, req UpdateProductRequest) (Product, error)
	SetProductVisibility(ctx context.Context, id int64, visible bool) (Product, error)
	ListProducts(ctx context.Context, req ListProductRequest) ([]Product, error)
}

var (
	ErrNotFound        = errors.New("not_found")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidProduct  = errors.New("invalid_product")
	ErrInvalidWindow   = errors.New("invalid_window")
	ErrInvalidPresetID = errors.New("invalid_preset_id")
)
